package research_http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"research-orchestrator/internal/domain"
	"research-orchestrator/internal/usecase"
	"research-orchestrator/internal/usecase/ragflow"
)

type Handler struct {
	research   usecase.ResearchUsecase
	reflection *usecase.ReflectionUsecase
	workflow   *ragflow.Workflow
	metrics    domain.MetricsRepository
	logger     *slog.Logger
}

func NewHandler(
	research usecase.ResearchUsecase,
	reflection *usecase.ReflectionUsecase,
	workflow *ragflow.Workflow,
	metrics domain.MetricsRepository,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		research:   research,
		reflection: reflection,
		workflow:   workflow,
		metrics:    metrics,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.POST("/v1/research/search", h.Search)
	e.POST("/v1/research/reflect", h.Reflect)
	e.POST("/analyze", h.Analyze)
	e.POST("/chat", h.Chat)
	e.GET("/filters", h.Filters)
	e.POST("/metrics", h.Metrics)
}

func (h *Handler) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "research-orchestrator",
	})
}

// Search runs the deep-research pipeline and returns the assembled payload.
func (h *Handler) Search(ctx echo.Context) error {
	var req usecase.ResearchInput
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	output, err := h.research.Execute(ctx.Request().Context(), req)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"result": output})
}

type reflectRequest struct {
	Reflection string `json:"reflection"`
}

// Reflect acknowledges a planning agent's reflection between search rounds.
func (h *Handler) Reflect(ctx echo.Context) error {
	var req reflectRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{
		"result": h.reflection.Record(req.Reflection),
	})
}

type analysisRequest struct {
	Question  string `json:"question"`
	Title     string `json:"title"`
	Season    string `json:"season"`
	Week      int    `json:"week"`
	EnableRAG *bool  `json:"enable_rag"`
}

func (r *analysisRequest) toState() *ragflow.State {
	state := &ragflow.State{
		Question:  r.Question,
		Title:     r.Title,
		Season:    r.Season,
		Week:      r.Week,
		EnableRAG: true,
	}
	if r.Title == "" {
		state.Title = "bo6_wz2"
	}
	if r.Season == "" {
		state.Season = "Season 3"
	}
	if r.Week == 0 {
		state.Week = 1
	}
	if r.EnableRAG != nil {
		state.EnableRAG = *r.EnableRAG
	}
	return state
}

// analysisResponse carries both the canonical field names and the aliases
// the frontend consumes (sql/data/explanation).
type analysisResponse struct {
	Success          bool             `json:"success"`
	Question         string           `json:"question"`
	Analysis         string           `json:"analysis"`
	ChartType        string           `json:"chart_type"`
	ChartTitle       string           `json:"chart_title"`
	ChartOption      map[string]any   `json:"echarts_option"`
	SQL              string           `json:"sql"`
	SQLQuery         string           `json:"sql_query"`
	Data             []map[string]any `json:"data"`
	SQLResult        []map[string]any `json:"sql_result"`
	PythonCode       string           `json:"python_code"`
	Explanation      string           `json:"explanation"`
	FinalExplanation string           `json:"final_explanation"`
	References       []string         `json:"references"`
	Error            string           `json:"error,omitempty"`
}

// Analyze runs the full four-node workflow and returns everything it built.
func (h *Handler) Analyze(ctx echo.Context) error {
	var req analysisRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	state, err := h.workflow.Run(ctx.Request().Context(), req.toState())
	resp := analysisResponse{
		Success:          err == nil,
		Question:         req.Question,
		Analysis:         state.Analysis,
		ChartType:        defaultChartType(state.ChartType),
		ChartTitle:       state.ChartTitle,
		ChartOption:      orEmptyMap(state.ChartOption),
		SQL:              state.SQLQuery,
		SQLQuery:         state.SQLQuery,
		Data:             orEmptyRows(state.ChartRows),
		SQLResult:        orEmptyRows(state.ChartRows),
		PythonCode:       state.PythonCode,
		Explanation:      state.FinalExplanation,
		FinalExplanation: state.FinalExplanation,
		References:       orEmptyList(state.ReferenceList),
	}
	if err != nil {
		h.logger.Error("analyze_request_failed", slog.String("error", err.Error()))
		resp.Error = err.Error()
	}
	return ctx.JSON(http.StatusOK, resp)
}

// Chat is the simplified analysis surface: just the explanation and chart.
func (h *Handler) Chat(ctx echo.Context) error {
	var req analysisRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	state, err := h.workflow.Run(ctx.Request().Context(), req.toState())
	if err != nil {
		h.logger.Error("chat_request_failed", slog.String("error", err.Error()))
		return ctx.JSON(http.StatusOK, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"success":        true,
		"explanation":    state.FinalExplanation,
		"echarts_option": orEmptyMap(state.ChartOption),
		"references":     orEmptyList(state.ReferenceList),
	})
}

// Filters returns the distinct filter dimensions for client dropdowns.
func (h *Handler) Filters(ctx echo.Context) error {
	values, err := h.metrics.GetFilterValues(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, values)
}

type metricsRequest struct {
	Title      string  `json:"title"`
	Season     string  `json:"season"`
	Week       int     `json:"week"`
	MetricName *string `json:"metric_name"`
	IsOutlier  *bool   `json:"is_outlier"`
}

// Metrics returns the raw metric rows for one selection, with optional
// post-filters on metric name and outlier flag.
func (h *Handler) Metrics(ctx echo.Context) error {
	var req metricsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Week == 0 {
		req.Week = 1
	}

	rows, err := h.metrics.GetMetrics(ctx.Request().Context(), domain.MetricsFilter{
		Title:  req.Title,
		Season: req.Season,
		Week:   req.Week,
	})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	filtered := make([]domain.MetricRow, 0, len(rows))
	for _, row := range rows {
		if req.MetricName != nil && row.MetricName != *req.MetricName {
			continue
		}
		if req.IsOutlier != nil && row.IsOutlier != *req.IsOutlier {
			continue
		}
		filtered = append(filtered, row)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    filtered,
		"count":   len(filtered),
	})
}

func defaultChartType(chartType string) string {
	if chartType == "" {
		return "bar"
	}
	return chartType
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptyRows(rows []map[string]any) []map[string]any {
	if rows == nil {
		return []map[string]any{}
	}
	return rows
}

func orEmptyList(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
