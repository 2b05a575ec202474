package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"research-orchestrator/internal/domain"
)

type metricsRepository struct {
	pool *pgxpool.Pool
}

// NewMetricsRepository creates a repository over the metrics_data table.
func NewMetricsRepository(pool *pgxpool.Pool) domain.MetricsRepository {
	return &metricsRepository{pool: pool}
}

// chartFields is the identifier allow-list for synthesized chart queries.
// Field names are interpolated into SQL, so nothing outside this set passes.
var chartFields = map[string]bool{
	"metric_name":        true,
	"segment_combo":      true,
	"value_current":      true,
	"value_previous":     true,
	"value_delta":        true,
	"contribution_value": true,
	"is_outlier":         true,
	"outlier_type":       true,
	"week":               true,
}

func (r *metricsRepository) GetMetrics(ctx context.Context, filter domain.MetricsFilter) ([]domain.MetricRow, error) {
	query := `
		SELECT metric_name, segment_combo, value_current, value_previous,
		       value_delta, contribution_value, is_outlier, COALESCE(outlier_type, '')
		FROM metrics_data
		WHERE title = $1 AND season = $2 AND week = $3
		ORDER BY metric_name, segment_combo
	`
	rows, err := r.pool.Query(ctx, query, filter.Title, filter.Season, filter.Week)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []domain.MetricRow
	for rows.Next() {
		var m domain.MetricRow
		if err := rows.Scan(&m.MetricName, &m.SegmentCombo, &m.ValueCurrent, &m.ValuePrevious,
			&m.ValueDelta, &m.ContributionValue, &m.IsOutlier, &m.OutlierType); err != nil {
			return nil, fmt.Errorf("failed to scan metric row: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return metrics, nil
}

func (r *metricsRepository) QueryChartRows(ctx context.Context, filter domain.MetricsFilter, xField, yField, extraFilter string, limit int) ([]map[string]any, error) {
	if !chartFields[xField] {
		return nil, fmt.Errorf("chart x field not allowed: %s", xField)
	}
	if !chartFields[yField] {
		return nil, fmt.Errorf("chart y field not allowed: %s", yField)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s, %s FROM metrics_data WHERE title = $1 AND season = $2 AND week = $3", xField, yField)
	if extraFilter != "" {
		if err := validateExtraFilter(extraFilter); err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, " AND (%s)", extraFilter)
	}
	fmt.Fprintf(&sb, " ORDER BY %s LIMIT %d", xField, limit)

	rows, err := r.pool.Query(ctx, sb.String(), filter.Title, filter.Season, filter.Week)
	if err != nil {
		return nil, fmt.Errorf("failed to query chart rows: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read chart row: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// validateExtraFilter accepts only simple comparisons over allow-listed
// fields, such as "is_outlier = true" or "value_delta < 0".
func validateExtraFilter(filter string) error {
	parts := strings.Fields(filter)
	if len(parts) != 3 {
		return fmt.Errorf("chart filter must be a single comparison: %q", filter)
	}
	if !chartFields[parts[0]] {
		return fmt.Errorf("chart filter field not allowed: %s", parts[0])
	}
	switch parts[1] {
	case "=", "!=", "<", ">", "<=", ">=":
	default:
		return fmt.Errorf("chart filter operator not allowed: %s", parts[1])
	}
	value := parts[2]
	if value != "true" && value != "false" {
		if _, err := fmt.Sscanf(value, "%f", new(float64)); err != nil {
			return fmt.Errorf("chart filter value must be boolean or numeric: %s", value)
		}
	}
	return nil
}

func (r *metricsRepository) GetFilterValues(ctx context.Context) (*domain.FilterValues, error) {
	values := &domain.FilterValues{}

	rows, err := r.pool.Query(ctx, `SELECT DISTINCT title FROM metrics_data ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		values.Titles = append(values.Titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	seasonRows, err := r.pool.Query(ctx, `SELECT DISTINCT season FROM metrics_data ORDER BY season`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	defer seasonRows.Close()
	for seasonRows.Next() {
		var season string
		if err := seasonRows.Scan(&season); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		values.Seasons = append(values.Seasons, season)
	}
	if err := seasonRows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	weekRows, err := r.pool.Query(ctx, `SELECT DISTINCT week FROM metrics_data ORDER BY week`)
	if err != nil {
		return nil, fmt.Errorf("failed to query weeks: %w", err)
	}
	defer weekRows.Close()
	for weekRows.Next() {
		var week int
		if err := weekRows.Scan(&week); err != nil {
			return nil, fmt.Errorf("failed to scan week: %w", err)
		}
		values.Weeks = append(values.Weeks, week)
	}
	if err := weekRows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return values, nil
}
