package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "research-cli",
	Short: "Client for the research orchestrator service",
	Long: `research-cli drives the research orchestrator over HTTP.

Example usage:
  research-cli search "quantum computing startups" "quantum hardware funding"
  research-cli search --topic news --max-results 3 "chip export rules"
  research-cli analyze --question "Why did BR hours spike?" --week 2`,
	SilenceUsage: true,
}

var searchCmd = &cobra.Command{
	Use:   "search [queries...]",
	Short: "Run the deep-research pipeline for one or more queries",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the metrics analysis workflow for a question",
	RunE:  runAnalyze,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9020", "orchestrator base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "request timeout")

	searchCmd.Flags().Int("max-results", 5, "results per query")
	searchCmd.Flags().String("topic", "general", "search topic: general, news or finance")
	searchCmd.Flags().Bool("raw-content", false, "ask the backend for full page content")

	analyzeCmd.Flags().String("question", "", "question to analyze (required)")
	analyzeCmd.Flags().String("title", "", "title filter")
	analyzeCmd.Flags().String("season", "", "season filter")
	analyzeCmd.Flags().Int("week", 1, "week number")
	analyzeCmd.Flags().Bool("no-rag", false, "disable report retrieval")
	_ = analyzeCmd.MarkFlagRequired("question")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	topic, _ := cmd.Flags().GetString("topic")
	rawContent, _ := cmd.Flags().GetBool("raw-content")

	payload := map[string]any{
		"queries":             args,
		"max_results":         maxResults,
		"topic":               topic,
		"include_raw_content": rawContent,
	}

	var resp struct {
		Result string `json:"result"`
		Error  string `json:"error"`
	}
	if err := post("/v1/research/search", payload, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("server error: %s", resp.Error)
	}
	fmt.Println(resp.Result)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	question, _ := cmd.Flags().GetString("question")
	title, _ := cmd.Flags().GetString("title")
	season, _ := cmd.Flags().GetString("season")
	week, _ := cmd.Flags().GetInt("week")
	noRAG, _ := cmd.Flags().GetBool("no-rag")

	payload := map[string]any{
		"question":   question,
		"title":      title,
		"season":     season,
		"week":       week,
		"enable_rag": !noRAG,
	}

	var resp struct {
		Success          bool     `json:"success"`
		FinalExplanation string   `json:"final_explanation"`
		ChartTitle       string   `json:"chart_title"`
		ChartType        string   `json:"chart_type"`
		SQLQuery         string   `json:"sql_query"`
		References       []string `json:"references"`
		Error            string   `json:"error"`
	}
	if err := post("/analyze", payload, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("analysis failed: %s", resp.Error)
	}

	fmt.Println(resp.FinalExplanation)
	fmt.Printf("\nChart: %s (%s)\n", resp.ChartTitle, resp.ChartType)
	fmt.Printf("SQL:\n%s\n", resp.SQLQuery)
	if len(resp.References) > 0 {
		fmt.Println("\nReferences:")
		for i, ref := range resp.References {
			fmt.Printf("  [%d] %s\n", i+1, ref)
		}
	}
	return nil
}

func post(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(data))
	}
	return json.Unmarshal(data, out)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
