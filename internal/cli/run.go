package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/model"
	"github.com/adurocher/mandat/internal/pipeline"
)

var (
	tenureURL   string
	pollsURL    string
	tenureCSV   string
	pollsCSV    string
	outJSON     string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	workers     int
	noCache     bool
	noRobots    bool
	renderLimit int
	llmEnabled  bool
	llmModel    string
	llmBaseURL  string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run both sub-pipelines and emit the tenure and polling tables",
	Long: `Run fetches both sources, derives the tenure table and the long-form
polling series, prints them with the data-quality audit, and writes
CSV/JSON outputs when paths are given.

Example:
  mandat run --tenure-url https://example.org/pm.json --polls-url https://en.wikipedia.org/wiki/Opinion_polling...
  mandat run --tenure-csv tenure.csv --polls-csv polls.csv --json run.json
  mandat run --llm --llm-model gpt-4o-mini`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipelines(cmd, true, true)
	},
}

// tenureCmd represents the tenure command
var tenureCmd = &cobra.Command{
	Use:   "tenure",
	Short: "Run only the nested-record pipeline (tenure table)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipelines(cmd, true, false)
	},
}

// pollsCmd represents the polls command
var pollsCmd = &cobra.Command{
	Use:   "polls",
	Short: "Run only the tabular pipeline (long-form polling series)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipelines(cmd, false, true)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tenureCmd)
	rootCmd.AddCommand(pollsCmd)

	for _, cmd := range []*cobra.Command{runCmd, tenureCmd, pollsCmd} {
		// Source flags
		cmd.Flags().StringVar(&tenureURL, "tenure-url", "", "URL of the nested person/role JSON payload")
		cmd.Flags().StringVar(&pollsURL, "polls-url", "", "URL of the wiki page carrying the polling table")

		// Output flags
		cmd.Flags().StringVar(&tenureCSV, "tenure-csv", "", "output CSV path for the tenure table")
		cmd.Flags().StringVar(&pollsCSV, "polls-csv", "", "output CSV path for the long-form polling series")
		cmd.Flags().StringVar(&outJSON, "json", "", "output JSON path for tables plus audit")
		cmd.Flags().IntVar(&renderLimit, "limit", 12, "max polling rows printed to the terminal (0 = all)")

		// HTTP flags
		cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall run timeout")
		cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent override")
		cmd.Flags().Int64Var(&maxBytes, "max-bytes", 4_000_000, "max response bytes to read")
		cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable payload cache (force fresh fetch)")
		cmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt check")
		cmd.Flags().IntVar(&workers, "workers", 4, "concurrent per-entity workers")

		// LLM flags
		cmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM audit commentary")
		cmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
		cmd.Flags().StringVar(&llmBaseURL, "llm-base-url", "", "OpenAI-compatible base URL (e.g. a local runtime)")
	}
}

// buildConfig assembles configuration: defaults, then config file and
// environment via viper, then any flags set on cmd.
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	if tenureURL != "" {
		cfg.Tenure.SourceURL = tenureURL
	}
	if pollsURL != "" {
		cfg.Polls.SourceURL = pollsURL
	}
	if cmd.Flags().Changed("timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if cmd.Flags().Changed("max-bytes") {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if noRobots {
		cfg.HTTP.CheckRobots = false
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	cfg.Output.Verbose = verbose

	if llmEnabled {
		cfg.LLM.Provider = "openai"
		cfg.LLM.Model = llmModel
		cfg.LLM.BaseURL = llmBaseURL
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" && llmBaseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = "unused" // local runtimes ignore the key
		}
	}
	return cfg, nil
}

func runPipelines(cmd *cobra.Command, withTenure, withPolls bool) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if withTenure && cfg.Tenure.SourceURL == "" {
		return fmt.Errorf("no tenure source: set --tenure-url or tenure.source_url in the config file")
	}
	if withPolls && cfg.Polls.SourceURL == "" {
		return fmt.Errorf("no polls source: set --polls-url or polls.source_url in the config file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Timeout)
	defer cancel()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	renderer := pipeline.NewRenderer(cfg.Output.Verbose)

	var tenure *pipeline.TenureResult
	var polls *pipeline.PollsResult
	var reports []audit.Report

	if withTenure {
		if verbose {
			fmt.Fprintf(os.Stderr, "Fetching tenure source: %s\n", cfg.Tenure.SourceURL)
		}
		tenure, err = p.RunTenure(ctx)
		if err != nil {
			return err
		}
		renderer.RenderTenure(os.Stdout, tenure.Rows)
		reports = append(reports, tenure.Audit)

		if tenureCSV != "" {
			if err := renderer.WriteTenureCSV(tenureCSV, tenure.Rows); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "Wrote %s\n", tenureCSV)
			}
		}
	}

	if withPolls {
		if verbose {
			fmt.Fprintf(os.Stderr, "Fetching polls source: %s\n", cfg.Polls.SourceURL)
		}
		polls, err = p.RunPolls(ctx)
		if err != nil {
			return err
		}
		renderer.RenderPolls(os.Stdout, polls.Long, renderLimit)
		reports = append(reports, polls.Audit)

		if pollsCSV != "" {
			if err := renderer.WritePollsCSV(pollsCSV, polls.Long); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "Wrote %s\n", pollsCSV)
			}
		}
	}

	renderer.RenderAudit(os.Stdout, audit.Merge(reports...))

	if outJSON != "" {
		out := runOutput{Audit: audit.Merge(reports...)}
		if tenure != nil {
			out.Tenure = tenure.Rows
		}
		if polls != nil {
			out.Polls = polls.Long
		}
		if err := renderer.WriteJSON(outJSON, out); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", outJSON)
		}
	}

	// Commentary comes last; it never affects the tables above.
	if commentary, err := p.Commentary(ctx, tenure, polls); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	} else if commentary != "" {
		fmt.Printf("\n%s\n", commentary)
	}

	return nil
}

type runOutput struct {
	Tenure any          `json:"tenure,omitempty"`
	Polls  any          `json:"polls,omitempty"`
	Audit  audit.Report `json:"audit"`
}
