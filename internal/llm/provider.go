// Package llm generates an optional natural-language commentary on
// the run's data-quality audit. The commentary is produced after the
// output tables are final and never alters them.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/model"
)

// Provider is one LLM backend.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)
}

// Digest is the run summary handed to the provider: table sizes plus
// the audit report. The provider sees aggregates and issue identities,
// never the raw payloads.
type Digest struct {
	Entities     int
	DerivedRows  int
	TidyRows     int
	LongRows     int
	MeanDuration *float64
	Audit        audit.Report
}

// SummarizeRequest is the provider input.
type SummarizeRequest struct {
	Digest    Digest
	Prompt    string // optional custom prompt
	Model     string
	MaxTokens int
}

// SummarizeResponse is the provider output.
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   int // seconds
	MaxTokens int
}

// ConfigFromModel converts the runtime configuration section.
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		MaxTokens: c.MaxTokens,
	}
}

// NewProvider creates a provider from configuration. An empty provider
// name disables commentary. An OpenAI-compatible BaseURL covers local
// runtimes as well.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", config.Provider)
	}
}

// BuildPrompt constructs the default audit-commentary prompt.
func BuildPrompt(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are commenting on the data-quality audit of a batch extraction run. The output tables are already final; describe data quality only, do not suggest altering values.

Run summary:
- Entities processed: %d
- Tenure rows emitted: %d
- Poll observations (tidy): %d
- Poll observations (long): %d
`, d.Entities, d.DerivedRows, d.TidyRows, d.LongRows)

	if d.MeanDuration != nil {
		fmt.Fprintf(&b, "- Mean duration in office: %.2f years (open terms excluded)\n", *d.MeanDuration)
	}

	fmt.Fprintf(&b, "\nAudit: %d issues total\n", d.Audit.Total)
	for _, kind := range []audit.Kind{
		audit.KindExtractionMiss, audit.KindDateParse,
		audit.KindNumericCoercion, audit.KindStructuralRow,
		audit.KindMetricViolation,
	} {
		if n := d.Audit.ByKind[kind]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", kind, n)
		}
	}
	for i, issue := range d.Audit.Issues {
		if i >= 20 {
			fmt.Fprintf(&b, "... and %d more issues\n", d.Audit.Total-20)
			break
		}
		fmt.Fprintf(&b, "  %s\n", issue)
	}

	b.WriteString("\nProvide a 3-4 sentence assessment of data quality: which records need attention and whether the run is usable as-is.")
	return b.String()
}
