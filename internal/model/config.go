package model

import "time"

// Config is the full runtime configuration. Everything the
// transformation stages consult (the target role label, the correction
// table, the rename map, strip tokens, row exclusions, the party
// display mapping) lives here as data, adjustable without touching the
// transformation code.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Tenure      TenureConfig      `yaml:"tenure" mapstructure:"tenure"`
	Polls       PollsConfig       `yaml:"polls" mapstructure:"polls"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
}

// HTTPConfig controls the fetch boundary.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RatePerSec   float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst    int           `yaml:"rate_burst" mapstructure:"rate_burst"`
	CheckRobots  bool          `yaml:"check_robots" mapstructure:"check_robots"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// CacheConfig controls raw payload caching between runs.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig sizes the per-entity worker pool.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// Correction is one entry of the manual override table: a replacement
// date for a field of a named entity known a priori to be defective in
// the source. Reason documents why the entry exists; the table is
// versioned with the pipeline, never inferred from the data.
type Correction struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Field  string `yaml:"field" mapstructure:"field"`
	Date   string `yaml:"date" mapstructure:"date"`
	Reason string `yaml:"reason" mapstructure:"reason"`
}

// TenureConfig configures the nested-record sub-pipeline.
type TenureConfig struct {
	SourceURL   string       `yaml:"source_url" mapstructure:"source_url"`
	RoleLabel   string       `yaml:"role_label" mapstructure:"role_label"`
	Corrections []Correction `yaml:"corrections" mapstructure:"corrections"`
}

// StripRule is one ordered decoration-removal rule applied to a raw
// numeric cell before parsing. When Regex is true, Pattern is a
// regular expression; otherwise it is a literal substring.
type StripRule struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Replace string `yaml:"replace" mapstructure:"replace"`
	Regex   bool   `yaml:"regex" mapstructure:"regex"`
}

// PartyColumn maps one wide numeric column to its display label and
// fixed legend rank for the long-form pivot.
type PartyColumn struct {
	Column string `yaml:"column" mapstructure:"column"`
	Label  string `yaml:"label" mapstructure:"label"`
	Rank   int    `yaml:"rank" mapstructure:"rank"`
}

// PollsConfig configures the tabular sub-pipeline. Renames maps
// verbatim source header text (footnote markup included) to canonical
// field names; headers absent from the map are dropped. ExcludeRows
// is positional and source-specific. StripRules apply to numeric
// cells only; DateStripRules apply to the date cell, which must keep
// its commas for the month-day-year layout.
type PollsConfig struct {
	SourceURL      string            `yaml:"source_url" mapstructure:"source_url"`
	TableIndex     int               `yaml:"table_index" mapstructure:"table_index"`
	KeyField       string            `yaml:"key_field" mapstructure:"key_field"`
	DateField      string            `yaml:"date_field" mapstructure:"date_field"`
	DateLayout     string            `yaml:"date_layout" mapstructure:"date_layout"`
	Renames        map[string]string `yaml:"renames" mapstructure:"renames"`
	NumericFields  []string          `yaml:"numeric_fields" mapstructure:"numeric_fields"`
	StripRules     []StripRule       `yaml:"strip_rules" mapstructure:"strip_rules"`
	DateStripRules []StripRule       `yaml:"date_strip_rules" mapstructure:"date_strip_rules"`
	ExcludeRows    []int             `yaml:"exclude_rows" mapstructure:"exclude_rows"`
	Parties        []PartyColumn     `yaml:"parties" mapstructure:"parties"`
}

// LLMConfig configures the optional audit commentary. Disabled unless
// a provider is set; the commentary never alters the output tables.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"-"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig returns the built-in configuration, including the
// source-specific tables for the Canadian prime-minister dataset and
// the federal polling wikitable this tool was written against.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      2 * time.Minute,
			UserAgent:    "mandat/0.3 (+https://github.com/adurocher/mandat)",
			MaxBodyBytes: 4_000_000,
			RatePerSec:   1,
			RateBurst:    2,
			CheckRobots:  true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Tenure: TenureConfig{
			RoleLabel: "Premier ministre du Canada",
			Corrections: []Correction{
				{
					Name:   "Justin Trudeau",
					Field:  "end_date",
					Date:   "2025-03-14",
					Reason: "end date null in source (still in office at collection); resignation announced, transition date known in advance",
				},
				{
					Name:   "Charles Tupper",
					Field:  "start_date",
					Date:   "1896-05-01",
					Reason: "source records the dissolution date instead of the swearing-in date for the shortest term on record",
				},
			},
		},
		Polls: PollsConfig{
			TableIndex: 0,
			KeyField:   "firm",
			DateField:  "end_date",
			DateLayout: "January 2, 2006",
			Renames: map[string]string{
				"Polling firm":           "firm",
				"Last dateof polling[a]": "end_date",
				"CPC":                    "pred_cpc",
				"LPC":                    "pred_lpc",
				"NDP":                    "pred_ndp",
				"BQ":                     "pred_bq",
				"PPC":                    "pred_ppc",
				"GPC":                    "pred_gpc",
				"Samplesize[b]":          "sample_size",
				"Marginof error[c]":      "moe",
				"Lead[d]":                "lead",
			},
			NumericFields: []string{
				"pred_cpc", "pred_lpc", "pred_ndp", "pred_bq",
				"pred_ppc", "pred_gpc", "sample_size", "moe", "lead",
			},
			// Positional: the header repeat after the caption row and
			// the election-result marker rows in this source.
			ExcludeRows: []int{1, 235, 236},
			StripRules: []StripRule{
				{Pattern: `\[[a-z0-9]+\]`, Replace: "", Regex: true},
				{Pattern: "±", Replace: ""},
				{Pattern: "%", Replace: ""},
				{Pattern: " pp", Replace: ""},
				{Pattern: "pp", Replace: ""},
				{Pattern: ",", Replace: ""},
			},
			DateStripRules: []StripRule{
				{Pattern: `\[[a-z0-9]+\]`, Replace: "", Regex: true},
			},
			Parties: []PartyColumn{
				{Column: "pred_lpc", Label: "Libéral", Rank: 1},
				{Column: "pred_cpc", Label: "Conservateur", Rank: 2},
				{Column: "pred_ndp", Label: "NPD", Rank: 3},
				{Column: "pred_bq", Label: "Bloc québécois", Rank: 4},
				{Column: "pred_gpc", Label: "Vert", Rank: 5},
				{Column: "pred_ppc", Label: "PPC", Rank: 6},
			},
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 600,
		},
	}
}
