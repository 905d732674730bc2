package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citation-snowball/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OpenAlexConfig holds settings for the OpenAlex client.
type OpenAlexConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent as the mailto parameter for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// APIKey is an optional OpenAlex premium key. When both Email and
	// APIKey are set, APIKey wins.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestsPerSecond caps the request rate (default 10, the OpenAlex
	// polite pool limit).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// MaxRetries bounds retry attempts on rate-limited responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// CacheTTLDays enables response caching when > 0.
	CacheTTLDays int `json:"cache_ttl_days" yaml:"cache_ttl_days"`
}

// IterationMode controls how the engine decides to run the next iteration.
type IterationMode string

const (
	ModeAutomatic     IterationMode = "automatic"
	ModeSemiAutomatic IterationMode = "semi-automatic"
	ModeManual        IterationMode = "manual"
	ModeFixed         IterationMode = "fixed"
)

// SelectionStrategy names a candidate selection policy.
type SelectionStrategy string

const (
	// SelectTopK admits the highest-scoring candidates, bounded by
	// PapersPerIteration.
	SelectTopK SelectionStrategy = "top-k"

	// SelectProvenance admits candidates referenced or cited by at least
	// two distinct working-set members.
	SelectProvenance SelectionStrategy = "provenance-threshold"
)

// ScoringWeights are the linear combination weights for the five score
// components. They need not sum to 1; the resulting total is a relative
// rank only.
type ScoringWeights struct {
	CitationVelocity float64 `json:"citation_velocity" yaml:"citation_velocity"`
	RecentCitations  float64 `json:"recent_citations" yaml:"recent_citations"`
	Foundational     float64 `json:"foundational" yaml:"foundational"`
	AuthorOverlap    float64 `json:"author_overlap" yaml:"author_overlap"`
	Recency          float64 `json:"recency" yaml:"recency"`
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		CitationVelocity: 0.25,
		RecentCitations:  0.20,
		Foundational:     0.25,
		AuthorOverlap:    0.15,
		Recency:          0.15,
	}
}

// ProjectConfig holds the user-configurable settings for one project.
// Immutable during a run; CLI overrides are applied once at startup.
type ProjectConfig struct {
	Weights ScoringWeights `json:"weights" yaml:"weights"`

	// Filtering.
	MinYear          int      `json:"min_year,omitempty" yaml:"min_year,omitempty"`
	MaxYear          int      `json:"max_year,omitempty" yaml:"max_year,omitempty"`
	MinCitations     int      `json:"min_citations" yaml:"min_citations"`
	IncludePreprints bool     `json:"include_preprints" yaml:"include_preprints"`
	Language         string   `json:"language" yaml:"language"`
	IncludeKeywords  []string `json:"include_keywords,omitempty" yaml:"include_keywords,omitempty"`

	// Iteration control.
	IterationMode      IterationMode     `json:"iteration_mode" yaml:"iteration_mode"`
	MaxIterations      int               `json:"max_iterations" yaml:"max_iterations"`
	MaxPapers          int               `json:"max_papers" yaml:"max_papers"`
	PapersPerIteration int               `json:"papers_per_iteration" yaml:"papers_per_iteration"`
	GrowthThreshold    float64           `json:"growth_threshold" yaml:"growth_threshold"`
	NoveltyThreshold   float64           `json:"novelty_threshold" yaml:"novelty_threshold"`
	Selection          SelectionStrategy `json:"selection_strategy" yaml:"selection_strategy"`

	// Collection bounds.
	CollectAuthorWorks bool `json:"collect_author_works" yaml:"collect_author_works"`

	// Download settings.
	DownloadDirectory string `json:"download_directory" yaml:"download_directory"`
}

// DefaultProjectConfig returns a ProjectConfig with the standard defaults.
func DefaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Weights:            DefaultWeights(),
		MinCitations:       0,
		IncludePreprints:   true,
		Language:           "en",
		IterationMode:      ModeAutomatic,
		MaxIterations:      5,
		MaxPapers:          500,
		PapersPerIteration: 50,
		GrowthThreshold:    0.05,
		NoveltyThreshold:   0.10,
		Selection:          SelectTopK,
		CollectAuthorWorks: true,
		DownloadDirectory:  "downloads",
	}
}
