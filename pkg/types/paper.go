// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DiscoveryMethod records how a paper entered the collection.
type DiscoveryMethod string

const (
	DiscoverySeed     DiscoveryMethod = "seed"
	DiscoveryForward  DiscoveryMethod = "forward"  // found among works citing a source paper
	DiscoveryBackward DiscoveryMethod = "backward" // found among a source paper's references
	DiscoveryAuthor   DiscoveryMethod = "author"
	DiscoveryRelated  DiscoveryMethod = "related" // met the provenance threshold on both citation directions
)

// Priority orders discovery methods for conflict resolution when the same
// work is found through more than one channel. Higher wins; seed is never
// overridden once assigned.
func (m DiscoveryMethod) Priority() int {
	switch m {
	case DiscoveryAuthor:
		return 3
	case DiscoveryForward:
		return 2
	case DiscoveryBackward, DiscoveryRelated:
		return 1
	default:
		return 0
	}
}

// DownloadStatus is the PDF download state for a collected paper.
type DownloadStatus string

const (
	DownloadPending DownloadStatus = "pending"
	DownloadSuccess DownloadStatus = "success"
	DownloadFailed  DownloadStatus = "failed"
	DownloadSkipped DownloadStatus = "skipped"
)

// ScoreBreakdown holds the individual relevance score components alongside
// the weighted total. Components are each normalized to roughly [0,1]; the
// total is a relative rank, not a probability.
type ScoreBreakdown struct {
	CitationVelocity float64 `json:"citation_velocity" yaml:"citation_velocity"`
	RecentCitations  float64 `json:"recent_citations" yaml:"recent_citations"`
	Foundational     float64 `json:"foundational_score" yaml:"foundational_score"`
	AuthorOverlap    float64 `json:"author_overlap" yaml:"author_overlap"`
	RecencyBonus     float64 `json:"recency_bonus" yaml:"recency_bonus"`
	Total            float64 `json:"total" yaml:"total"`
}

// Paper is a work admitted to a project's collection, with discovery
// provenance and scoring attached. The OpenAlex ID is unique within a
// project; the store enforces this with an idempotent insert-or-get.
type Paper struct {
	// ID is an internal row UUID.
	ID string `json:"id" yaml:"id"`

	// OpenAlexID is the short OpenAlex work ID, the project-level key.
	OpenAlexID string `json:"openalex_id" yaml:"openalex_id"`

	DOI   string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Title string `json:"title" yaml:"title"`

	Authors []Author `json:"authors" yaml:"authors"`

	PublicationYear int    `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	Type            string `json:"type,omitempty" yaml:"type,omitempty"`
	Language        string `json:"language,omitempty" yaml:"language,omitempty"`
	Abstract        string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	CitedByCount    int         `json:"cited_by_count" yaml:"cited_by_count"`
	CountsByYear    []YearCount `json:"counts_by_year,omitempty" yaml:"counts_by_year,omitempty"`
	ReferencedWorks []string    `json:"referenced_works,omitempty" yaml:"referenced_works,omitempty"`

	// Score is the composite relevance score at admission time.
	Score           float64         `json:"score" yaml:"score"`
	ScoreComponents *ScoreBreakdown `json:"score_components,omitempty" yaml:"score_components,omitempty"`

	// DiscoveryMethod and DiscoveredFrom record provenance. Seed papers
	// have IterationAdded 0 and an empty source set.
	DiscoveryMethod DiscoveryMethod `json:"discovery_method" yaml:"discovery_method"`
	DiscoveredFrom  []string        `json:"discovered_from,omitempty" yaml:"discovered_from,omitempty"`
	IterationAdded  int             `json:"iteration_added" yaml:"iteration_added"`

	DownloadStatus DownloadStatus `json:"download_status" yaml:"download_status"`

	// LocalPath is the downloaded PDF location, empty until downloaded.
	LocalPath string `json:"local_path,omitempty" yaml:"local_path,omitempty"`

	// OpenAccessURL is the provider-reported PDF URL, if any.
	OpenAccessURL string `json:"open_access_url,omitempty" yaml:"open_access_url,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// FromWork builds a Paper from a canonical Work. Discovery provenance and
// iteration number are filled in by the engine before persistence.
func FromWork(w Work) Paper {
	return Paper{
		OpenAlexID:      w.ID,
		DOI:             w.DOI,
		Title:           w.Title,
		Authors:         w.Authors,
		PublicationYear: w.PublicationYear,
		Type:            w.Type,
		Language:        w.Language,
		Abstract:        w.Abstract,
		CitedByCount:    w.CitedByCount,
		CountsByYear:    w.CountsByYear,
		ReferencedWorks: w.ReferencedWorks,
		OpenAccessURL:   w.OpenAccessURL,
		DiscoveryMethod: DiscoverySeed,
		DownloadStatus:  DownloadPending,
	}
}
