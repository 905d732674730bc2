// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the value types shared across the snowball pipeline.
package types

// Author identifies a paper author by OpenAlex author ID and display name.
type Author struct {
	// ID is the short OpenAlex author ID (e.g. "A5023888391").
	ID string `json:"id" yaml:"id"`

	// DisplayName is the author's name as reported by the provider.
	DisplayName string `json:"display_name" yaml:"display_name"`
}

// YearCount is the citation count a work received in a single year.
type YearCount struct {
	Year    int `json:"year" yaml:"year"`
	CitedBy int `json:"cited_by_count" yaml:"cited_by_count"`
}

// Work is the canonical representation of a candidate paper as returned by
// the bibliographic provider. Provider-specific payload shapes are
// normalized into this type at the client boundary; nothing above the
// client ever sees raw API responses.
//
// A Work is ephemeral: it exists only during a collection cycle and becomes
// a Paper when admitted to a project.
type Work struct {
	// ID is the short OpenAlex work ID (e.g. "W2741809807").
	ID string `json:"id" yaml:"id"`

	// DOI is the bare DOI without the https://doi.org/ prefix, if known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	Title string `json:"title" yaml:"title"`

	// Authors lists authors in source order.
	Authors []Author `json:"authors" yaml:"authors"`

	// PublicationYear is 0 when the provider reports no year.
	PublicationYear int `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`

	// Type is the provider document type (journal-article, review, ...).
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Language is an ISO 639-1 code, empty when unreported.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	IsRetracted bool `json:"is_retracted,omitempty" yaml:"is_retracted,omitempty"`

	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// CitedByCount is the total citation count.
	CitedByCount int `json:"cited_by_count" yaml:"cited_by_count"`

	// CountsByYear holds per-year citation counts, most recent first.
	CountsByYear []YearCount `json:"counts_by_year,omitempty" yaml:"counts_by_year,omitempty"`

	// ReferencedWorks lists short OpenAlex IDs of works this work cites.
	ReferencedWorks []string `json:"referenced_works,omitempty" yaml:"referenced_works,omitempty"`

	// OpenAccessURL is a direct PDF URL when the provider reports one.
	OpenAccessURL string `json:"open_access_url,omitempty" yaml:"open_access_url,omitempty"`
}

// AuthorIDs returns the OpenAlex author IDs in source order, skipping
// authors the provider returned without an ID.
func (w Work) AuthorIDs() []string {
	ids := make([]string, 0, len(w.Authors))
	for _, a := range w.Authors {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
