// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"sort"
	"strings"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

// CleanWorkID strips the https://openalex.org/ prefix, yielding the short
// id form (e.g. "W2741809807", "A5023888391").
func CleanWorkID(id string) string {
	return strings.TrimPrefix(id, "https://openalex.org/")
}

// CleanDOI strips the doi.org URL prefix, yielding the bare DOI.
func CleanDOI(doi string) string {
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	return strings.TrimPrefix(doi, "http://doi.org/")
}

// normalizeWork converts a raw OpenAlex payload into the canonical Work.
func normalizeWork(raw workJSON) types.Work {
	w := types.Work{
		ID:              CleanWorkID(raw.ID),
		DOI:             CleanDOI(raw.DOI),
		Title:           raw.Title,
		PublicationYear: raw.PublicationYear,
		Type:            raw.Type,
		Language:        raw.Language,
		IsRetracted:     raw.IsRetracted,
		CitedByCount:    raw.CitedByCount,
		Abstract:        reconstructAbstract(raw.AbstractInvertedIndex),
	}
	if w.Title == "" {
		w.Title = raw.DisplayName
	}

	for _, a := range raw.Authorships {
		if a.Author.DisplayName == "" && a.Author.ID == "" {
			continue
		}
		w.Authors = append(w.Authors, types.Author{
			ID:          CleanWorkID(a.Author.ID),
			DisplayName: a.Author.DisplayName,
		})
	}

	for _, ref := range raw.ReferencedWorks {
		w.ReferencedWorks = append(w.ReferencedWorks, CleanWorkID(ref))
	}

	for _, yc := range raw.CountsByYear {
		w.CountsByYear = append(w.CountsByYear, types.YearCount{
			Year:    yc.Year,
			CitedBy: yc.CitedByCount,
		})
	}

	if raw.BestOALocation.PDFURL != "" {
		w.OpenAccessURL = raw.BestOALocation.PDFURL
	} else if raw.PrimaryLocation.PDFURL != "" {
		w.OpenAccessURL = raw.PrimaryLocation.PDFURL
	} else if raw.OpenAccess.OAURL != "" {
		w.OpenAccessURL = raw.OpenAccess.OAURL
	}

	return w
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type worksResponseJSON struct {
	Meta    metaJSON   `json:"meta"`
	Results []workJSON `json:"results"`
}

type metaJSON struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type workJSON struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	PublicationDate       string           `json:"publication_date"`
	Type                  string           `json:"type"`
	Language              string           `json:"language"`
	IsRetracted           bool             `json:"is_retracted"`
	CitedByCount          int              `json:"cited_by_count"`
	CountsByYear          []yearCountJSON  `json:"counts_by_year"`
	ReferencedWorks       []string         `json:"referenced_works"`
	Authorships           []authorshipJSON `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	OpenAccess            openAccessJSON   `json:"open_access"`
	BestOALocation        locationJSON     `json:"best_oa_location"`
	PrimaryLocation       locationJSON     `json:"primary_location"`
}

type yearCountJSON struct {
	Year         int `json:"year"`
	CitedByCount int `json:"cited_by_count"`
}

type authorshipJSON struct {
	Author authorJSON `json:"author"`
}

type authorJSON struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAccessJSON struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

type locationJSON struct {
	IsOA   bool   `json:"is_oa"`
	PDFURL string `json:"pdf_url"`
}
