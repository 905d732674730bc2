// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"fmt"
	"strings"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

// allowedTypes is the set of document types a candidate may carry.
var allowedTypes = map[string]struct{}{
	"journal-article": {},
	"article":         {},
	"review":          {},
	"preprint":        {},
	"posted-content":  {},
	"book":            {},
	"book-chapter":    {},
}

func isPreprintType(t string) bool {
	return t == "preprint" || t == "posted-content"
}

// Filter decides whether a candidate work may enter the collection. Both
// checks are pure: same input, same answer, no side effects.
type Filter struct {
	cfg types.ProjectConfig
}

func NewFilter(cfg types.ProjectConfig) *Filter {
	return &Filter{cfg: cfg}
}

// ShouldInclude applies the project's inclusion criteria. A missing
// publication year skips the year-range check, and a missing language skips
// the language check; a retracted work is always rejected.
func (f *Filter) ShouldInclude(w types.Work) bool {
	if w.IsRetracted {
		return false
	}
	if w.PublicationYear > 0 {
		if f.cfg.MinYear > 0 && w.PublicationYear < f.cfg.MinYear {
			return false
		}
		if f.cfg.MaxYear > 0 && w.PublicationYear > f.cfg.MaxYear {
			return false
		}
	}
	if _, ok := allowedTypes[w.Type]; !ok {
		return false
	}
	if !f.cfg.IncludePreprints && isPreprintType(w.Type) {
		return false
	}
	if w.CitedByCount < f.cfg.MinCitations {
		return false
	}
	if f.cfg.Language != "" && w.Language != "" && w.Language != f.cfg.Language {
		return false
	}
	return f.matchesKeywords(w)
}

// ShouldExclude reports whether the work is already in the project's corpus.
func (f *Filter) ShouldExclude(w types.Work, existingIDs map[string]struct{}) (bool, string) {
	if _, ok := existingIDs[w.ID]; ok {
		return true, fmt.Sprintf("work %s already collected", w.ID)
	}
	return false, ""
}

// matchesKeywords applies the optional keyword allow-list as a
// case-insensitive substring match on title or abstract. No keywords
// configured means every work matches.
func (f *Filter) matchesKeywords(w types.Work) bool {
	if len(f.cfg.IncludeKeywords) == 0 {
		return true
	}
	title := strings.ToLower(w.Title)
	abstract := strings.ToLower(w.Abstract)
	for _, kw := range f.cfg.IncludeKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(title, kw) || strings.Contains(abstract, kw) {
			return true
		}
	}
	return false
}
