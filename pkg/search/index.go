package search

import (
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rossesmond/src-bot/pkg/models"
)

// Match is one scored search result. Lower scores are better, following the
// ranking convention of the underlying fuzzy matcher.
type Match struct {
	Name  string
	Label string
	Score int
}

type entry struct {
	name  string
	label string
}

// Index holds one approximate-match class index per guild. It is rebuilt
// wholesale on every reconciliation pass and never updated incrementally.
type Index struct {
	mu     sync.RWMutex
	guilds map[string][]entry
}

func NewIndex() *Index {
	return &Index{guilds: make(map[string][]entry)}
}

// Rebuild replaces the index for a guild with the given classes.
func (ix *Index) Rebuild(guildID string, classes []models.Class) {
	entries := make([]entry, 0, len(classes))
	for _, c := range classes {
		entries = append(entries, entry{name: c.Name, label: c.Label})
	}
	ix.mu.Lock()
	ix.guilds[guildID] = entries
	ix.mu.Unlock()
}

// Ready reports whether the guild has been indexed at least once.
func (ix *Index) Ready(guildID string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.guilds[guildID]
	return ok
}

// Search ranks the query against every class's name and label and returns the
// matches sorted best-first. A class matches if the query approximately
// matches either field; its score is the better of the two distances.
func (ix *Index) Search(guildID, query string) []Match {
	ix.mu.RLock()
	entries := ix.guilds[guildID]
	ix.mu.RUnlock()

	matches := make([]Match, 0)
	for _, e := range entries {
		score := -1
		if d := fuzzy.RankMatchNormalizedFold(query, e.name); d >= 0 {
			score = d
		}
		if d := fuzzy.RankMatchNormalizedFold(query, e.label); d >= 0 && (score < 0 || d < score) {
			score = d
		}
		if score >= 0 {
			matches = append(matches, Match{Name: e.name, Label: e.label, Score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score < matches[j].Score
		}
		return matches[i].Name < matches[j].Name
	})
	return matches
}

// Quality filters matches to those within a multiplicative band of the best
// score. The configured band is loose enough that, in practice, every match
// survives; it exists to cut pathological outliers only.
func Quality(matches []Match, band float64) []Match {
	if len(matches) == 0 {
		return matches
	}
	best := float64(matches[0].Score)
	kept := make([]Match, 0, len(matches))
	for _, m := range matches {
		if best == 0 {
			kept = append(kept, m)
			continue
		}
		if float64(m.Score)/best < band {
			kept = append(kept, m)
		}
	}
	return kept
}
