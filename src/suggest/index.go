package suggest

import (
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/sajari/fuzzy"
)

// DefaultDistance is the maximum edit distance of a suggestion.
const DefaultDistance = 2

const maxSuggestions = 3

// Checker validates an id and returns replacement candidates.
type Checker interface {
	Check(id string) (bool, []string)
}

// Index is a dictionary of known ids backed by a fuzzy model.
type Index struct {
	known    map[string]struct{}
	model    *fuzzy.Model
	distance int
}

// NewIndex trains an index on ids. A non-positive distance selects
// DefaultDistance.
func NewIndex(ids []string, distance int) *Index {
	if distance <= 0 {
		distance = DefaultDistance
	}
	model := fuzzy.NewModel()
	model.SetThreshold(1)
	model.SetDepth(distance)
	model.SetUseAutocomplete(false)

	idx := &Index{known: map[string]struct{}{}, model: model, distance: distance}
	for _, id := range ids {
		if _, ok := idx.known[id]; ok || id == "" {
			continue
		}
		idx.known[id] = struct{}{}
		model.TrainWord(id)
	}
	return idx
}

// Len returns the number of distinct ids.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.known)
}

// Check reports whether id is known and, if not, the closest known ids.
func (i *Index) Check(id string) (bool, []string) {
	if i == nil {
		return true, nil
	}
	if _, ok := i.known[id]; ok {
		return true, nil
	}
	return false, i.Suggest(id)
}

// Suggest returns up to three known ids within the edit distance of id,
// closest first and alphabetical within a distance.
func (i *Index) Suggest(id string) []string {
	if i == nil || id == "" {
		return nil
	}
	type candidate struct {
		id   string
		dist int
	}
	var candidates []candidate
	seen := map[string]bool{}
	for _, term := range i.model.Suggestions(id, true) {
		if seen[term] {
			continue
		}
		seen[term] = true
		if _, ok := i.known[term]; !ok {
			continue
		}
		dist := levenshtein.ComputeDistance(id, term)
		if dist <= i.distance {
			candidates = append(candidates, candidate{id: term, dist: dist})
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].dist == candidates[b].dist {
			return candidates[a].id < candidates[b].id
		}
		return candidates[a].dist < candidates[b].dist
	})
	limit := maxSuggestions
	if len(candidates) < limit {
		limit = len(candidates)
	}
	result := make([]string, 0, limit)
	for _, c := range candidates[:limit] {
		result = append(result, c.id)
	}
	return result
}
