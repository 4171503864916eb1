package query

import (
	"sort"
	"strings"
)

// minSuggestScore is the similarity threshold (0-100) for a suggestion.
const minSuggestScore = 50

type suggestion struct {
	name  string
	score int
	index int
}

// Suggest returns up to limit set names that look like text, best first.
// It is used to enrich "no results" replies.
func (e *Engine) Suggest(text string, limit int) []string {
	query := strings.ToLower(strings.TrimSpace(text))
	if query == "" {
		return nil
	}

	var found []suggestion
	for i, name := range e.index.Names() {
		score := similarity(query, strings.ToLower(name))
		if score >= minSuggestScore {
			found = append(found, suggestion{name: name, score: score, index: i})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].score != found[j].score {
			return found[i].score > found[j].score
		}
		return found[i].index < found[j].index
	})

	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	out := make([]string, len(found))
	for i, s := range found {
		out[i] = s.name
	}
	return out
}

// similarity scores query against target from 0 to 100. Every query word is
// compared with the closest word of the target and the scores are averaged.
func similarity(query, target string) int {
	qWords := strings.Fields(query)
	tWords := strings.Fields(target)
	if len(qWords) == 0 || len(tWords) == 0 {
		return 0
	}

	total := 0
	for _, q := range qWords {
		best := 0
		for _, w := range tWords {
			if s := wordScore(q, w); s > best {
				best = s
			}
		}
		total += best
	}
	return total / len(qWords)
}

func wordScore(q, w string) int {
	if q == w {
		return 100
	}
	if strings.HasPrefix(w, q) {
		return 90
	}
	maxLen := max(len(q), len(w))
	return 100 - levenshtein(q, w)*100/maxLen
}

// levenshtein returns the edit distance between a and b.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}

	return prev[len(b)]
}
