// Package query resolves free-text set queries against aggregated armor sets.
package query

import (
	"strings"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/armor"
)

// SetResult is the projection of a matched armor set.
type SetResult struct {
	Name        string          `json:"name"`
	Rank        mhw.Rank        `json:"rank"`
	Defense     mhw.Defense     `json:"defense"`
	Resistances mhw.Resistances `json:"resistances"`
	Skills      []mhw.Skill     `json:"skills"`
	Pieces      []string        `json:"pieces"`
	Materials   []mhw.Material  `json:"materials"`
}

// PieceResult is a single piece of a matched set.
type PieceResult struct {
	SetName string          `json:"set_name"`
	Type    mhw.PieceType   `json:"type"`
	Detail  mhw.PieceDetail `json:"detail"`
}

// Engine answers set and piece queries over an immutable set index.
type Engine struct {
	index *armor.SetIndex
}

// NewEngine creates an engine over idx.
func NewEngine(idx *armor.SetIndex) *Engine {
	if idx == nil {
		idx = armor.NewSetIndex()
	}
	return &Engine{index: idx}
}

// FindSets returns every set whose name contains all tokens of text and whose
// rank passes the filter, in index order. An empty result is reported as a
// *mhw.NoResultsError.
func (e *Engine) FindSets(text string, rank mhw.Rank) ([]SetResult, error) {
	m := newMatcher(text, rank)

	var results []SetResult
	e.index.Each(func(set *mhw.ArmorSet) bool {
		if m.match(set) {
			results = append(results, project(set))
		}
		return true
	})

	if len(results) == 0 {
		return nil, &mhw.NoResultsError{Query: text, Rank: rank}
	}
	return results, nil
}

// FindPieces returns the given piece of every matching set. Sets without that
// piece are skipped.
func (e *Engine) FindPieces(text string, piece mhw.PieceType, rank mhw.Rank) ([]PieceResult, error) {
	piece = mhw.PieceType(strings.ToLower(string(piece)))
	m := newMatcher(text, rank)

	var results []PieceResult
	e.index.Each(func(set *mhw.ArmorSet) bool {
		if !m.match(set) {
			return true
		}
		if detail, ok := set.Details[piece]; ok {
			results = append(results, PieceResult{
				SetName: set.Name,
				Type:    piece,
				Detail:  detail,
			})
		}
		return true
	})

	if len(results) == 0 {
		return nil, &mhw.NoResultsError{Query: text, Piece: piece, Rank: rank}
	}
	return results, nil
}

// Len returns the number of sets the engine searches.
func (e *Engine) Len() int {
	return e.index.Len()
}

// matcher holds a tokenized query.
type matcher struct {
	tokens []string
	rank   mhw.Rank
}

func newMatcher(text string, rank mhw.Rank) matcher {
	return matcher{
		tokens: strings.Fields(strings.ToLower(text)),
		rank:   rank,
	}
}

func (m matcher) match(set *mhw.ArmorSet) bool {
	if !m.rank.Matches(set.Rank) {
		return false
	}
	name := strings.ToLower(set.Name)
	for _, tok := range m.tokens {
		if !strings.Contains(name, tok) {
			return false
		}
	}
	return true
}

func project(set *mhw.ArmorSet) SetResult {
	return SetResult{
		Name:        set.Name,
		Rank:        set.Rank,
		Defense:     set.Defense,
		Resistances: set.Resistances,
		Skills:      append([]mhw.Skill(nil), set.Skills...),
		Pieces:      set.PieceNames(),
		Materials:   append([]mhw.Material(nil), set.Materials...),
	}
}
