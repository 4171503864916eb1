package armor

import (
	"fmt"
	"log/slog"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
)

// DuplicatePolicy decides what happens when two records share a set name and
// piece type.
type DuplicatePolicy int

const (
	// LastWriteWins keeps the later record's detail. Totals still include both.
	LastWriteWins DuplicatePolicy = iota
	// RejectDuplicates fails aggregation with a DuplicatePieceError.
	RejectDuplicates
)

func (p DuplicatePolicy) String() string {
	switch p {
	case LastWriteWins:
		return "last-write-wins"
	case RejectDuplicates:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseDuplicatePolicy parses a policy name as used in configuration.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "last-write-wins":
		return LastWriteWins, nil
	case "reject":
		return RejectDuplicates, nil
	default:
		return LastWriteWins, fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// DuplicatePieceError reports a second record for an already filled slot.
type DuplicatePieceError struct {
	Set      string
	Piece    mhw.PieceType
	Existing string
	Incoming string
}

func (e *DuplicatePieceError) Error() string {
	return fmt.Sprintf("set %q already has a %s piece (%s), got %s",
		e.Set, e.Piece, e.Existing, e.Incoming)
}

// AggregateOptions configures Aggregate.
type AggregateOptions struct {
	Duplicates DuplicatePolicy
	Logger     *slog.Logger
}

// Aggregate folds piece records into per-set aggregates, in input order.
func Aggregate(pieces []mhw.PieceRecord, opts AggregateOptions) (*SetIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	idx := NewSetIndex()
	for i, p := range pieces {
		if p.ArmorSet.Name == "" {
			return nil, fmt.Errorf("piece %d (%q): missing armor set name", i, p.Name)
		}
		if p.Type == "" {
			return nil, fmt.Errorf("piece %d (%q): missing piece type", i, p.Name)
		}

		set := idx.Get(p.ArmorSet.Name)
		if set == nil {
			set = mhw.NewArmorSet(p.ArmorSet.Name, p.ArmorSet.Rank)
			idx.put(set)
		}

		if err := fold(set, p, opts.Duplicates, logger); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// fold merges one piece into its set.
func fold(set *mhw.ArmorSet, p mhw.PieceRecord, policy DuplicatePolicy, logger *slog.Logger) error {
	detail := p.Normalize()

	if prev, ok := set.Details[p.Type]; ok {
		if policy == RejectDuplicates {
			return &DuplicatePieceError{
				Set:      set.Name,
				Piece:    p.Type,
				Existing: prev.Name,
				Incoming: detail.Name,
			}
		}
		logger.Warn("Duplicate piece in set, keeping the later one",
			"set", set.Name,
			"piece", p.Type,
			"replaced", prev.Name,
			"kept", detail.Name)
	} else {
		set.Pieces = append(set.Pieces, p.Type)
	}
	set.Details[p.Type] = detail

	set.Defense.Add(detail.Defense)
	set.Resistances.Add(detail.Resistances)
	set.Materials = foldMaterials(set.Materials, detail.Materials)
	set.Skills = foldSkills(set.Skills, detail.Skills)

	return nil
}

func foldMaterials(dst, src []mhw.Material) []mhw.Material {
	for _, m := range src {
		found := false
		for i := range dst {
			if dst[i].Item == m.Item {
				dst[i].Quantity += m.Quantity
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, m)
		}
	}
	return dst
}

func foldSkills(dst, src []mhw.Skill) []mhw.Skill {
	for _, s := range src {
		found := false
		for i := range dst {
			if dst[i].Name == s.Name {
				dst[i].Level += s.Level
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
