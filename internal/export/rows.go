package export

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/armor"
)

// SetRow is one aggregated set flattened for tabular output.
type SetRow struct {
	Name        string
	Rank        mhw.Rank
	Pieces      []string
	Defense     mhw.Defense
	Resistances mhw.Resistances
	Skills      []mhw.Skill
	Materials   []mhw.Material
}

// PieceRow is one piece of a set flattened for tabular output.
type PieceRow struct {
	Set    string
	Type   mhw.PieceType
	Detail mhw.PieceDetail
}

var setHeaders = []string{
	"Set", "Rank", "Pieces",
	"Defense (base)", "Defense (max)", "Defense (augmented)",
	"Fire", "Water", "Ice", "Thunder", "Dragon",
	"Skills", "Materials",
}

var pieceHeaders = []string{
	"Set", "Type", "Name", "Rank", "Rarity",
	"Defense (base)", "Defense (max)", "Defense (augmented)",
	"Fire", "Water", "Ice", "Thunder", "Dragon",
	"Slots", "Skills", "Materials",
}

// Rows flattens idx in index order.
func Rows(idx *armor.SetIndex) ([]SetRow, []PieceRow) {
	sets := make([]SetRow, 0, idx.Len())
	var pieces []PieceRow

	idx.Each(func(s *mhw.ArmorSet) bool {
		sets = append(sets, SetRow{
			Name:        s.Name,
			Rank:        s.Rank,
			Pieces:      s.PieceNames(),
			Defense:     s.Defense,
			Resistances: s.Resistances,
			Skills:      s.Skills,
			Materials:   s.Materials,
		})
		for _, t := range s.Pieces {
			pieces = append(pieces, PieceRow{Set: s.Name, Type: t, Detail: s.Details[t]})
		}
		return true
	})
	return sets, pieces
}

func (r SetRow) cells() []interface{} {
	return []interface{}{
		r.Name, string(r.Rank), strings.Join(r.Pieces, ", "),
		r.Defense.Base, r.Defense.Max, r.Defense.Augmented,
		r.Resistances.Fire, r.Resistances.Water, r.Resistances.Ice, r.Resistances.Thunder, r.Resistances.Dragon,
		joinSkills(r.Skills), joinMaterials(r.Materials),
	}
}

func (r PieceRow) cells() []interface{} {
	d := r.Detail
	return []interface{}{
		r.Set, string(r.Type), d.Name, string(d.Rank), d.Rarity,
		d.Defense.Base, d.Defense.Max, d.Defense.Augmented,
		d.Resistances.Fire, d.Resistances.Water, d.Resistances.Ice, d.Resistances.Thunder, d.Resistances.Dragon,
		joinSlots(d.Slots), joinSkills(d.Skills), joinMaterials(d.Materials),
	}
}

func joinSkills(skills []mhw.Skill) string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		out = append(out, fmt.Sprintf("%s %d", s.Name, s.Level))
	}
	return strings.Join(out, "; ")
}

func joinMaterials(mats []mhw.Material) string {
	out := make([]string, 0, len(mats))
	for _, m := range mats {
		out = append(out, fmt.Sprintf("%s x%d", m.Item, m.Quantity))
	}
	return strings.Join(out, "; ")
}

func joinSlots(slots []mhw.Slot) string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, fmt.Sprint(s.Rank))
	}
	return strings.Join(out, ", ")
}

func stringCells(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fmt.Sprint(c)
	}
	return out
}
