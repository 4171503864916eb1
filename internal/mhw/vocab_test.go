package mhw

import (
	"errors"
	"testing"
)

func TestParseRank(t *testing.T) {
	tests := []struct {
		in      string
		want    Rank
		wantErr bool
	}{
		{"", RankAny, false},
		{"low", RankLow, false},
		{"LR", RankLow, false},
		{"High", RankHigh, false},
		{"hr", RankHigh, false},
		{"mr", RankMaster, false},
		{"g", RankAny, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRank(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRank(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRank(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRank_Matches(t *testing.T) {
	if !RankAny.Matches(RankLow) || !RankAny.Matches(RankHigh) {
		t.Error("RankAny should match every rank")
	}
	if RankHigh.Matches(RankLow) {
		t.Error("high filter matched a low set")
	}
	if !RankLow.Matches(RankLow) {
		t.Error("low filter did not match a low set")
	}
}

func TestParsePieceType(t *testing.T) {
	if got, ok := ParsePieceType("HEAD"); !ok || got != Head {
		t.Errorf("ParsePieceType(HEAD) = %q, %v", got, ok)
	}
	if _, ok := ParsePieceType("hat"); ok {
		t.Error("ParsePieceType(hat) should fail")
	}
}

func TestIsWeaponType(t *testing.T) {
	if !IsWeaponType("Switch-Axe") {
		t.Error("switch-axe should be a weapon type")
	}
	if IsWeaponType("set") {
		t.Error("set is not a weapon type")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	missing := &MissingSourceError{Kind: ResourceArmor, Path: "raw_armor.json"}
	if !errors.Is(missing, ErrMissingSource) {
		t.Error("MissingSourceError should unwrap to ErrMissingSource")
	}

	none := &NoResultsError{Query: "diablos", Piece: Head}
	if !IsNoResults(none) {
		t.Error("NoResultsError should be recognized by IsNoResults")
	}
	if none.Error() != "no results for diablos head" {
		t.Errorf("unexpected message %q", none.Error())
	}
}

func TestPieceRecord_NormalizeCopies(t *testing.T) {
	rec := PieceRecord{
		Name:   "Leather Headgear",
		Type:   Head,
		Rank:   RankLow,
		Rarity: 1,
		Slots:  []Slot{{Rank: 1}},
		Skills: []SkillRank{{SkillName: "Hunger Resistance", Level: 1}},
		Crafting: PieceCrafting{Materials: []CraftingCost{
			{Quantity: 2, Item: ItemInfo{Name: "Bone"}},
		}},
	}

	d := rec.Normalize()
	if d.Skills[0] != (Skill{Name: "Hunger Resistance", Level: 1}) {
		t.Errorf("unexpected skill %+v", d.Skills[0])
	}
	if d.Materials[0] != (Material{Item: "Bone", Quantity: 2}) {
		t.Errorf("unexpected material %+v", d.Materials[0])
	}

	d.Slots[0].Rank = 3
	if rec.Slots[0].Rank != 1 {
		t.Error("Normalize aliased the record's slots")
	}
}
