package mhw

import (
	"fmt"
	"strings"
)

// Rank is the content tier of a set or piece.
// The zero value means "any rank" when used as a filter.
type Rank string

const (
	RankAny    Rank = ""
	RankLow    Rank = "low"
	RankHigh   Rank = "high"
	RankMaster Rank = "master"
)

var rankAliases = map[string]Rank{
	"low":    RankLow,
	"lr":     RankLow,
	"high":   RankHigh,
	"hr":     RankHigh,
	"master": RankMaster,
	"mr":     RankMaster,
}

// ParseRank parses a rank name or its two-letter alias, case-insensitively.
// An empty string yields RankAny.
func ParseRank(s string) (Rank, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RankAny, nil
	}
	if r, ok := rankAliases[s]; ok {
		return r, nil
	}
	return RankAny, fmt.Errorf("unknown rank %q", s)
}

// IsRankToken reports whether s names a rank.
func IsRankToken(s string) bool {
	_, ok := rankAliases[strings.ToLower(s)]
	return ok
}

// Matches reports whether a set of rank other passes the filter r.
func (r Rank) Matches(other Rank) bool {
	return r == RankAny || r == other
}

// Title returns the capitalized rank name.
func (r Rank) Title() string {
	if r == RankAny {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// PieceType is an armor slot.
type PieceType string

const (
	Head   PieceType = "head"
	Chest  PieceType = "chest"
	Gloves PieceType = "gloves"
	Waist  PieceType = "waist"
	Legs   PieceType = "legs"
)

// PieceTypes lists every armor slot in equip order.
var PieceTypes = []PieceType{Head, Chest, Gloves, Waist, Legs}

// ParsePieceType matches s against the armor slots case-insensitively.
func ParsePieceType(s string) (PieceType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range PieceTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// WeaponTypes lists the weapon classes the bot recognizes.
var WeaponTypes = []string{
	"greatsword", "longsword", "gunlance", "heavy-bowgun",
	"light-bowgun", "lance", "sword-and-shield",
	"charge-blade", "bow", "insect-glaive", "hammer",
	"dual-blades", "hunting-horn", "switch-axe",
}

// IsWeaponType reports whether s is a known weapon class.
func IsWeaponType(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, w := range WeaponTypes {
		if w == s {
			return true
		}
	}
	return false
}

// ThingSet is the thing type that selects a full armor set lookup.
const ThingSet = "set"

// ResourceKind names an upstream resource mirrored to disk.
type ResourceKind string

const (
	ResourceArmor   ResourceKind = "armor"
	ResourceWeapons ResourceKind = "weapons"
	ResourceCharms  ResourceKind = "charms"
	ResourceSkills  ResourceKind = "skills"
)

// AllResources lists every resource kind the bot mirrors.
var AllResources = []ResourceKind{ResourceArmor, ResourceWeapons, ResourceCharms, ResourceSkills}

// ParseResourceKind parses a resource kind name.
func ParseResourceKind(s string) (ResourceKind, error) {
	for _, k := range AllResources {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q", s)
}
