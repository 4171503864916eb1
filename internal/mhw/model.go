// Package mhw defines the equipment data model shared by the aggregator,
// the query engine and the bot.
package mhw

// PieceRecord is one upstream armor entry as served by the reference database.
// Fields the bot never reads are dropped during decoding.
type PieceRecord struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Type        PieceType     `json:"type"`
	Rank        Rank          `json:"rank"`
	Rarity      int           `json:"rarity"`
	Defense     Defense       `json:"defense"`
	Resistances Resistances   `json:"resistances"`
	Slots       []Slot        `json:"slots"`
	Skills      []SkillRank   `json:"skills"`
	ArmorSet    ArmorSetRef   `json:"armorSet"`
	Crafting    PieceCrafting `json:"crafting"`
}

// ArmorSetRef is the set-level block embedded in every piece record.
type ArmorSetRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Rank Rank   `json:"rank"`
}

// SkillRank is a skill grant as it appears on an upstream piece.
type SkillRank struct {
	SkillName string `json:"skillName"`
	Level     int    `json:"level"`
}

// PieceCrafting holds the upstream crafting requirements of a piece.
type PieceCrafting struct {
	Materials []CraftingCost `json:"materials"`
}

// CraftingCost is an upstream material requirement.
type CraftingCost struct {
	Quantity int      `json:"quantity"`
	Item     ItemInfo `json:"item"`
}

// ItemInfo identifies a crafting item.
type ItemInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Slot is a decoration slot on a piece.
type Slot struct {
	Rank int `json:"rank"`
}

// Defense holds the base, max and augmented defense values.
type Defense struct {
	Base      int `json:"base"`
	Max       int `json:"max"`
	Augmented int `json:"augmented"`
}

// Add adds other into d elementwise.
func (d *Defense) Add(other Defense) {
	d.Base += other.Base
	d.Max += other.Max
	d.Augmented += other.Augmented
}

// Resistances is the per-element resistance vector.
type Resistances struct {
	Fire    int `json:"fire"`
	Water   int `json:"water"`
	Ice     int `json:"ice"`
	Thunder int `json:"thunder"`
	Dragon  int `json:"dragon"`
}

// Add adds other into r elementwise.
func (r *Resistances) Add(other Resistances) {
	r.Fire += other.Fire
	r.Water += other.Water
	r.Ice += other.Ice
	r.Thunder += other.Thunder
	r.Dragon += other.Dragon
}

// Material is a crafting requirement, unique per set by item name.
type Material struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// Skill is a granted skill, unique per set by skill name.
type Skill struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// PieceDetail is the normalized projection of a PieceRecord kept in a set.
type PieceDetail struct {
	Name        string      `json:"name"`
	Rarity      int         `json:"rarity"`
	Rank        Rank        `json:"rank"`
	Defense     Defense     `json:"defense"`
	Resistances Resistances `json:"resistances"`
	Slots       []Slot      `json:"slots"`
	Skills      []Skill     `json:"skills"`
	Materials   []Material  `json:"materials"`
}

// ArmorSet is the aggregate of every piece sharing a set name.
type ArmorSet struct {
	Name        string                    `json:"-"`
	Rank        Rank                      `json:"rank"`
	Defense     Defense                   `json:"defense"`
	Resistances Resistances               `json:"resistances"`
	Pieces      []PieceType               `json:"pieces"`
	Details     map[PieceType]PieceDetail `json:"details"`
	Materials   []Material                `json:"materials"`
	Skills      []Skill                   `json:"skills"`
}

// NewArmorSet returns an empty set with zero totals.
func NewArmorSet(name string, rank Rank) *ArmorSet {
	return &ArmorSet{
		Name:      name,
		Rank:      rank,
		Pieces:    []PieceType{},
		Details:   make(map[PieceType]PieceDetail),
		Materials: []Material{},
		Skills:    []Skill{},
	}
}

// HasPiece reports whether the set holds a detail for the given piece type.
func (s *ArmorSet) HasPiece(t PieceType) bool {
	_, ok := s.Details[t]
	return ok
}

// PieceNames returns the display names of the set's pieces in membership order.
func (s *ArmorSet) PieceNames() []string {
	names := make([]string, 0, len(s.Pieces))
	for _, t := range s.Pieces {
		if d, ok := s.Details[t]; ok {
			names = append(names, d.Name)
		}
	}
	return names
}

// Normalize projects an upstream record onto the fields a set keeps.
// The returned detail shares no slices with the record.
func (p PieceRecord) Normalize() PieceDetail {
	skills := make([]Skill, 0, len(p.Skills))
	for _, s := range p.Skills {
		skills = append(skills, Skill{Name: s.SkillName, Level: s.Level})
	}

	mats := make([]Material, 0, len(p.Crafting.Materials))
	for _, m := range p.Crafting.Materials {
		mats = append(mats, Material{Item: m.Item.Name, Quantity: m.Quantity})
	}

	slots := make([]Slot, len(p.Slots))
	copy(slots, p.Slots)

	return PieceDetail{
		Name:        p.Name,
		Rarity:      p.Rarity,
		Rank:        p.Rank,
		Defense:     p.Defense,
		Resistances: p.Resistances,
		Slots:       slots,
		Skills:      skills,
		Materials:   mats,
	}
}
