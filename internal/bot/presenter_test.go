package bot

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/catalog"
	"github.com/ramonehamilton/palico-bot/internal/mhw/query"
)

func rathalosSet() query.SetResult {
	return query.SetResult{
		Name:        "Rathalos Soul",
		Rank:        mhw.RankHigh,
		Defense:     mhw.Defense{Base: 110, Max: 140, Augmented: 200},
		Resistances: mhw.Resistances{Fire: 6, Water: -3, Thunder: 2},
		Pieces:      []string{"Rathalos Helm", "Rathalos Mail"},
		Materials:   []mhw.Material{{Item: "Rathalos Scale+", Quantity: 3}},
		Skills:      []mhw.Skill{{Name: "Attack Boost", Level: 2}},
	}
}

func fieldMap(e *discordgo.MessageEmbed) map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Name] = f.Value
	}
	return out
}

func TestSetEmbed(t *testing.T) {
	e := SetEmbed(rathalosSet())
	assert.Equal(t, "Rathalos Soul", e.Title)
	assert.Equal(t, "High rank set", e.Description)

	fields := fieldMap(e)
	assert.Equal(t, "Rathalos Helm \nRathalos Mail", fields["Set pieces"])
	assert.Equal(t, "Base: 110 \nMax: 140 \nAugmented: 200", fields["Defense"])
	assert.Contains(t, fields["Resistances"], "Water: -3")
	assert.Equal(t, "Rathalos Scale+ x3", fields["Materials"])
	assert.Equal(t, "Attack Boost 2", fields["Skills"])
}

func TestSetEmbed_NoSkills(t *testing.T) {
	set := rathalosSet()
	set.Skills = nil
	set.Materials = nil
	fields := fieldMap(SetEmbed(set))
	assert.Equal(t, "No skills", fields["Skills"])
	assert.Equal(t, "None", fields["Materials"])
}

func TestPieceEmbed(t *testing.T) {
	e := PieceEmbed(query.PieceResult{
		SetName: "Rathalos Soul",
		Type:    mhw.Head,
		Detail: mhw.PieceDetail{
			Name:    "Rathalos Helm",
			Rank:    mhw.RankHigh,
			Rarity:  6,
			Defense: mhw.Defense{Base: 54},
		},
	})
	assert.Equal(t, "Rathalos Helm", e.Title)
	assert.Equal(t, "High rank head, rarity 6", e.Description)
	assert.Equal(t, "Rathalos Soul", e.Footer.Text)
	assert.Len(t, e.Fields, 4)
	assert.Equal(t, "No skills", fieldMap(e)["Skills"])
}

func TestPresent(t *testing.T) {
	p := Presenter{MaxEmbeds: 2}

	t.Run("sets", func(t *testing.T) {
		r := p.Present(catalog.Response{Kind: catalog.KindSets, Sets: []query.SetResult{rathalosSet()}})
		require.NotNil(t, r)
		assert.Len(t, r.Embeds, 1)
		assert.Empty(t, r.Text)
	})

	t.Run("capped", func(t *testing.T) {
		sets := []query.SetResult{rathalosSet(), rathalosSet(), rathalosSet()}
		r := p.Present(catalog.Response{Kind: catalog.KindSets, Sets: sets})
		assert.Len(t, r.Embeds, 2)
		assert.Contains(t, r.Text, "2 of 3")
	})

	t.Run("set no results", func(t *testing.T) {
		r := p.Present(catalog.Response{Kind: catalog.KindNoResults, Thing: "xyz", ThingType: "set"})
		assert.Equal(t, MessageNoResults, r.Text)
	})

	t.Run("piece no results with suggestions", func(t *testing.T) {
		r := p.Present(catalog.Response{
			Kind:        catalog.KindNoResults,
			Thing:       "Rathalo",
			ThingType:   "head",
			Suggestions: []string{"Rathalos"},
		})
		assert.True(t, strings.HasPrefix(r.Text, "No results for rathalo head"))
		assert.Contains(t, r.Text, "Did you mean: Rathalos?")
	})

	t.Run("weapon", func(t *testing.T) {
		r := p.Present(catalog.Response{Kind: catalog.KindUnsupported})
		assert.Equal(t, MessageWeapons, r.Text)
	})

	t.Run("none", func(t *testing.T) {
		assert.True(t, p.Present(catalog.Response{Kind: catalog.KindNone}).Empty())
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("é", 600) // 1200 bytes
	got := truncate(long, maxFieldValue)
	assert.LessOrEqual(t, len(got), maxFieldValue)
	assert.True(t, strings.HasSuffix(got, "…"))
}
