package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/ramonehamilton/palico-bot/internal/metrics"
	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/catalog"
	"github.com/ramonehamilton/palico-bot/internal/mhw/query"
)

// Discord rejects embeds beyond these sizes.
const (
	maxFieldValue  = 1024
	maxDescription = 4096
)

// Messages sent as plain text.
const (
	MessageNoResults   = "No results!"
	MessageWeapons     = "Weapon queries coming soon™!"
	MessageNotReady    = "Still gathering hunter's notes, try again in a moment."
	MessageInitFailed  = "Data is unavailable right now."
	messageNoneEntries = "None"
)

// Reply is the rendered answer to one command.
type Reply struct {
	Text   string                     `json:"text,omitempty"`
	Embeds []*discordgo.MessageEmbed `json:"embeds,omitempty"`
}

// Empty reports whether there is nothing to send.
func (r *Reply) Empty() bool {
	return r == nil || (r.Text == "" && len(r.Embeds) == 0)
}

// Presenter turns catalog responses into chat replies.
type Presenter struct {
	// MaxEmbeds caps the embeds in one reply; the rest are summarized.
	MaxEmbeds int
}

// Present renders resp. KindNone renders to nil.
func (p Presenter) Present(resp catalog.Response) *Reply {
	switch resp.Kind {
	case catalog.KindSets:
		embeds := make([]*discordgo.MessageEmbed, 0, len(resp.Sets))
		for _, set := range resp.Sets {
			embeds = append(embeds, SetEmbed(set))
		}
		return p.limit(embeds)

	case catalog.KindPieces:
		embeds := make([]*discordgo.MessageEmbed, 0, len(resp.Pieces))
		for _, piece := range resp.Pieces {
			embeds = append(embeds, PieceEmbed(piece))
		}
		return p.limit(embeds)

	case catalog.KindNoResults:
		return &Reply{Text: noResultsText(resp)}

	case catalog.KindUnsupported:
		return &Reply{Text: MessageWeapons}
	}
	return nil
}

func (p Presenter) limit(embeds []*discordgo.MessageEmbed) *Reply {
	reply := &Reply{Embeds: embeds}
	if p.MaxEmbeds > 0 && len(embeds) > p.MaxEmbeds {
		reply.Embeds = embeds[:p.MaxEmbeds]
		reply.Text = fmt.Sprintf("Showing %d of %d results, narrow the search to see the rest.",
			p.MaxEmbeds, len(embeds))
	}
	return reply
}

func noResultsText(resp catalog.Response) string {
	var text string
	if resp.ThingType == mhw.ThingSet {
		text = MessageNoResults
	} else {
		text = fmt.Sprintf("No results for %s %s", strings.ToLower(resp.Thing), resp.ThingType)
	}
	if len(resp.Suggestions) > 0 {
		text += "\nDid you mean: " + strings.Join(resp.Suggestions, ", ") + "?"
	}
	return text
}

// SetEmbed renders an aggregated set.
func SetEmbed(set query.SetResult) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       set.Name,
		Description: fmt.Sprintf("%s rank set", set.Rank.Title()),
		Fields: []*discordgo.MessageEmbedField{
			field("Set pieces", lines(set.Pieces)),
			field("Defense", defenseLines(set.Defense)),
			field("Resistances", resistanceLines(set.Resistances)),
			field("Materials", materialLines(set.Materials)),
			skillsField(set.Skills),
		},
	}
}

// PieceEmbed renders a single armor piece.
func PieceEmbed(piece query.PieceResult) *discordgo.MessageEmbed {
	d := piece.Detail
	return &discordgo.MessageEmbed{
		Title:       d.Name,
		Description: fmt.Sprintf("%s rank %s, rarity %d", d.Rank.Title(), piece.Type, d.Rarity),
		Footer:      &discordgo.MessageEmbedFooter{Text: piece.SetName},
		Fields: []*discordgo.MessageEmbedField{
			field("Defense", defenseLines(d.Defense)),
			field("Resistances", resistanceLines(d.Resistances)),
			field("Materials", materialLines(d.Materials)),
			skillsField(d.Skills),
		},
	}
}

// StatusEmbed renders the data service state and, when given, query stats.
func StatusEmbed(st catalog.Status, stats *metrics.QueryStats) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		field("State", st.State),
		field("Sets", fmt.Sprint(st.Sets)),
	}
	if !st.LoadedAt.IsZero() {
		fields = append(fields, field("Loaded", st.LoadedAt.UTC().Format("2006-01-02 15:04 MST")))
	}
	if st.Error != "" {
		fields = append(fields, field("Error", st.Error))
	}
	if stats != nil {
		fields = append(fields,
			field("Queries served", fmt.Sprint(stats.Queries)),
			field("Hit rate", fmt.Sprintf("%.0f%%", stats.HitRate)),
			field("Uptime", stats.Uptime),
		)
	}
	return &discordgo.MessageEmbed{Title: "Palico status", Fields: fields}
}

// HelpEmbed lists the supported commands.
func HelpEmbed(prefix string) *discordgo.MessageEmbed {
	pieces := make([]string, 0, len(mhw.PieceTypes))
	for _, t := range mhw.PieceTypes {
		pieces = append(pieces, string(t))
	}
	desc := strings.Join([]string{
		fmt.Sprintf("`%sset <name> [rank]` armor set totals", prefix),
		fmt.Sprintf("`%s<piece> <set name> [rank]` one armor piece (%s)", prefix, strings.Join(pieces, ", ")),
		fmt.Sprintf("`%sstatus` data status", prefix),
		"Ranks: low (lr), high (hr), master (mr). Without a rank every rank is shown.",
	}, "\n")
	return &discordgo.MessageEmbed{Title: "Palico commands", Description: truncate(desc, maxDescription)}
}

func field(name, value string) *discordgo.MessageEmbedField {
	if value == "" {
		value = messageNoneEntries
	}
	return &discordgo.MessageEmbedField{Name: name, Value: truncate(value, maxFieldValue), Inline: true}
}

func skillsField(skills []mhw.Skill) *discordgo.MessageEmbedField {
	if len(skills) == 0 {
		return field("Skills", "No skills")
	}
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		out = append(out, fmt.Sprintf("%s %d", s.Name, s.Level))
	}
	return field("Skills", lines(out))
}

func defenseLines(d mhw.Defense) string {
	return lines([]string{
		fmt.Sprintf("Base: %d", d.Base),
		fmt.Sprintf("Max: %d", d.Max),
		fmt.Sprintf("Augmented: %d", d.Augmented),
	})
}

func resistanceLines(r mhw.Resistances) string {
	return lines([]string{
		fmt.Sprintf("Fire: %d", r.Fire),
		fmt.Sprintf("Water: %d", r.Water),
		fmt.Sprintf("Ice: %d", r.Ice),
		fmt.Sprintf("Thunder: %d", r.Thunder),
		fmt.Sprintf("Dragon: %d", r.Dragon),
	})
}

func materialLines(mats []mhw.Material) string {
	out := make([]string, 0, len(mats))
	for _, m := range mats {
		out = append(out, fmt.Sprintf("%s x%d", m.Item, m.Quantity))
	}
	return lines(out)
}

func lines(items []string) string {
	return strings.Join(items, " \n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	const ellipsis = "…"
	cut := 0
	for i := range s {
		if i > max-len(ellipsis) {
			break
		}
		cut = i
	}
	return s[:cut] + ellipsis
}
