package bot

import (
	"strings"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
)

// DefaultPrefix starts every command.
const DefaultPrefix = "!"

// Built-in commands that are not thing types.
const (
	CommandHelp   = "help"
	CommandStatus = "status"
)

// Command is a parsed chat line of the form
// "<prefix><thingType> <name words...> [rank]".
type Command struct {
	Name  string
	Thing string
	Rank  mhw.Rank
}

// ParseCommand parses content. It reports false when content does not start
// with prefix or names no command. A trailing rank token is split off as the
// rank filter.
func ParseCommand(prefix, content string) (Command, bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return Command{}, false
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return Command{}, false
	}

	cmd := Command{Name: strings.ToLower(fields[0])}
	words := fields[1:]
	if n := len(words); n > 0 && mhw.IsRankToken(words[n-1]) {
		// Never fails for a rank token.
		cmd.Rank, _ = mhw.ParseRank(words[n-1])
		words = words[:n-1]
	}
	cmd.Thing = strings.Join(words, " ")
	return cmd, true
}

// String renders the command back into its canonical chat form.
func (c Command) String() string {
	parts := []string{c.Name}
	if c.Thing != "" {
		parts = append(parts, c.Thing)
	}
	if c.Rank != mhw.RankAny {
		parts = append(parts, string(c.Rank))
	}
	return strings.Join(parts, " ")
}
