// Package client handles client-side display and user interface
package client

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"jitsus/internal/game"
	"jitsus/internal/network"

	"github.com/fatih/color"
)

// Style is how a server line is rendered.
type Style int

const (
	StylePlain Style = iota
	StyleServer
	StyleError
	StyleChallenge
	StyleRound
	StyleCard
	StyleWin
	StyleLose
	StyleTie
	StyleChat
	StyleRating
)

// Classify picks the display style for a line received from the server.
func Classify(line string) Style {
	head, rest, _ := strings.Cut(line, " ")
	switch head {
	case network.PrefixError, network.MsgInvalidCommand:
		return StyleError
	case network.MsgServerShutdown, network.MsgServerFull, "WELCOME":
		return StyleServer
	case network.PrefixChallengeRequest, network.PrefixChallengeStart, network.PrefixChallengeDeclined,
		network.PrefixChallengeCancelled, network.MsgChallengeSent:
		return StyleChallenge
	case network.PrefixRoundStart:
		return StyleRound
	case network.PrefixCard:
		return StyleCard
	case network.PrefixRoundEnd, network.PrefixMatchEnd:
		outcome, _, _ := strings.Cut(rest, " ")
		switch game.Outcome(outcome) {
		case game.OutcomeWon:
			return StyleWin
		case game.OutcomeLost:
			return StyleLose
		default:
			return StyleTie
		}
	case network.PrefixMatchMsg:
		return StyleChat
	case network.PrefixMMR:
		return StyleRating
	}
	return StylePlain
}

type Display struct {
	mu     sync.Mutex
	out    io.Writer
	colors map[Style]*color.Color

	warningColor *color.Color
	infoColor    *color.Color
	gameColor    *color.Color
}

// NewDisplay creates a new display instance with configured colors
func NewDisplay(out io.Writer) *Display {
	return &Display{
		out: out,
		colors: map[Style]*color.Color{
			StylePlain:     color.New(color.FgWhite),
			StyleServer:    color.New(color.FgCyan, color.Bold),
			StyleError:     color.New(color.FgRed, color.Bold),
			StyleChallenge: color.New(color.FgMagenta, color.Bold),
			StyleRound:     color.New(color.FgYellow, color.Bold),
			StyleCard:      color.New(color.FgCyan),
			StyleWin:       color.New(color.FgGreen, color.Bold),
			StyleLose:      color.New(color.FgRed),
			StyleTie:       color.New(color.FgYellow),
			StyleChat:      color.New(color.FgBlue),
			StyleRating:    color.New(color.FgGreen),
		},
		warningColor: color.New(color.FgYellow),
		infoColor:    color.New(color.FgWhite),
		gameColor:    color.New(color.FgYellow, color.Bold),
	}
}

func (d *Display) printf(c *color.Color, format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c.Fprintf(d.out, format, args...)
}

// PrintBanner displays the game banner
func (d *Display) PrintBanner() {
	banner := `
╔═══════════════════════════════════════╗
║             jitSUS CLIENT             ║
║               Card Duel               ║
╚═══════════════════════════════════════╝
`
	d.printf(d.gameColor, "%s\n", banner)
}

// PrintServerLine renders one line received from the server.
func (d *Display) PrintServerLine(line string) {
	style := Classify(line)
	c := d.colors[style]
	timestamp := time.Now().Format("15:04:05")

	switch style {
	case StyleCard:
		fields := strings.Fields(line)
		if len(fields) == 3 {
			d.printf(c, "    [%s] %s\n", fields[1], fields[2])
			return
		}
	case StyleRound:
		d.printf(c, "[%s] ══════ %s ══════\n", timestamp, line)
		return
	}
	d.printf(c, "[%s] %s\n", timestamp, line)
}

// PrintError displays error messages
func (d *Display) PrintError(message string) {
	d.printf(d.colors[StyleError], "[ERROR] %s\n", message)
}

// PrintWarning displays warning messages
func (d *Display) PrintWarning(message string) {
	d.printf(d.warningColor, "[WARNING] %s\n", message)
}

// PrintInfo displays informational messages
func (d *Display) PrintInfo(message string) {
	d.printf(d.infoColor, "[INFO] %s\n", message)
}

// PrintSeparator prints a visual separator
func (d *Display) PrintSeparator() {
	d.printf(d.infoColor, "═══════════════════════════════════════════════════════════════\n")
}

var helpLines = []string{
	"CONNECT <name>        log in (done for you at start)",
	"GETPLAYERS            list players you can challenge",
	"CHALLENGE <name>      challenge a player",
	"ACCEPT <Y|N>          answer a challenge",
	"PLAY <1-5>            play a card from your hand",
	"MATCH_MSG <text>      talk to your opponent",
	"SURRENDER             give up the current match",
	"MMR                   show your rating",
	"RULES                 show the duel rules",
	"DISCONNECT            leave the server",
}

// PrintHelp lists the commands.
func (d *Display) PrintHelp() {
	d.PrintSeparator()
	for _, l := range helpLines {
		d.printf(d.infoColor, "%s\n", l)
	}
	d.PrintSeparator()
}

// PrintRules explains how a duel is scored.
func (d *Display) PrintRules() {
	d.PrintSeparator()
	d.printf(d.gameColor, "Each round both players get %d cards and play one.\n", game.HandSize)
	d.printf(d.infoColor, "Blade beats Unarmed, Unarmed beats Corrosive, Corrosive beats Firearm, Firearm beats Blade: +2.\n")
	d.printf(d.infoColor, "Same category: the higher rank scores +1.\n")
	d.printf(d.infoColor, "Opposite categories: the lower rank loses 1 point, equal ranks score nothing.\n")
	d.printf(d.infoColor, "First to %d wins. After %d rounds without a winner both players lose.\n",
		game.WinningScore, game.MaxRounds)
	d.printf(d.infoColor, "Surrendering or leaving scores -%d, your opponent gets +%d.\n",
		game.SurrenderScore, game.SurrenderScore)
	d.PrintSeparator()
}

// Printf writes a plain prompt without a newline.
func (d *Display) Printf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, format, args...)
}
