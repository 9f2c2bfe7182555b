package game

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Category is the family of a card. The ordinal encodes the dominance cycle:
// each category beats the one right after it, and Firearm wraps around to beat Blade.
type Category int

const (
	Blade Category = iota
	Unarmed
	Corrosive
	Firearm
)

// Categories lists every category in ordinal order.
var Categories = [...]Category{Blade, Unarmed, Corrosive, Firearm}

var categoryNames = map[Category]string{
	Blade:     "Blade",
	Unarmed:   "Unarmed",
	Corrosive: "Corrosive",
	Firearm:   "Firearm",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Card is an immutable (category, rank) pair.
type Card struct {
	category Category
	rank     int
}

// NewCard creates a card, rejecting ranks outside [MinRank, MaxRank].
func NewCard(category Category, rank int) (Card, error) {
	if _, ok := categoryNames[category]; !ok {
		return Card{}, errors.Errorf("unknown category %d", int(category))
	}
	if rank < MinRank || rank > MaxRank {
		return Card{}, errors.Errorf("rank %d out of range %d..%d", rank, MinRank, MaxRank)
	}
	return Card{category: category, rank: rank}, nil
}

func (c Card) Category() Category { return c.category }
func (c Card) Rank() int          { return c.rank }

// String renders the card in its wire form, e.g. "Blade:7".
func (c Card) String() string {
	return fmt.Sprintf("%s:%d", c.category, c.rank)
}

// ParseCard is the inverse of Card.String.
func ParseCard(s string) (Card, error) {
	name, rank, ok := strings.Cut(s, ":")
	if !ok {
		return Card{}, errors.Errorf("malformed card %q", s)
	}
	for cat, n := range categoryNames {
		if n == name {
			r, err := strconv.Atoi(rank)
			if err != nil {
				return Card{}, errors.Errorf("malformed rank in %q", s)
			}
			return NewCard(cat, r)
		}
	}
	return Card{}, errors.Errorf("unknown category in %q", s)
}

// Outcome is one side's result of a round or a match.
type Outcome string

const (
	OutcomeWon  Outcome = "WON"
	OutcomeLost Outcome = "LOST"
	OutcomeTied Outcome = "TIED"
)

// EndReason says why a match stopped.
type EndReason string

const (
	ReasonComplete   EndReason = "COMPLETE"
	ReasonSurrender  EndReason = "SURRENDER"
	ReasonDisconnect EndReason = "DISCONNECT"
	ReasonTimeout    EndReason = "TIMEOUT"
)

// Summary describes a finished match.
type Summary struct {
	MatchID    string    `json:"match_id"`
	PlayerA    string    `json:"player_a"`
	PlayerB    string    `json:"player_b"`
	ScoreA     int       `json:"score_a"`
	ScoreB     int       `json:"score_b"`
	OutcomeA   Outcome   `json:"outcome_a"`
	OutcomeB   Outcome   `json:"outcome_b"`
	Rounds     int       `json:"rounds"`
	Reason     EndReason `json:"reason"`
	FinishedAt time.Time `json:"finished_at"`
}

// Game constants
const (
	MinRank = 1
	MaxRank = 9

	DeckSize = 36
	HandSize = 5

	MaxRounds      = 13
	WinningScore   = 7
	SurrenderScore = 7
)

// Mailbox tokens
const (
	MoveSurrender  = "SURRENDER"
	MoveDisconnect = "DISCONNECT"
)
