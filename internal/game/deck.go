package game

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Deck is an ordered set of cards.
type Deck []Card

// NewDeck returns the 36-card deck in category-major order.
func NewDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	for _, cat := range Categories {
		for r := MinRank; r <= MaxRank; r++ {
			deck = append(deck, Card{category: cat, rank: r})
		}
	}
	return deck
}

// Shuffle permutes the deck in place with rng (Fisher-Yates).
func (d Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d), func(i, j int) { d[i], d[j] = d[j], d[i] })
}

// Deal returns cards [from, from+n) as a fresh slice.
func (d Deck) Deal(from, n int) []Card {
	hand := make([]Card, n)
	copy(hand, d[from:from+n])
	return hand
}

// Validate checks that every (category, rank) pair is present exactly once.
func (d Deck) Validate() error {
	if len(d) != DeckSize {
		return errors.Errorf("deck has %d cards, want %d", len(d), DeckSize)
	}
	seen := make(map[Card]bool, DeckSize)
	for _, c := range d {
		if c.rank < MinRank || c.rank > MaxRank {
			return errors.Errorf("card %s has an invalid rank", c)
		}
		if seen[c] {
			return errors.Errorf("duplicate card %s", c)
		}
		seen[c] = true
	}
	return nil
}
