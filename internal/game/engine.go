// Package game implements the card model, duel rules and the match engine
package game

import (
	"context"
	"math/rand"
	"time"

	"jitsus/internal/network"
	"jitsus/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Player is the engine's view of a connected participant.
type Player interface {
	Name() string
	Send(line string) error
	// MatchFinished records the final score, releases the player from ge
	// and returns the player's updated rating.
	MatchFinished(ge *GameEngine, score int) float64
	// MatchAborted releases the player from ge without recording a game.
	MatchAborted(ge *GameEngine)
}

type mailMessage struct {
	from string
	body string
}

// GameEngine runs one duel between two players to completion
type GameEngine struct {
	id          string
	players     [2]Player
	names       [2]string
	mailbox     chan mailMessage
	done        chan struct{}
	rng         *rand.Rand
	moveTimeout time.Duration
	onFinish    func(Summary)
	logger      *logger.Logger

	deck   Deck
	scores [2]int
	round  int
}

// Option configures a GameEngine.
type Option func(*GameEngine)

// WithRand sets the shuffle source.
func WithRand(rng *rand.Rand) Option {
	return func(ge *GameEngine) { ge.rng = rng }
}

// WithMoveTimeout bounds the wait for a round's moves. Zero waits forever.
func WithMoveTimeout(d time.Duration) Option {
	return func(ge *GameEngine) { ge.moveTimeout = d }
}

// WithResultHook is called once with the summary of a finished match.
// It is not called for aborted matches.
func WithResultHook(fn func(Summary)) Option {
	return func(ge *GameEngine) { ge.onFinish = fn }
}

// NewGameEngine binds a new match to two players. a is the challenger.
func NewGameEngine(a, b Player, opts ...Option) *GameEngine {
	ge := &GameEngine{
		id:      uuid.New().String(),
		players: [2]Player{a, b},
		names:   [2]string{a.Name(), b.Name()},
		mailbox: make(chan mailMessage, 16),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ge)
	}
	if ge.rng == nil {
		ge.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	ge.logger = logger.Match.WithField("match", ge.id)
	return ge
}

// ID returns the match id.
func (ge *GameEngine) ID() string {
	return ge.id
}

// Players returns the two participant names, challenger first.
func (ge *GameEngine) Players() [2]string {
	return ge.names
}

// Done is closed when the match loop has returned.
func (ge *GameEngine) Done() <-chan struct{} {
	return ge.done
}

// Deliver queues a message from a player. It returns false once the match is over.
func (ge *GameEngine) Deliver(from, body string) bool {
	select {
	case <-ge.done:
		return false
	default:
	}
	select {
	case ge.mailbox <- mailMessage{from: from, body: body}:
		return true
	case <-ge.done:
		return false
	}
}

// Run plays rounds until a score threshold, the round limit, or a forfeit.
// A cancelled ctx aborts the match silently and returns ErrMatchAborted.
func (ge *GameEngine) Run(ctx context.Context) error {
	defer close(ge.done)

	ge.logger.Info("Match started: %s vs %s", ge.names[0], ge.names[1])
	ge.deck = NewDeck()

	for ge.round < MaxRounds && ge.scores[0] < WinningScore && ge.scores[1] < WinningScore {
		ge.round++
		ge.deck.Shuffle(ge.rng)
		hands := [2][]Card{ge.deck.Deal(0, HandSize), ge.deck.Deal(HandSize, HandSize)}
		for seat := range hands {
			ge.announceHand(seat, hands[seat])
		}

		choices, f, err := ge.collectMoves(ctx)
		if err != nil {
			ge.abort(err)
			return err
		}
		if f != nil {
			ge.forfeit(*f)
			return nil
		}

		ge.resolveRound(hands[0][choices[0]], hands[1][choices[1]])
	}

	ge.finish()
	return nil
}

func (ge *GameEngine) announceHand(seat int, hand []Card) {
	ge.send(seat, network.RoundStart(ge.round))
	for i, card := range hand {
		ge.send(seat, network.HandCard(i+1, card.String()))
	}
}

// forfeitResult describes a match cut short. Both is set when neither side moved in time.
type forfeitResult struct {
	loser  int
	both   bool
	reason EndReason
}

// collectMoves waits until both seats have a valid choice for the current round.
func (ge *GameEngine) collectMoves(ctx context.Context) ([2]int, *forfeitResult, error) {
	choices := [2]int{-1, -1}

	var timeout <-chan time.Time
	if ge.moveTimeout > 0 {
		timer := time.NewTimer(ge.moveTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for choices[0] < 0 || choices[1] < 0 {
		select {
		case <-ctx.Done():
			return choices, nil, errors.Wrap(ErrMatchAborted, ctx.Err().Error())
		case <-timeout:
			if err := ctx.Err(); err != nil {
				return choices, nil, errors.Wrap(ErrMatchAborted, err.Error())
			}
			if choices[0] < 0 && choices[1] < 0 {
				return choices, &forfeitResult{both: true, reason: ReasonTimeout}, nil
			}
			loser := 0
			if choices[1] < 0 {
				loser = 1
			}
			return choices, &forfeitResult{loser: loser, reason: ReasonTimeout}, nil
		case msg := <-ge.mailbox:
			// cancellation wins over anything queued behind it
			if err := ctx.Err(); err != nil {
				return choices, nil, errors.Wrap(ErrMatchAborted, err.Error())
			}
			seat := ge.seat(msg.from)
			if seat < 0 {
				ge.logger.Warn("Dropping message from non-participant %s", msg.from)
				continue
			}
			switch msg.body {
			case MoveSurrender:
				return choices, &forfeitResult{loser: seat, reason: ReasonSurrender}, nil
			case MoveDisconnect:
				return choices, &forfeitResult{loser: seat, reason: ReasonDisconnect}, nil
			}
			if choices[seat] >= 0 {
				ge.logger.Debug("Ignoring extra move from %s in round %d", msg.from, ge.round)
				continue
			}
			choice, ok := ParseChoice(msg.body)
			if !ok {
				ge.logger.Debug("Ignoring invalid move %q from %s", msg.body, msg.from)
				continue
			}
			choices[seat] = choice
		}
	}
	return choices, nil, nil
}

// ParseChoice converts a 1-based hand slot into an index.
// Only the bare digits are accepted, so "+1" and "01" are rejected.
func ParseChoice(s string) (int, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '0'+HandSize {
		return -1, false
	}
	return int(s[0] - '1'), true
}

func (ge *GameEngine) resolveRound(cardA, cardB Card) {
	deltaA, deltaB, err := Duel(cardA, cardB)
	if err != nil {
		ge.logger.Error("Duel %s vs %s failed: %v", cardA, cardB, err)
	}
	ge.scores[0] += deltaA
	ge.scores[1] += deltaB

	outcomeA, outcomeB := compare(deltaA, deltaB)
	ge.send(0, network.RoundEnd(string(outcomeA), cardA.String(), cardB.String(), ge.scores[0], ge.scores[1]))
	ge.send(1, network.RoundEnd(string(outcomeB), cardB.String(), cardA.String(), ge.scores[1], ge.scores[0]))

	ge.logger.Debug("Round %d: %s %s vs %s %s -> %d:%d",
		ge.round, ge.names[0], cardA, ge.names[1], cardB, ge.scores[0], ge.scores[1])
}

// finish reports a match that ran its course.
func (ge *GameEngine) finish() {
	outcomeA, outcomeB := DecideOutcome(ge.round, ge.scores[0], ge.scores[1])
	ge.report([2]Outcome{outcomeA, outcomeB}, ge.scores, ReasonComplete)
}

// forfeit ends the match early.
func (ge *GameEngine) forfeit(f forfeitResult) {
	if f.both {
		ge.report([2]Outcome{OutcomeLost, OutcomeLost}, ge.scores, f.reason)
		return
	}
	winner := 1 - f.loser
	var outcomes [2]Outcome
	var scores [2]int
	outcomes[winner], outcomes[f.loser] = OutcomeWon, OutcomeLost
	scores[winner], scores[f.loser] = SurrenderScore, -SurrenderScore
	ge.logger.Info("%s forfeits (%s)", ge.names[f.loser], f.reason)
	ge.report(outcomes, scores, f.reason)
}

func (ge *GameEngine) report(outcomes [2]Outcome, scores [2]int, reason EndReason) {
	for seat := range ge.players {
		ge.send(seat, network.MatchEnd(string(outcomes[seat]), scores[seat], string(reason)))
	}
	for seat, p := range ge.players {
		rating := p.MatchFinished(ge, scores[seat])
		ge.send(seat, network.MMR(rating))
	}

	ge.logger.Info("Match ended (%s) after %d rounds: %s %s %d, %s %s %d", reason, ge.round,
		ge.names[0], outcomes[0], scores[0], ge.names[1], outcomes[1], scores[1])

	if ge.onFinish != nil {
		ge.onFinish(Summary{
			MatchID:    ge.id,
			PlayerA:    ge.names[0],
			PlayerB:    ge.names[1],
			ScoreA:     scores[0],
			ScoreB:     scores[1],
			OutcomeA:   outcomes[0],
			OutcomeB:   outcomes[1],
			Rounds:     ge.round,
			Reason:     reason,
			FinishedAt: time.Now(),
		})
	}
}

func (ge *GameEngine) abort(err error) {
	ge.logger.Warn("Match aborted in round %d: %v", ge.round, err)
	for _, p := range ge.players {
		p.MatchAborted(ge)
	}
}

// DecideOutcome applies the end-of-match rule: running out of rounds with
// neither side at the winning score is a loss for both.
func DecideOutcome(rounds, scoreA, scoreB int) (Outcome, Outcome) {
	if rounds >= MaxRounds && scoreA < WinningScore && scoreB < WinningScore {
		return OutcomeLost, OutcomeLost
	}
	return compare(scoreA, scoreB)
}

func compare(a, b int) (Outcome, Outcome) {
	switch {
	case a > b:
		return OutcomeWon, OutcomeLost
	case a < b:
		return OutcomeLost, OutcomeWon
	default:
		return OutcomeTied, OutcomeTied
	}
}

func (ge *GameEngine) seat(name string) int {
	for i, n := range ge.names {
		if n == name {
			return i
		}
	}
	return -1
}

// send is best effort: a failed write is logged and the match goes on.
func (ge *GameEngine) send(seat int, line string) {
	if err := ge.players[seat].Send(line); err != nil {
		ge.logger.Warn("Send to %s failed: %v", ge.names[seat], err)
	}
}
