package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"jitsus/internal/game"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func testSummary() game.Summary {
	return game.Summary{
		MatchID:    "m-1",
		PlayerA:    "Alice",
		PlayerB:    "Bob",
		ScoreA:     7,
		ScoreB:     -7,
		OutcomeA:   game.OutcomeWon,
		OutcomeB:   game.OutcomeLost,
		Rounds:     2,
		Reason:     game.ReasonSurrender,
		FinishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNATSPublisher(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc)

	require.NoError(t, p.Publish(context.Background(), testSummary()))
	require.Equal(t, []string{SubjectMatchFinished}, fc.subjects)

	var got game.Summary
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	require.Equal(t, testSummary(), got)

	require.NoError(t, p.Close())
	require.True(t, fc.drained)
}

func TestNATSPublisherErrors(t *testing.T) {
	fc := &fakeConn{err: errors.New("broker down")}
	p := newNATSPublisher(fc)
	require.ErrorContains(t, p.Publish(context.Background(), testSummary()), "broker down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, newNATSPublisher(&fakeConn{}).Publish(ctx, testSummary()), context.Canceled)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	require.NoError(t, p.Publish(context.Background(), testSummary()))
	require.NoError(t, p.Close())
}
