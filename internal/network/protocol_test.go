package network

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		cmd  Command
		args []string
		ok   bool
	}{
		{name: "blank", line: "   ", ok: false},
		{name: "lower case command", line: "connect Alice", cmd: CmdConnect, args: []string{"Alice"}, ok: true},
		{name: "extra whitespace", line: "  PLAY\t 3  ", cmd: CmdPlay, args: []string{"3"}, ok: true},
		{name: "no args", line: "GetPlayers", cmd: CmdGetPlayers, args: []string{}, ok: true},
		{name: "chat keeps words", line: "MATCH_MSG good luck", cmd: CmdMatchMsg, args: []string{"good", "luck"}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := ParseLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			require.Equal(t, tt.cmd, cmd)
			require.Equal(t, tt.args, args)
		})
	}
}

func TestErrorLine(t *testing.T) {
	require.Equal(t, "ERROR Name In Use", ErrorLine(ErrNameInUse))
	require.Equal(t, "ERROR Not In Match", ErrorLine(ErrNotInMatch))
	require.Equal(t, "ERROR Target Already Challenged", ErrorLine(ErrTargetAlreadyChallenged))
	require.Equal(t, "Error 999", ErrorKind(999).String())
}

func TestEveryErrorKindHasReason(t *testing.T) {
	for k := ErrNotAuthenticated; k <= ErrNoMessageGiven; k++ {
		_, ok := errorReasons[k]
		require.True(t, ok, "kind %d has no reason text", int(k))
	}
}

func TestLineBuilders(t *testing.T) {
	require.Equal(t, "CHALLENGE_START Alice Bob", ChallengeStart("Alice", "Bob"))
	require.Equal(t, "MMR 1.50", MMR(1.5))
	require.Equal(t, "Bob\t-0.33", PlayerEntry("Bob", -1.0/3))
	require.Equal(t, "CARD 2 Blade:7", HandCard(2, "Blade:7"))
	require.Equal(t, "ROUND_END WON Blade:7 Unarmed:3 2 0", RoundEnd("WON", "Blade:7", "Unarmed:3", 2, 0))
	require.Equal(t, "MATCH_END LOST -7 SURRENDER", MatchEnd("LOST", -7, "SURRENDER"))
}
