package client

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"jitsus/internal/network"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

// safeBuffer lets the test read output while the client writes it.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeServer accepts one connection and answers each received line from script.
func fakeServer(t *testing.T, greeting string, script func(line string) []string) (string, <-chan []string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan []string, 1)
	go func() {
		var got []string
		defer func() { received <- got }()

		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		conn.Write([]byte(greeting + "\n"))
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := scanner.Text()
			got = append(got, line)
			replies := script(line)
			for _, r := range replies {
				conn.Write([]byte(r + "\n"))
			}
			if line == "DISCONNECT" {
				return
			}
		}
	}()
	return ln.Addr().String(), received
}

func runClient(t *testing.T, addr, input string, cfgs ...Cfg) (*safeBuffer, error) {
	t.Helper()
	out := &safeBuffer{}
	cfgs = append(cfgs, WithInput(strings.NewReader(input)), WithOutput(out))
	c, err := NewClient(addr, cfgs...)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return out, c.Start(ctx)
}

func TestClientSession(t *testing.T) {
	addr, received := fakeServer(t, network.MsgWelcome, func(line string) []string {
		switch line {
		case "CONNECT Alice":
			return []string{"ERROR Name In Use"}
		case "CONNECT Bob":
			return []string{network.MsgOK}
		case "GETPLAYERS":
			return []string{network.MsgPlayersHeader, "Carol\t1.50"}
		case "DISCONNECT":
			return []string{network.MsgOK}
		}
		return []string{network.MsgInvalidCommand}
	})

	out, err := runClient(t, addr, "Alice\nBob\nHELP\nrules\n\nGETPLAYERS\nDISCONNECT\nMMR\n")
	require.NoError(t, err)

	require.Equal(t, []string{"CONNECT Alice", "CONNECT Bob", "GETPLAYERS", "DISCONNECT"}, <-received)

	text := out.String()
	require.Contains(t, text, "[ERROR] Name In Use")
	require.Contains(t, text, "Logged in as Bob")
	require.Contains(t, text, "CHALLENGE <name>")
	require.Contains(t, text, "Firearm beats Blade")
	require.Contains(t, text, "Carol\t1.50")
}

func TestClientUsernameFromFlag(t *testing.T) {
	addr, received := fakeServer(t, network.MsgWelcome, func(line string) []string {
		return []string{network.MsgOK}
	})

	_, err := runClient(t, addr, "", WithUsername("Dana"))
	require.NoError(t, err)
	require.Equal(t, []string{"CONNECT Dana", "DISCONNECT"}, <-received)
}

func TestClientNameRejected(t *testing.T) {
	addr, _ := fakeServer(t, network.MsgWelcome, func(line string) []string {
		return []string{"ERROR Name In Use"}
	})

	_, err := runClient(t, addr, "Eve\n")
	require.ErrorIs(t, err, ErrNameRejected)
}

func TestClientServerFull(t *testing.T) {
	addr, _ := fakeServer(t, network.MsgServerFull, func(string) []string { return nil })

	_, err := runClient(t, addr, "")
	require.ErrorIs(t, err, ErrServerFull)
}

func TestClientStopsOnShutdown(t *testing.T) {
	addr, _ := fakeServer(t, network.MsgWelcome, func(line string) []string {
		if line == "MMR" {
			return []string{"MMR 0.00", network.MsgServerShutdown}
		}
		return []string{network.MsgOK}
	})

	pr, pw := io.Pipe()
	defer pw.Close()
	out := &safeBuffer{}
	c, err := NewClient(addr, WithUsername("Finn"), WithInput(pr), WithOutput(out))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background()) }()
	_, err = pw.Write([]byte("MMR\n"))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop")
	}
	require.Contains(t, out.String(), "Server is shutting down")
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"Alice", false},
		{"twelve_chars", false},
		{"thirteen_char", true},
		{"", true},
		{"two words", true},
		{"ÆØÅ", false},
	}
	for _, tt := range tests {
		err := ValidateUsername(tt.name)
		if tt.wantErr {
			require.Error(t, err, tt.name)
		} else {
			require.NoError(t, err, tt.name)
		}
	}
	_, err := NewClient("localhost:6433", WithUsername("has space"))
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Style
	}{
		{"ERROR Name In Use", StyleError},
		{network.MsgInvalidCommand, StyleError},
		{network.MsgWelcome, StyleServer},
		{network.MsgServerShutdown, StyleServer},
		{"CHALLENGE_REQUEST Alice", StyleChallenge},
		{network.MsgChallengeSent, StyleChallenge},
		{"CHALLENGE_CANCELLED Bob", StyleChallenge},
		{"ROUND_START 3", StyleRound},
		{"CARD 2 Blade:7", StyleCard},
		{"ROUND_END WON Blade:7 Unarmed:3 2 0", StyleWin},
		{"ROUND_END LOST Blade:3 Blade:7 0 1", StyleLose},
		{"ROUND_END TIED Blade:5 Corrosive:5 0 0", StyleTie},
		{"MATCH_END WON 7 COMPLETE", StyleWin},
		{"MATCH_END LOST -7 SURRENDER", StyleLose},
		{"MATCH_MSG Alice hi", StyleChat},
		{"MMR 1.50", StyleRating},
		{"OK", StylePlain},
		{"Alice\t0.00", StylePlain},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(tt.line), tt.line)
	}
}

func TestPrintServerLine(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf)
	d.PrintServerLine("CARD 4 Firearm:9")
	require.Equal(t, "    [4] Firearm:9\n", buf.String())

	buf.Reset()
	d.PrintServerLine("ROUND_START 2")
	require.Contains(t, buf.String(), "══════ ROUND_START 2 ══════")
}
