// Package network defines the line protocol spoken between client and server
package network

import (
	"fmt"
	"strings"
)

// Command is the first token of a client line.
type Command string

const (
	// Authentication
	CmdConnect    Command = "CONNECT"
	CmdDisconnect Command = "DISCONNECT"

	// Matchmaking
	CmdGetPlayers Command = "GETPLAYERS"
	CmdChallenge  Command = "CHALLENGE"
	CmdAccept     Command = "ACCEPT"

	// Match
	CmdPlay      Command = "PLAY"
	CmdMatchMsg  Command = "MATCH_MSG"
	CmdSurrender Command = "SURRENDER"

	CmdMMR Command = "MMR"
)

// Fixed server lines
const (
	MsgWelcome        = "WELCOME to the Game Card jitSUS"
	MsgOK             = "OK"
	MsgInvalidCommand = "INVALID_COMMAND"
	MsgPlayersEmpty   = "PLAYERS EMPTY"
	MsgPlayersHeader  = "PLAYERS\tMMR"
	MsgChallengeSent  = "CHALLENGE_SENT"
	MsgMoveAccepted   = "MOVE_ACCEPTED"
	MsgServerShutdown = "SERVER_SHUTDOWN"
	MsgServerFull     = "SERVER_FULL"
)

// Prefixes of parameterised server lines
const (
	PrefixError              = "ERROR"
	PrefixChallengeRequest   = "CHALLENGE_REQUEST"
	PrefixChallengeStart     = "CHALLENGE_START"
	PrefixChallengeDeclined  = "CHALLENGE_DECLINED"
	PrefixChallengeCancelled = "CHALLENGE_CANCELLED"
	PrefixMatchMsg           = "MATCH_MSG"
	PrefixMMR                = "MMR"
	PrefixRoundStart         = "ROUND_START"
	PrefixCard               = "CARD"
	PrefixRoundEnd           = "ROUND_END"
	PrefixMatchEnd           = "MATCH_END"
)

// MaxNameLength bounds usernames, in runes.
const MaxNameLength = 12

// ParseLine splits a client line into its upper-cased command and arguments.
// ok is false for blank lines.
func ParseLine(line string) (cmd Command, args []string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}
	return Command(strings.ToUpper(fields[0])), fields[1:], true
}

// Helper functions for building server lines

func ErrorLine(kind ErrorKind) string {
	return PrefixError + " " + kind.String()
}

func ChallengeRequest(from string) string {
	return PrefixChallengeRequest + " " + from
}

func ChallengeStart(challenger, acceptor string) string {
	return fmt.Sprintf("%s %s %s", PrefixChallengeStart, challenger, acceptor)
}

func ChallengeDeclined(by string) string {
	return PrefixChallengeDeclined + " " + by
}

func ChallengeCancelled(by string) string {
	return PrefixChallengeCancelled + " " + by
}

func MatchMsg(from, text string) string {
	return fmt.Sprintf("%s %s %s", PrefixMatchMsg, from, text)
}

func MMR(rating float64) string {
	return fmt.Sprintf("%s %.2f", PrefixMMR, rating)
}

func PlayerEntry(name string, rating float64) string {
	return fmt.Sprintf("%s\t%.2f", name, rating)
}

func RoundStart(round int) string {
	return fmt.Sprintf("%s %d", PrefixRoundStart, round)
}

// HandCard announces the card in a hand slot; slots are numbered from 1.
func HandCard(slot int, card string) string {
	return fmt.Sprintf("%s %d %s", PrefixCard, slot, card)
}

func RoundEnd(outcome, yours, theirs string, yourScore, theirScore int) string {
	return fmt.Sprintf("%s %s %s %s %d %d", PrefixRoundEnd, outcome, yours, theirs, yourScore, theirScore)
}

func MatchEnd(outcome string, score int, reason string) string {
	return fmt.Sprintf("%s %s %d %s", PrefixMatchEnd, outcome, score, reason)
}
