package server

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"jitsus/internal/game"
	"jitsus/internal/network"
	"jitsus/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const writeTimeout = 10 * time.Second

// Session is the server side of one client connection
type Session struct {
	id     string
	conn   net.Conn
	server *Server
	// logger is fixed at creation; Stop and close use it from other goroutines.
	logger *logger.Logger

	// name is assigned once by Registry.TryRegister.
	name string

	writeMu sync.Mutex
	writer  *bufio.Writer

	// mu guards the pairing state. Two sessions are only ever locked
	// together through lockPair.
	mu         sync.Mutex
	opponent   *Session
	challenged bool
	match      *game.GameEngine
	closed     bool

	rating    game.Rating
	closeOnce sync.Once
}

func newSession(conn net.Conn, srv *Server) *Session {
	id := uuid.New().String()
	return &Session{
		id:     id,
		conn:   conn,
		server: srv,
		writer: bufio.NewWriter(conn),
		logger: logger.Server.WithField("session", id),
	}
}

// Name returns the registered username, empty before CONNECT.
func (s *Session) Name() string {
	return s.name
}

// Send writes one line to the client.
func (s *Session) Send(line string) error {
	return s.SendLines(line)
}

// SendLines writes lines to the client without interleaving other writers.
func (s *Session) SendLines(lines ...string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return errors.Wrap(err, "set write deadline failed")
	}
	for _, line := range lines {
		if _, err := s.writer.WriteString(line + "\n"); err != nil {
			return errors.Wrap(err, "write line failed")
		}
	}
	return errors.Wrap(s.writer.Flush(), "flush failed")
}

func (s *Session) reply(line string) {
	if err := s.Send(line); err != nil {
		s.logger.Debug("Reply failed: %v", err)
	}
}

func (s *Session) replyError(kind network.ErrorKind) {
	s.reply(network.ErrorLine(kind))
}

// MatchFinished records the final score of ge and releases the session from it.
func (s *Session) MatchFinished(ge *game.GameEngine, score int) float64 {
	s.rating.Record(score)
	s.clearMatch(ge)
	return s.rating.Value()
}

// MatchAborted releases the session from ge without counting a game.
func (s *Session) MatchAborted(ge *game.GameEngine) {
	s.clearMatch(ge)
}

// clearMatch drops the match and opponent references if they still belong to ge.
func (s *Session) clearMatch(ge *game.GameEngine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == ge {
		s.match = nil
		s.opponent = nil
		s.challenged = false
	}
}

func (s *Session) currentMatch() (*game.GameEngine, *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match, s.opponent
}

func (s *Session) isIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.opponent == nil && s.match == nil
}

// lockPair locks two distinct sessions in username order and returns the unlock function.
func lockPair(a, b *Session) func() {
	first, second := a, b
	if b.name < a.name {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}

// run reads commands until the client leaves or the connection fails.
func (s *Session) run() {
	defer s.cleanup()

	s.logger.Info("New client connected from %s", s.conn.RemoteAddr())
	s.reply(network.MsgWelcome)

	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		if !s.handleLine(scanner.Text()) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("Read failed: %v", err)
	}
}

// handleLine processes one client line and reports whether to keep reading.
func (s *Session) handleLine(line string) bool {
	cmd, args, ok := network.ParseLine(line)
	if !ok {
		return true
	}

	s.logger.Debug("Received %s", cmd)

	switch cmd {
	case network.CmdConnect:
		s.handleConnect(args)
		return true
	case network.CmdDisconnect, network.CmdGetPlayers, network.CmdChallenge, network.CmdAccept,
		network.CmdPlay, network.CmdMatchMsg, network.CmdSurrender, network.CmdMMR:
	default:
		s.reply(network.MsgInvalidCommand)
		return true
	}

	if s.name == "" {
		s.replyError(network.ErrNotAuthenticated)
		return true
	}

	switch cmd {
	case network.CmdDisconnect:
		s.handleDisconnect()
		return false
	case network.CmdGetPlayers:
		s.handleGetPlayers()
	case network.CmdChallenge:
		s.handleChallenge(args)
	case network.CmdAccept:
		s.handleAccept(args)
	case network.CmdPlay:
		s.handlePlay(args)
	case network.CmdMatchMsg:
		s.handleMatchMsg(args)
	case network.CmdSurrender:
		s.handleSurrender()
	case network.CmdMMR:
		s.reply(network.MMR(s.rating.Value()))
	}
	return true
}

func validName(name string) bool {
	if name == "" || utf8.RuneCountInString(name) > network.MaxNameLength {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func (s *Session) handleConnect(args []string) {
	if s.name != "" {
		s.replyError(network.ErrAlreadyAuthenticated)
		return
	}
	if len(args) == 0 {
		s.replyError(network.ErrNoNameProvided)
		return
	}
	if len(args) > 1 || !validName(args[0]) {
		s.replyError(network.ErrInvalidName)
		return
	}
	if !s.server.registry.TryRegister(args[0], s) {
		s.replyError(network.ErrNameInUse)
		return
	}

	s.logger.Info("Player %s logged in", s.name)
	s.reply(network.MsgOK)
}

func (s *Session) handleDisconnect() {
	s.markClosed()
	s.leave()
	s.reply(network.MsgOK)
}

func (s *Session) handleGetPlayers() {
	players := s.server.registry.ListAvailable(s.name)
	if len(players) == 0 {
		s.reply(network.MsgPlayersEmpty)
		return
	}
	lines := make([]string, 0, len(players)+1)
	lines = append(lines, network.MsgPlayersHeader)
	for _, p := range players {
		lines = append(lines, network.PlayerEntry(p.Name, p.Rating))
	}
	if err := s.SendLines(lines...); err != nil {
		s.logger.Debug("Reply failed: %v", err)
	}
}

func (s *Session) handleChallenge(args []string) {
	if len(args) == 0 {
		s.replyError(network.ErrNoNameProvided)
		return
	}
	targetName := args[0]
	if targetName == s.name {
		s.replyError(network.ErrNotChallengingSelf)
		return
	}
	target, ok := s.server.registry.Lookup(targetName)
	if !ok {
		s.replyError(network.ErrTargetNotFound)
		return
	}

	var kind network.ErrorKind
	unlock := lockPair(s, target)
	switch {
	case s.match != nil:
		kind = network.ErrAlreadyInMatch
	case s.opponent != nil:
		kind = network.ErrChallengePending
	case target.closed:
		kind = network.ErrTargetNotFound
	case target.match != nil:
		kind = network.ErrTargetInMatch
	case target.opponent != nil:
		kind = network.ErrTargetAlreadyChallenged
	default:
		s.opponent, s.challenged = target, false
		target.opponent, target.challenged = s, true
	}
	unlock()

	if kind != 0 {
		s.replyError(kind)
		return
	}

	s.logger.Info("%s challenged %s", s.name, target.name)
	s.reply(network.MsgChallengeSent)
	if err := target.Send(network.ChallengeRequest(s.name)); err != nil {
		s.logger.Warn("Challenge notice to %s failed: %v", target.name, err)
	}
}

func (s *Session) handleAccept(args []string) {
	s.mu.Lock()
	challenger, challenged, inMatch := s.opponent, s.challenged, s.match != nil
	s.mu.Unlock()

	if challenger == nil || !challenged || inMatch {
		s.replyError(network.ErrNotChallengerSet)
		return
	}
	if len(args) == 0 {
		s.replyError(network.ErrNoResponseGiven)
		return
	}

	switch strings.ToUpper(args[0]) {
	case "Y", "YES":
		s.acceptChallenge(challenger)
	case "N", "NO":
		s.declineChallenge(challenger)
	default:
		s.replyError(network.ErrInvalidResponse)
	}
}

func (s *Session) acceptChallenge(challenger *Session) {
	unlock := lockPair(s, challenger)
	if s.opponent != challenger || !s.challenged || s.match != nil {
		unlock()
		s.replyError(network.ErrNotChallengerSet)
		return
	}
	if challenger.closed || challenger.opponent != s || challenger.match != nil {
		s.opponent, s.challenged = nil, false
		unlock()
		s.replyError(network.ErrUserNotFound)
		return
	}
	ge := s.server.newMatch(challenger, s)
	s.match, challenger.match = ge, ge
	unlock()

	start := network.ChallengeStart(challenger.name, s.name)
	if err := challenger.Send(start); err != nil {
		s.logger.Warn("Match start notice to %s failed: %v", challenger.name, err)
	}
	s.reply(start)

	s.server.startMatch(ge)
}

func (s *Session) declineChallenge(challenger *Session) {
	unlock := lockPair(s, challenger)
	if s.opponent != challenger || s.match != nil {
		unlock()
		s.replyError(network.ErrNotChallengerSet)
		return
	}
	s.opponent, s.challenged = nil, false
	if challenger.opponent == s {
		challenger.opponent, challenger.challenged = nil, false
	}
	unlock()

	s.logger.Info("%s declined the challenge from %s", s.name, challenger.name)
	if err := challenger.Send(network.ChallengeDeclined(s.name)); err != nil {
		s.logger.Warn("Decline notice to %s failed: %v", challenger.name, err)
	}
	s.reply(network.MsgOK)
}

func (s *Session) handlePlay(args []string) {
	ge, _ := s.currentMatch()
	if ge == nil {
		s.replyError(network.ErrNotInMatch)
		return
	}
	if len(args) == 0 {
		s.replyError(network.ErrNoCardGiven)
		return
	}
	if _, ok := game.ParseChoice(args[0]); !ok || len(args) > 1 {
		s.replyError(network.ErrInvalidPlay)
		return
	}
	if !ge.Deliver(s.name, args[0]) {
		s.replyError(network.ErrNotInMatch)
		return
	}
	s.reply(network.MsgMoveAccepted)
}

func (s *Session) handleMatchMsg(args []string) {
	ge, opponent := s.currentMatch()
	if ge == nil || opponent == nil {
		s.replyError(network.ErrNotInMatch)
		return
	}
	if len(args) == 0 {
		s.replyError(network.ErrNoMessageGiven)
		return
	}
	if err := opponent.Send(network.MatchMsg(s.name, strings.Join(args, " "))); err != nil {
		s.logger.Warn("Chat relay to %s failed: %v", opponent.name, err)
	}
}

func (s *Session) handleSurrender() {
	ge, _ := s.currentMatch()
	if ge == nil {
		s.replyError(network.ErrNotInMatch)
		return
	}
	ge.Deliver(s.name, game.MoveSurrender)
	s.clearMatch(ge)
	s.logger.Info("%s surrendered", s.name)
	s.reply(network.MsgOK)
}

func (s *Session) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// leave notifies the running match, or cancels a pending challenge.
func (s *Session) leave() {
	for {
		ge, opponent := s.currentMatch()
		switch {
		case ge != nil:
			ge.Deliver(s.name, game.MoveDisconnect)
			s.clearMatch(ge)
			return
		case opponent != nil:
			if s.cancelChallenge(opponent) {
				return
			}
		default:
			return
		}
	}
}

// cancelChallenge unlinks a pending challenge. It returns false when the
// pairing changed underneath and the caller must look again.
func (s *Session) cancelChallenge(opponent *Session) bool {
	unlock := lockPair(s, opponent)
	if s.match != nil || s.opponent != opponent {
		unlock()
		return false
	}
	s.opponent, s.challenged = nil, false
	linked := opponent.opponent == s && opponent.match == nil
	if linked {
		opponent.opponent, opponent.challenged = nil, false
	}
	unlock()

	if linked {
		if err := opponent.Send(network.ChallengeCancelled(s.name)); err != nil {
			s.logger.Debug("Cancel notice to %s failed: %v", opponent.name, err)
		}
	}
	return true
}

// cleanup releases everything the session holds. Safe to call more than once.
func (s *Session) cleanup() {
	s.closeOnce.Do(func() {
		s.markClosed()
		s.leave()
		if s.name != "" {
			s.server.registry.Remove(s.name, s)
		}
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("Close failed: %v", err)
		}
		s.server.forgetSession(s)
		s.logger.Info("Client disconnected")
	})
}

// close ends the session from outside its read loop.
func (s *Session) close() {
	if err := s.conn.Close(); err != nil {
		s.logger.Debug("Close failed: %v", err)
	}
}
