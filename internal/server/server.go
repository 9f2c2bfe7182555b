// Package server implements the TCP lobby and match server for jitSUS
package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"jitsus/internal/events"
	"jitsus/internal/game"
	"jitsus/internal/network"
	"jitsus/pkg/logger"

	"github.com/pkg/errors"
)

const (
	DefaultMaxClients = 10
	maxRecentResults  = 50
)

// Server represents the TCP server
type Server struct {
	address     string
	maxClients  int
	moveTimeout time.Duration
	publisher   events.Publisher

	listener net.Listener
	registry *Registry
	ctx      context.Context
	cancel   context.CancelFunc

	mu        sync.RWMutex
	sessions  map[*Session]struct{}
	matches   map[string]*game.GameEngine
	results   []game.Summary
	startedAt time.Time

	active    atomic.Int32
	isRunning atomic.Bool
	wg        sync.WaitGroup
	logger    *logger.Logger
}

// Cfg configures a Server.
type Cfg func(*Server) error

// WithMaxClients caps the number of simultaneous connections.
func WithMaxClients(n int) Cfg {
	return func(s *Server) error {
		if n < 1 {
			return errors.Errorf("max clients must be positive, got %d", n)
		}
		s.maxClients = n
		return nil
	}
}

// WithMoveTimeout limits how long a match waits for a round's moves. Zero disables it.
func WithMoveTimeout(d time.Duration) Cfg {
	return func(s *Server) error {
		if d < 0 {
			return errors.Errorf("move timeout must not be negative, got %s", d)
		}
		s.moveTimeout = d
		return nil
	}
}

// WithPublisher sets where finished match summaries are sent.
func WithPublisher(p events.Publisher) Cfg {
	return func(s *Server) error {
		if p == nil {
			return errors.New("publisher must not be nil")
		}
		s.publisher = p
		return nil
	}
}

// NewServer creates a new TCP server instance
func NewServer(address string, cfgs ...Cfg) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		address:    address,
		maxClients: DefaultMaxClients,
		publisher:  events.Nop{},
		registry:   NewRegistry(),
		ctx:        ctx,
		cancel:     cancel,
		sessions:   make(map[*Session]struct{}),
		matches:    make(map[string]*game.GameEngine),
		logger:     logger.Server,
	}
	for _, cfg := range cfgs {
		if err := cfg(s); err != nil {
			cancel()
			return nil, errors.Wrap(err, "apply Server cfg failed")
		}
	}
	return s, nil
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return errors.Wrap(err, "failed to start server")
	}
	s.listener = listener
	s.startedAt = time.Now()
	s.isRunning.Store(true)
	s.logger.Info("Server started and listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start listens and accepts clients until Stop is called.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Serve accepts client connections on the bound listener.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.isRunning.Load() {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Warn("Temporary accept failure: %v", err)
				continue
			}
			return errors.Wrap(err, "accept failed")
		}

		if int(s.active.Add(1)) > s.maxClients {
			s.active.Add(-1)
			s.reject(conn)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.active.Add(-1)
			s.ServeConn(s.ctx, conn)
		}()
	}
}

func (s *Server) reject(conn net.Conn) {
	s.logger.Warn("Rejecting %s: server full", conn.RemoteAddr())
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err == nil {
		if _, err := conn.Write([]byte(network.MsgServerFull + "\n")); err != nil {
			s.logger.Debug("Server full notice failed: %v", err)
		}
	}
	conn.Close()
}

// ServeConn runs the command loop for one client until it disconnects or ctx is cancelled.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	sess := newSession(conn, s)

	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, sess.close)
	defer stop()

	sess.run()
}

func (s *Server) forgetSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess)
}

// newMatch binds a match between the challenger and the accepting player.
func (s *Server) newMatch(challenger, accepter *Session) *game.GameEngine {
	return game.NewGameEngine(challenger, accepter,
		game.WithMoveTimeout(s.moveTimeout),
		game.WithResultHook(s.recordResult),
	)
}

// startMatch runs ge on its own goroutine.
func (s *Server) startMatch(ge *game.GameEngine) {
	s.mu.Lock()
	s.matches[ge.ID()] = ge
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.matches, ge.ID())
			s.mu.Unlock()
		}()
		if err := ge.Run(s.ctx); err != nil && !errors.Is(err, game.ErrMatchAborted) {
			s.logger.Error("Match %s failed: %v", ge.ID(), err)
		}
	}()
}

func (s *Server) recordResult(summary game.Summary) {
	s.mu.Lock()
	s.results = append(s.results, summary)
	if len(s.results) > maxRecentResults {
		s.results = s.results[len(s.results)-maxRecentResults:]
	}
	s.mu.Unlock()

	if err := s.publisher.Publish(s.ctx, summary); err != nil {
		s.logger.Warn("Publish result of match %s failed: %v", summary.MatchID, err)
	}
}

// Stop shuts down the server. Running matches are aborted without being recorded.
func (s *Server) Stop() error {
	if !s.isRunning.CompareAndSwap(true, false) {
		return nil
	}

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Debug("Close listener failed: %v", err)
		}
	}

	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		if err := sess.Send(network.MsgServerShutdown); err != nil {
			sess.logger.Debug("Shutdown notice failed: %v", err)
		}
	}
	s.cancel()
	for _, sess := range sessions {
		sess.close()
	}

	s.wg.Wait()

	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("Close publisher failed: %v", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

// Status is a point-in-time view of the server.
type Status struct {
	Running       bool      `json:"running"`
	Address       string    `json:"address"`
	Connections   int       `json:"connections"`
	MaxClients    int       `json:"max_clients"`
	Players       int       `json:"players"`
	ActiveMatches int       `json:"active_matches"`
	StartedAt     time.Time `json:"started_at"`
}

func (s *Server) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addr := s.address
	if a := s.Addr(); a != nil {
		addr = a.String()
	}
	return Status{
		Running:       s.isRunning.Load(),
		Address:       addr,
		Connections:   len(s.sessions),
		MaxClients:    s.maxClients,
		Players:       s.registry.Count(),
		ActiveMatches: len(s.matches),
		StartedAt:     s.startedAt,
	}
}

// Players lists the players that are currently idle.
func (s *Server) Players() []PlayerInfo {
	return s.registry.ListAvailable("")
}

// RecentMatches returns the latest finished matches, newest first.
func (s *Server) RecentMatches() []game.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]game.Summary, len(s.results))
	for i, r := range s.results {
		out[len(s.results)-1-i] = r
	}
	return out
}
