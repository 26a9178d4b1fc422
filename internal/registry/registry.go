// Package registry owns the set of live rooms, keyed by their join code.
package registry

import (
	"fmt"
	rand "math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"bazas-game/internal/game"
	"bazas-game/internal/protocol"
	"bazas-game/internal/randutil"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

const (
	codeLength  = 6
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type entry struct {
	session  *game.Session
	teardown *quartz.Timer
}

// Registry maps room codes to sessions and controls their lifecycle.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*entry
	send     game.MessageSender
	rules    game.Rules
	clock    quartz.Clock
	logger   *log.Logger
	recorder game.Recorder
	rng      *rand.Rand
	grace    time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

func WithRules(r game.Rules) Option {
	return func(reg *Registry) { reg.rules = r }
}

func WithClock(c quartz.Clock) Option {
	return func(reg *Registry) { reg.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(reg *Registry) { reg.logger = l }
}

func WithRecorder(r game.Recorder) Option {
	return func(reg *Registry) { reg.recorder = r }
}

// WithRand fixes the source used for room codes and deck shuffles.
func WithRand(rng *rand.Rand) Option {
	return func(reg *Registry) { reg.rng = rng }
}

// WithGrace delays the teardown of empty rooms so players can reconnect.
func WithGrace(d time.Duration) Option {
	return func(reg *Registry) { reg.grace = d }
}

// New creates an empty registry. Every session it creates sends through send.
func New(send game.MessageSender, opts ...Option) *Registry {
	r := &Registry{
		rooms:    make(map[string]*entry),
		send:     send,
		rules:    game.DefaultRules(),
		clock:    quartz.NewReal(),
		logger:   log.Default(),
		recorder: game.NopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = randutil.New(time.Now().UnixNano())
	}
	return r
}

// Create opens a room with the host seated. maxSeats 0 keeps the default.
func (r *Registry) Create(hostID, hostName string, maxSeats int) (*game.Session, error) {
	rules := r.rules.WithMaxSeats(maxSeats)
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	r.mu.Lock()
	code := r.generateCode()
	seed := int64(r.rng.Uint64())
	room := game.NewRoom(code, hostID, hostName, rules, randutil.Float(randutil.New(seed)))
	session := game.NewSession(room, r.send,
		game.WithClock(r.clock),
		game.WithLogger(r.logger.WithPrefix("room")),
		game.WithRecorder(r.recorder),
		game.WithTeardown(func(code string) { r.Delete(code) }),
	)
	r.rooms[code] = &entry{session: session}
	total := len(r.rooms)
	r.mu.Unlock()

	r.logger.Info("room created", "code", code, "host", hostID, "max_seats", rules.MaxSeats, "rooms", total)
	return session, nil
}

// generateCode returns an unused code. Assumes the lock is held.
func (r *Registry) generateCode() string {
	for {
		var sb strings.Builder
		for i := 0; i < codeLength; i++ {
			sb.WriteByte(codeLetters[r.rng.IntN(len(codeLetters))])
		}
		code := sb.String()
		if _, exists := r.rooms[code]; !exists {
			return code
		}
		r.logger.Debug("room code collided, retrying", "code", code)
	}
}

// Get looks a room up by code, ignoring case.
func (r *Registry) Get(code string) (*game.Session, error) {
	code = protocol.NormalizeCode(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", game.ErrRoomNotFound, code)
	}
	return e.session, nil
}

// Join seats a player and cancels any pending teardown of the room.
func (r *Registry) Join(code, playerID, name string) (*game.Session, error) {
	s, err := r.Get(code)
	if err != nil {
		return nil, err
	}
	if err := s.Join(playerID, name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if e, ok := r.rooms[s.Code()]; ok && e.session == s && e.teardown != nil {
		e.teardown.Stop()
		e.teardown = nil
		r.logger.Debug("room teardown cancelled", "code", s.Code())
	}
	r.mu.Unlock()
	return s, nil
}

// Leave removes a player and releases the room once it is empty.
func (r *Registry) Leave(code, playerID string) error {
	s, err := r.Get(code)
	if err != nil {
		return err
	}
	remaining, err := s.Leave(playerID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		r.Release(s.Code())
	}
	return nil
}

// Release schedules an empty room for teardown after the grace period.
func (r *Registry) Release(code string) {
	r.mu.Lock()
	e, ok := r.rooms[code]
	if !ok {
		r.mu.Unlock()
		return
	}
	if r.grace <= 0 {
		r.mu.Unlock()
		r.deleteIfEmpty(code, e.session)
		return
	}
	if e.teardown != nil {
		e.teardown.Stop()
	}
	session := e.session
	e.teardown = r.clock.AfterFunc(r.grace, func() {
		r.deleteIfEmpty(code, session)
	}, "teardown", code)
	r.mu.Unlock()
	r.logger.Debug("room released", "code", code, "grace", r.grace)
}

func (r *Registry) deleteIfEmpty(code string, s *game.Session) {
	if s.Occupants() > 0 {
		return
	}
	r.mu.Lock()
	e, ok := r.rooms[code]
	if !ok || e.session != s {
		r.mu.Unlock()
		return
	}
	delete(r.rooms, code)
	total := len(r.rooms)
	r.mu.Unlock()

	s.Close()
	r.logger.Info("room closed", "code", code, "rooms", total)
}

// Delete tears a room down immediately.
func (r *Registry) Delete(code string) bool {
	r.mu.Lock()
	e, ok := r.rooms[code]
	if ok {
		if e.teardown != nil {
			e.teardown.Stop()
		}
		delete(r.rooms, code)
	}
	r.mu.Unlock()

	if ok {
		e.session.Close()
		r.logger.Info("room deleted", "code", code)
	}
	return ok
}

// List summarizes every room, ordered by code.
func (r *Registry) List() []protocol.RoomSummary {
	r.mu.Lock()
	sessions := make([]*game.Session, 0, len(r.rooms))
	for _, e := range r.rooms {
		sessions = append(sessions, e.session)
	}
	r.mu.Unlock()

	out := make([]protocol.RoomSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
