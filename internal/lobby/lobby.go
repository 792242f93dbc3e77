// Package lobby pairs users into matches and routes their requests to the
// match they play in.
//
// Lock order: a match may call back into the lobby (listeners) while holding
// its own notification lock, so the lobby never calls a match method while
// holding Lobby.mu.
package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/nenshoukei/zombals-sub000/internal/game"
	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/deck"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
	"github.com/nenshoukei/zombals-sub000/internal/protocol"
	"github.com/nenshoukei/zombals-sub000/internal/repository"
	"github.com/nenshoukei/zombals-sub000/internal/scheduler"
)

const (
	defaultWaitingTimeout = 60 * time.Second
	defaultAcceptTimeout  = 15 * time.Second
	defaultSaveWorkers    = 8
	defaultSaveTimeout    = 10 * time.Second
)

// Config holds the lobby settings.
type Config struct {
	ClientVersion   string
	WaitingTimeout  time.Duration
	AcceptTimeout   time.Duration
	MulliganTimeout time.Duration
	TurnTimeout     time.Duration
	SaveWorkers     int
	SaveTimeout     time.Duration
}

func (c *Config) setDefaults() {
	if c.WaitingTimeout <= 0 {
		c.WaitingTimeout = defaultWaitingTimeout
	}
	if c.AcceptTimeout <= 0 {
		c.AcceptTimeout = defaultAcceptTimeout
	}
	if c.SaveWorkers <= 0 {
		c.SaveWorkers = defaultSaveWorkers
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = defaultSaveTimeout
	}
}

// Option configures a Lobby.
type Option func(*Lobby)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Lobby) { l.logger = logger }
}

// WithScheduler sets the scheduler for lobby and match deadlines.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(l *Lobby) { l.sched = s }
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(l *Lobby) { l.clock = clock }
}

// WithRecordStore saves the record of every finished match to store.
func WithRecordStore(store repository.RecordStore) Option {
	return func(l *Lobby) { l.records = store }
}

// WithSeeder replaces the source of match seeds.
func WithSeeder(seed func() uint64) Option {
	return func(l *Lobby) { l.seed = seed }
}

// Stats counts lobby events since start.
type Stats struct {
	Entered  int64 `json:"entered"`
	Paired   int64 `json:"paired"`
	Expired  int64 `json:"expired"`
	Started  int64 `json:"started"`
	Finished int64 `json:"finished"`
	Saved    int64 `json:"saved"`
	Waiting  int   `json:"waiting"`
	Ongoing  int   `json:"ongoing"`
}

// Lobby owns the matchmaking queue and every user session.
type Lobby struct {
	mu        sync.Mutex
	cfg       Config
	logger    *zap.Logger
	defs      *game.Registries
	decks     repository.DeckStore
	validator *deck.Validator
	records   repository.RecordStore
	sched     scheduler.Scheduler
	clock     func() time.Time
	seed      func() uint64
	pool      *ants.Pool

	maintenance atomic.Bool

	conns    map[string]Conn
	sessions map[string]*session
	queue    []*session

	entered  atomic.Int64
	paired   atomic.Int64
	expired  atomic.Int64
	started  atomic.Int64
	finished atomic.Int64
	saved    atomic.Int64
}

// New creates a lobby. defs is shared by every match; decks resolves the deck
// ids of LOBBY_ENTER.
func New(cfg Config, defs *game.Registries, decks repository.DeckStore, opts ...Option) (*Lobby, error) {
	cfg.setDefaults()
	l := &Lobby{
		cfg:       cfg,
		logger:    zap.NewNop(),
		defs:      defs,
		decks:     decks,
		validator: deck.NewValidator(defs.Cards),
		clock:     time.Now,
		seed:      rand.Uint64,
		conns:     make(map[string]Conn),
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sched == nil {
		return nil, errors.New("lobby needs a scheduler")
	}
	pool, err := ants.NewPool(cfg.SaveWorkers, ants.WithExpiryDuration(60*time.Second))
	if err != nil {
		return nil, fmt.Errorf("record pool init failed: %w", err)
	}
	l.pool = pool
	return l, nil
}

// SetMaintenance toggles maintenance mode. New lobby entries are refused
// while it is on; running matches continue.
func (l *Lobby) SetMaintenance(on bool) {
	if l.maintenance.Swap(on) != on {
		l.logger.Info("maintenance mode changed", zap.Bool("maintenance", on))
	}
}

// Maintenance reports whether maintenance mode is on.
func (l *Lobby) Maintenance() bool {
	return l.maintenance.Load()
}

// Attach registers the socket of a user. An older socket of the same user is
// evicted; its later Detach is ignored. A user with a running match is
// reattached to it.
func (l *Lobby) Attach(c Conn) {
	l.mu.Lock()
	old := l.conns[c.UserID()]
	l.conns[c.UserID()] = c
	if s, ok := l.sessions[c.UserID()]; ok {
		l.resendLocked(c, s)
	}
	l.mu.Unlock()

	if old != nil && old != c {
		l.logger.Info("socket evicted",
			zap.String("user_id", c.UserID()),
			zap.String("old_conn", old.ID()),
			zap.String("new_conn", c.ID()),
		)
		old.Close()
	}
}

// Detach handles a closed socket. Losing the live socket leaves the queue and
// surrenders a running match.
func (l *Lobby) Detach(c Conn) {
	l.mu.Lock()
	if l.conns[c.UserID()] != c {
		l.mu.Unlock()
		return
	}
	delete(l.conns, c.UserID())
	m, leader, started := l.leaveLocked(c.UserID())
	l.mu.Unlock()

	if m != nil {
		l.logger.Info("player disconnected from match",
			zap.String("user_id", c.UserID()),
			zap.String("game_id", m.ID()),
		)
		l.surrender(m, leader, started)
	}
}

// Handle runs one client request.
func (l *Lobby) Handle(ctx context.Context, c Conn, req protocol.Request) {
	switch r := req.(type) {
	case protocol.LobbyEnter:
		l.enter(ctx, c, r)
	case protocol.LobbyLeave:
		l.leave(c)
	case protocol.GameStart:
		l.accept(c)
	case protocol.GameCommand:
		l.command(c, r.Command)
	case protocol.GameActionDemand:
		l.demand(c, r)
	default:
		c.Send(protocol.Deny(protocol.ReasonForbidden, fmt.Sprintf("unsupported request %s", req.RequestType())))
	}
}

func (l *Lobby) enter(ctx context.Context, c Conn, req protocol.LobbyEnter) {
	if l.Maintenance() {
		c.Send(protocol.Deny(protocol.ReasonMaintenance, "server is under maintenance"))
		return
	}
	if req.ClientVersion != l.cfg.ClientVersion {
		c.Send(protocol.Deny(protocol.ReasonVersionMismatch,
			fmt.Sprintf("client version %q does not match %q", req.ClientVersion, l.cfg.ClientVersion)))
		return
	}
	userID := c.UserID()

	l.mu.Lock()
	if s, ok := l.sessions[userID]; ok && s.state != StateEnded {
		if s.state == StateOngoing {
			l.resendLocked(c, s)
		} else {
			c.Send(protocol.Deny(protocol.ReasonForbidden, "already in the lobby"))
		}
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	d, err := l.decks.FindDeck(ctx, userID, req.DeckID)
	if errors.Is(err, repository.ErrNotFound) {
		c.Send(protocol.Deny(protocol.ReasonForbidden, fmt.Sprintf("deck %q not found", req.DeckID)))
		return
	}
	if err != nil {
		l.logger.Error("failed to load deck", zap.String("user_id", userID), zap.String("deck_id", req.DeckID), zap.Error(err))
		c.Send(protocol.Deny(protocol.ReasonError, "failed to load deck"))
		return
	}
	if res := l.validator.Validate(d); !res.OK() {
		c.Send(protocol.Deny(protocol.ReasonForbidden, strings.Join(res.Messages(c.Language()), "\n")))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.sessions[userID]; ok && s.state != StateEnded {
		c.Send(protocol.Deny(protocol.ReasonForbidden, "already in the lobby"))
		return
	}
	s := &session{userID: userID, deck: d, passCode: req.PassCode, state: StateWaiting}
	l.sessions[userID] = s
	l.queue = append(l.queue, s)
	l.armWaitingLocked(s)
	l.entered.Add(1)
	l.logger.Debug("user entered lobby", zap.String("user_id", userID), zap.String("deck_id", d.ID))

	c.Send(protocol.LobbyWaiting{WaitUntil: s.deadline.UnixMilli()})
	l.matchQueueLocked()
}

func (l *Lobby) leave(c Conn) {
	l.mu.Lock()
	if _, ok := l.sessions[c.UserID()]; !ok {
		l.mu.Unlock()
		c.Send(protocol.Deny(protocol.ReasonNoGame, "not in the lobby"))
		return
	}
	m, leader, started := l.leaveLocked(c.UserID())
	l.mu.Unlock()

	if m != nil {
		l.surrender(m, leader, started)
	}
}

// leaveLocked removes a user from matchmaking. For a running match it returns
// the match and side to surrender, which the caller does after unlocking, and
// the channel closed once the match has started.
func (l *Lobby) leaveLocked(userID string) (*game.Match, model.Leader, <-chan struct{}) {
	s, ok := l.sessions[userID]
	if !ok {
		return nil, model.LeaderNone, nil
	}
	switch s.state {
	case StateWaiting:
		l.dropLocked(s)
	case StateWaitingAccept:
		l.breakPairingLocked(s.pairing, s)
	case StateOngoing:
		return s.match, s.leader, s.started
	case StateEnded:
		delete(l.sessions, userID)
	}
	return nil, model.LeaderNone, nil
}

func (l *Lobby) accept(c Conn) {
	l.mu.Lock()
	s, ok := l.sessions[c.UserID()]
	if !ok || s.state != StateWaitingAccept {
		l.mu.Unlock()
		c.Send(protocol.Deny(protocol.ReasonNoGame, "no match to accept"))
		return
	}
	p := s.pairing
	p.accepted[p.index(s)] = true
	if !p.allAccepted() {
		l.mu.Unlock()
		return
	}
	p.stop()
	m, users, started := l.newMatchLocked(p)
	l.mu.Unlock()

	err := m.Start()
	close(started)
	if err != nil {
		l.logger.Error("failed to start match", zap.String("game_id", m.ID()), zap.Error(err))
	}
	l.started.Add(1)

	l.mu.Lock()
	for _, u := range users {
		if c, ok := l.conns[u]; ok {
			c.Send(protocol.Ready{})
		}
	}
	l.mu.Unlock()
}

// newMatchLocked creates the match of an accepted pairing and moves both
// sessions to ONGOING. The seed decides who moves first: users[0] plays
// LeaderFirst both here and in the match. The returned channel must be closed
// once Start has returned.
func (l *Lobby) newMatchLocked(p *pairing) (*game.Match, [2]string, chan struct{}) {
	seed := l.seed()
	order := p.sessions
	if seed&1 == 1 {
		order[0], order[1] = order[1], order[0]
	}
	users := [2]string{order[0].userID, order[1].userID}

	m := game.NewMatch(game.Config{
		Seed: seed,
		Players: [2]game.PlayerConfig{
			{UserID: users[0], Deck: order[0].deck},
			{UserID: users[1], Deck: order[1].deck},
		},
		MulliganTimeout: l.cfg.MulliganTimeout,
		TurnTimeout:     l.cfg.TurnTimeout,
	}, l.defs,
		game.WithLogger(l.logger),
		game.WithScheduler(l.sched),
		game.WithClock(l.clock),
	)
	// m is not reachable from any other goroutine yet, so its lock is free.
	m.Subscribe(l.listener(m, users))
	started := make(chan struct{})

	for i, s := range order {
		s.state = StateOngoing
		s.pairing = nil
		s.match = m
		s.started = started
		s.leader = model.Leaders[i]
		s.deadline = time.Time{}
		if c, ok := l.conns[s.userID]; ok {
			c.Send(protocol.GameStarted{UserIDs: users[:]})
		}
	}
	l.logger.Info("match created",
		zap.String("game_id", m.ID()),
		zap.String("first", users[0]),
		zap.String("second", users[1]),
	)
	return m, users, started
}

// listener pushes every committed batch to both players through the fog
// filter and closes the sessions when the match ends.
func (l *Lobby) listener(m *game.Match, users [2]string) game.Listener {
	return func(from int, actions []action.Action) {
		ended := lo.ContainsBy(actions, func(a action.Action) bool { return a.ActionType() == action.TypeEnd })

		l.mu.Lock()
		for i, u := range users {
			c, online := l.conns[u]
			if online {
				c.Send(protocol.GameAction{Actions: protocol.Filter(model.Leaders[i], actions), FromIndex: from})
			}
			if !ended {
				continue
			}
			if s, ok := l.sessions[u]; ok && s.match == m {
				s.state = StateEnded
				if !online {
					delete(l.sessions, u)
				}
			}
		}
		l.mu.Unlock()

		if ended {
			l.finished.Add(1)
			l.saveRecord(m)
		}
	}
}

func (l *Lobby) saveRecord(m *game.Match) {
	if l.records == nil {
		return
	}
	err := l.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.cfg.SaveTimeout)
		defer cancel()
		if err := l.records.SaveRecord(ctx, m.Record()); err != nil {
			l.logger.Error("failed to save record", zap.String("game_id", m.ID()), zap.Error(err))
			return
		}
		l.saved.Add(1)
	})
	if err != nil {
		l.logger.Error("failed to queue record save", zap.String("game_id", m.ID()), zap.Error(err))
	}
}

// matchOf returns the match the user plays or played.
func (l *Lobby) matchOf(userID string) (*game.Match, model.Leader, State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[userID]
	if !ok || s.match == nil {
		return nil, model.LeaderNone, 0
	}
	return s.match, s.leader, s.state
}

func (l *Lobby) command(c Conn, raw json.RawMessage) {
	id, cmd, err := protocol.DecodeCommand(raw)
	if err != nil {
		c.Send(protocol.DenyCommand(protocol.ReasonForbidden, err.Error(), id))
		return
	}
	m, leader, state := l.matchOf(c.UserID())
	switch {
	case m == nil:
		c.Send(protocol.DenyCommand(protocol.ReasonNoGame, "no running match", id))
		return
	case state == StateEnded:
		c.Send(protocol.DenyCommand(protocol.ReasonGameEnded, "match has ended", id))
		return
	}

	err = m.HandleCommand(leader, cmd)
	switch {
	case err == nil:
		c.Send(protocol.Ready{})
	case errors.Is(err, game.ErrMatchFinished):
		c.Send(protocol.DenyCommand(protocol.ReasonGameEnded, "match has ended", id))
	case game.IsForbidden(err):
		c.Send(protocol.DenyCommand(protocol.ReasonForbidden, err.Error(), id))
	default:
		l.logger.Error("command failed",
			zap.String("game_id", m.ID()),
			zap.String("user_id", c.UserID()),
			zap.String("command", cmd.Name()),
			zap.Error(err),
		)
		c.Send(protocol.DenyCommand(protocol.ReasonError, "internal error", id))
	}
}

func (l *Lobby) demand(c Conn, req protocol.GameActionDemand) {
	m, leader, _ := l.matchOf(c.UserID())
	if m == nil {
		c.Send(protocol.Deny(protocol.ReasonNoGame, "no match"))
		return
	}
	to := -1
	if req.ToIndex != nil {
		to = *req.ToIndex
	}
	from := max(req.FromIndex, 0)
	c.Send(protocol.GameAction{Actions: protocol.Filter(leader, m.Actions(from, to)), FromIndex: from})
}

// surrender concedes for leader. A leave racing with the accept that created
// the match waits for Start so the concession lands on a started match.
func (l *Lobby) surrender(m *game.Match, leader model.Leader, started <-chan struct{}) {
	if started != nil {
		<-started
	}
	if err := m.Surrender(leader); err != nil && !errors.Is(err, game.ErrMatchFinished) {
		l.logger.Warn("surrender failed", zap.String("game_id", m.ID()), zap.Error(err))
	}
}

// resendLocked tells a (re)attached socket where its user stands.
func (l *Lobby) resendLocked(c Conn, s *session) {
	switch s.state {
	case StateWaiting:
		c.Send(protocol.LobbyWaiting{WaitUntil: s.deadline.UnixMilli()})
	case StateWaitingAccept:
		c.Send(protocol.GameWaiting{WaitUntil: s.deadline.UnixMilli()})
	case StateOngoing:
		c.Send(protocol.GameStarted{UserIDs: l.usersLocked(s)})
		c.Send(protocol.Ready{})
	}
}

// usersLocked returns the participants of the session's match in leader order
// without touching the match lock.
func (l *Lobby) usersLocked(s *session) []string {
	users := make([]string, 2)
	for _, other := range l.sessions {
		if other.match == s.match {
			users[other.leader-model.LeaderFirst] = other.userID
		}
	}
	return users
}

// Session returns a snapshot of the user's lobby entry.
func (l *Lobby) Session(userID string) (SessionSnapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[userID]
	if !ok {
		return SessionSnapshot{}, false
	}
	return s.snapshot(), true
}

// Stats returns the lobby counters.
func (l *Lobby) Stats() Stats {
	l.mu.Lock()
	waiting := len(l.queue)
	ongoing := lo.CountBy(lo.Values(l.sessions), func(s *session) bool { return s.state == StateOngoing })
	l.mu.Unlock()

	return Stats{
		Entered:  l.entered.Load(),
		Paired:   l.paired.Load(),
		Expired:  l.expired.Load(),
		Started:  l.started.Load(),
		Finished: l.finished.Load(),
		Saved:    l.saved.Load(),
		Waiting:  waiting,
		Ongoing:  ongoing,
	}
}

// Close stops every deadline and running match timer and waits for pending
// record saves.
func (l *Lobby) Close() error {
	l.mu.Lock()
	matches := make(map[*game.Match]struct{})
	for _, s := range l.sessions {
		s.stopTimer()
		if s.pairing != nil {
			s.pairing.stop()
		}
		if s.match != nil && s.state == StateOngoing {
			matches[s.match] = struct{}{}
		}
	}
	l.queue = nil
	l.mu.Unlock()

	for m := range matches {
		m.Stop()
	}
	return l.pool.ReleaseTimeout(l.cfg.SaveTimeout)
}
