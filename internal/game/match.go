package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/effects"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
	"github.com/nenshoukei/zombals-sub000/internal/scheduler"
)

const (
	defaultMulliganTimeout = 30 * time.Second
	defaultTurnTimeout     = 90 * time.Second

	// timerRetry re-arms a timeout whose fallback also failed.
	timerRetry = 5 * time.Second
)

// Phase is the coarse state of a match.
type Phase int

const (
	PhaseAwaitingStart Phase = iota
	PhaseMulligan
	PhaseTurn
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingStart:
		return "AWAITING_START"
	case PhaseMulligan:
		return "MULLIGAN"
	case PhaseTurn:
		return "ACTIVE_TURN"
	case PhaseFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Deck is the list of card definition ids a player brings.
type Deck struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Job   Job    `json:"job" yaml:"job"`
	Cards []int  `json:"cards" yaml:"cards"`
}

// PlayerConfig identifies one participant.
type PlayerConfig struct {
	UserID string `json:"userId"`
	Deck   Deck   `json:"deck"`
}

// Config describes a match before it starts. Players are in turn order; the
// caller decides who moves first.
type Config struct {
	ID              string
	Seed            uint64
	Players         [2]PlayerConfig
	MulliganTimeout time.Duration
	TurnTimeout     time.Duration
}

// Listener receives every batch of appended actions in log order. It runs
// synchronously after the batch is committed and must not send commands back
// into the match.
type Listener func(fromIndex int, actions []action.Action)

// Option configures a Match.
type Option func(*Match)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Match) { m.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(m *Match) { m.clock = clock }
}

// WithScheduler sets the scheduler used for mulligan and turn deadlines.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(m *Match) { m.sched = s }
}

type timerKind int

const (
	timerMulligan timerKind = iota + 1
	timerTurn
)

type timerSpec struct {
	kind timerKind
	at   time.Time
}

type cacheKey struct {
	kind string
	id   int
}

// Match owns the canonical state, log, RNG and timers of one game. All
// mutation happens under mu, one command or timer callback at a time.
type Match struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	id     string
	cfg    Config
	defs   *Registries
	logger *zap.Logger
	clock  func() time.Time
	sched  scheduler.Scheduler

	state  model.GameState
	log    []action.Action
	rng    *RNG
	lastID int
	hooks  *effects.HookGuard

	gen      uint64
	cacheGen uint64
	cache    map[cacheKey]interface{}

	phase        Phase
	users        map[model.Leader]string
	decks        map[model.Leader]Deck
	mulliganDone map[model.Leader]bool
	pending      *pendingSelection
	nextSelectID int

	timerWant  *timerSpec
	armedSpec  *timerSpec
	armed      scheduler.Timer
	startedAt  time.Time
	finishedAt *time.Time

	listeners []Listener
	g         *GameContext
}

// NewMatch creates a match waiting for Start.
func NewMatch(cfg Config, defs *Registries, opts ...Option) *Match {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.MulliganTimeout <= 0 {
		cfg.MulliganTimeout = defaultMulliganTimeout
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}
	m := &Match{
		id:           cfg.ID,
		cfg:          cfg,
		defs:         defs,
		logger:       zap.NewNop(),
		clock:        time.Now,
		state:        model.NewGameState(),
		log:          make([]action.Action, 0, 256),
		rng:          NewRNG(cfg.Seed),
		hooks:        effects.NewHookGuard(),
		users:        make(map[model.Leader]string),
		decks:        make(map[model.Leader]Deck),
		mulliganDone: make(map[model.Leader]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("game_id", m.id))
	m.g = &GameContext{m: m}
	return m
}

// ID returns the match id.
func (m *Match) ID() string { return m.id }

// Subscribe registers a listener for appended actions.
func (m *Match) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// State returns the current state snapshot.
func (m *Match) State() model.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Phase returns the current phase.
func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Finished reports whether the match ended.
func (m *Match) Finished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase == PhaseFinished
}

// Len returns the number of logged actions.
func (m *Match) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.log)
}

// Actions returns the log slice [from, to). A negative or out of range to
// means the end of the log.
func (m *Match) Actions(from, to int) []action.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	if to < 0 || to > len(m.log) {
		to = len(m.log)
	}
	if from < 0 {
		from = 0
	}
	if from >= to {
		return []action.Action{}
	}
	return append([]action.Action(nil), m.log[from:to]...)
}

// LeaderOf returns the side played by userID.
func (m *Match) LeaderOf(userID string) (model.Leader, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for l, u := range m.users {
		if u == userID {
			return l, true
		}
	}
	return model.LeaderNone, false
}

// UserOf returns the user playing leader l.
func (m *Match) UserOf(l model.Leader) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[l]
}

// Start deals the opening hands and opens the mulligan.
func (m *Match) Start() error {
	m.mu.Lock()
	from := len(m.log)
	if m.phase != PhaseAwaitingStart {
		m.mu.Unlock()
		return forbidden("match already started")
	}
	err := m.transact("start", m.start)
	m.syncTimer()
	m.unlockAndNotify(from)
	return err
}

// HandleCommand runs one player command to completion, including stabilization.
// On error the state, log and RNG are left exactly as before the call.
func (m *Match) HandleCommand(leader model.Leader, cmd Command) error {
	m.mu.Lock()
	from := len(m.log)
	if m.phase == PhaseFinished {
		m.mu.Unlock()
		return ErrMatchFinished
	}
	err := m.transact(cmd.Name(), func() error { return m.dispatch(leader, cmd) })
	m.syncTimer()
	m.unlockAndNotify(from)
	return err
}

// Surrender ends the match with leader losing. Disconnects and leaves go here.
func (m *Match) Surrender(leader model.Leader) error {
	return m.HandleCommand(leader, SurrenderCommand{})
}

// Stop cancels the armed timer. The match stays readable.
func (m *Match) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timerWant = nil
	m.syncTimer()
}

type checkpoint struct {
	state        model.GameState
	logLen       int
	rng          []byte
	lastID       int
	hooks        *effects.HookGuard
	phase        Phase
	mulliganDone map[model.Leader]bool
	pending      *pendingSelection
	nextSelectID int
	timerWant    *timerSpec
	finishedAt   *time.Time
}

func (m *Match) checkpoint() checkpoint {
	done := make(map[model.Leader]bool, len(m.mulliganDone))
	for k, v := range m.mulliganDone {
		done[k] = v
	}
	return checkpoint{
		state:        m.state,
		logLen:       len(m.log),
		rng:          m.rng.snapshot(),
		lastID:       m.lastID,
		hooks:        m.hooks.Clone(),
		phase:        m.phase,
		mulliganDone: done,
		pending:      m.pending,
		nextSelectID: m.nextSelectID,
		timerWant:    m.timerWant,
		finishedAt:   m.finishedAt,
	}
}

func (m *Match) restore(cp checkpoint) {
	m.state = cp.state
	m.log = m.log[:cp.logLen]
	m.rng.restore(cp.rng)
	m.lastID = cp.lastID
	m.hooks = cp.hooks
	m.phase = cp.phase
	m.mulliganDone = cp.mulliganDone
	m.pending = cp.pending
	m.nextSelectID = cp.nextSelectID
	m.timerWant = cp.timerWant
	m.finishedAt = cp.finishedAt
	m.gen++
}

// transact runs fn and the stabilization loop as one unit. Any error or panic
// restores the checkpoint taken before fn.
func (m *Match) transact(op string, fn func() error) (err error) {
	cp := m.checkpoint()
	defer func() {
		if r := recover(); r != nil {
			err = &RuntimeError{Op: op, Err: fmt.Errorf("panic: %v", r)}
		}
		if err == nil {
			return
		}
		if !IsForbidden(err) && !isRuntime(err) {
			err = &RuntimeError{Op: op, Err: err}
		}
		m.restore(cp)
		if IsForbidden(err) {
			m.logger.Debug("command forbidden", zap.String("op", op), zap.Error(err))
			return
		}
		m.logger.Error("command rolled back",
			zap.String("op", op),
			zap.Int("log_len", cp.logLen),
			zap.Error(err),
		)
	}()

	if err := fn(); err != nil {
		return err
	}
	return m.stabilize()
}

func (m *Match) unlockAndNotify(from int) {
	var batch []action.Action
	if len(m.log) > from {
		batch = append(batch, m.log[from:]...)
	}
	listeners := append([]Listener(nil), m.listeners...)

	// notifyMu is taken before mu is released so batches reach listeners in
	// commit order.
	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()

	if len(batch) == 0 {
		return
	}
	for _, l := range listeners {
		l(from, batch)
	}
}

// emit stamps a, applies it through the reducer and appends it to the log.
func (m *Match) emit(actor model.Leader, a action.Action) error {
	action.Stamp(a, actor, m.clock().UnixMilli())
	next, err := action.Apply(m.state, a)
	if err != nil {
		return &RuntimeError{Op: string(a.ActionType()), Err: err}
	}
	m.state = next
	m.log = append(m.log, a)
	m.gen++
	return nil
}

func (m *Match) nextID() int {
	m.lastID = max(m.lastID, m.state.LastObjectID) + 1
	return m.lastID
}

func (m *Match) cached(kind string, id int, build func() interface{}) interface{} {
	if m.cache == nil || m.cacheGen != m.gen {
		m.cache = make(map[cacheKey]interface{})
		m.cacheGen = m.gen
	}
	key := cacheKey{kind: kind, id: id}
	if c, ok := m.cache[key]; ok {
		return c
	}
	c := build()
	m.cache[key] = c
	return c
}

func (m *Match) setTimer(kind timerKind, at time.Time) {
	m.timerWant = &timerSpec{kind: kind, at: at}
}

// syncTimer stops the armed timer and arms the wanted one when they differ.
// It runs after every transaction, so a rolled back transition never leaves a
// stray timer behind.
func (m *Match) syncTimer() {
	if m.timerWant == m.armedSpec {
		return
	}
	if m.armed != nil {
		m.armed.Stop()
		m.armed = nil
	}
	m.armedSpec = m.timerWant
	if m.timerWant == nil || m.sched == nil {
		return
	}
	spec := m.timerWant
	m.armed = m.sched.AfterFunc(spec.at.Sub(m.clock()), func() { m.onTimer(spec) })
}

func (m *Match) onTimer(spec *timerSpec) {
	m.mu.Lock()
	if m.timerWant != spec || m.phase == PhaseFinished {
		m.mu.Unlock()
		return
	}
	from := len(m.log)
	m.armed = nil

	var err error
	switch spec.kind {
	case timerMulligan:
		err = m.transact("mulligan_timeout", m.finishMulligan)
	case timerTurn:
		err = m.transact("turn_timeout", m.timeoutTurn)
	}
	if err != nil {
		// The rolled back transition would fail the same way again, so the
		// match ends instead of waiting forever.
		if ferr := m.transact("timeout_abort", func() error { return m.finish(model.LeaderNone) }); ferr != nil {
			m.setTimer(spec.kind, m.clock().Add(timerRetry))
		}
	}
	m.syncTimer()
	m.unlockAndNotify(from)
}

func (m *Match) finish(winner model.Leader) error {
	if m.phase == PhaseFinished {
		return nil
	}
	if err := m.emit(model.LeaderNone, &action.End{Winner: winner}); err != nil {
		return err
	}
	now := m.clock()
	m.finishedAt = &now
	m.phase = PhaseFinished
	m.pending = nil
	m.timerWant = nil

	if winner == model.LeaderNone {
		m.logger.Info("match ended in draw", zap.Int("turn", m.state.Turn))
	} else {
		m.logger.Info("match ended",
			zap.String("winner", m.users[winner]),
			zap.Stringer("leader", winner),
			zap.Int("turn", m.state.Turn),
		)
	}
	return nil
}

// Record returns the persistent record of the match.
func (m *Match) Record() *Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := make([]RecordPlayer, 0, 2)
	for _, l := range model.Leaders {
		players = append(players, RecordPlayer{Leader: l, UserID: m.users[l], Deck: m.decks[l]})
	}
	r := &Record{
		ID:          m.id,
		Seed:        m.cfg.Seed,
		Players:     players,
		FirstUserID: m.users[model.LeaderFirst],
		Actions:     append(action.Log(nil), m.log...),
		StartedAt:   m.startedAt,
	}
	if m.phase == PhaseFinished {
		finished := *m.finishedAt
		r.FinishedAt = &finished
		r.Winner = m.state.Winner
		r.WinnerUserID = m.users[m.state.Winner]
	}
	return r
}

func isRuntime(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}
