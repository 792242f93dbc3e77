package lobby_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/catalog"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
	"github.com/nenshoukei/zombals-sub000/internal/lobby"
	"github.com/nenshoukei/zombals-sub000/internal/protocol"
	"github.com/nenshoukei/zombals-sub000/internal/repository"
	"github.com/nenshoukei/zombals-sub000/internal/scheduler"
)

const clientVersion = "1.2.0"

type fakeConn struct {
	id     string
	user   string
	lang   language.Tag
	mu     sync.Mutex
	sent   []protocol.Response
	closed bool

	// onSend sees every response. It runs under the lobby lock.
	onSend func(protocol.Response)
}

func (c *fakeConn) ID() string             { return c.id }
func (c *fakeConn) UserID() string         { return c.user }
func (c *fakeConn) Language() language.Tag { return c.lang }

func (c *fakeConn) Send(r protocol.Response) {
	c.mu.Lock()
	c.sent = append(c.sent, r)
	hook := c.onSend
	c.mu.Unlock()
	if hook != nil {
		hook(r)
	}
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// take returns and clears everything sent so far.
func (c *fakeConn) take() []protocol.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.sent
	c.sent = nil
	return out
}

func types(rs []protocol.Response) []protocol.ResponseType {
	return lo.Map(rs, func(r protocol.Response, _ int) protocol.ResponseType { return r.ResponseType() })
}

func denial(t *testing.T, rs []protocol.Response) protocol.Denied {
	t.Helper()
	require.NotEmpty(t, rs)
	d, ok := rs[len(rs)-1].(protocol.Denied)
	require.True(t, ok, "last response is %s", rs[len(rs)-1].ResponseType())
	return d
}

type lobbyHarness struct {
	t       *testing.T
	lobby   *lobby.Lobby
	sched   *scheduler.Fake
	records *repository.MemoryStore
	seq     int
}

func newLobbyHarness(t *testing.T) *lobbyHarness {
	t.Helper()
	return newSeededLobbyHarness(t, 2)
}

func newSeededLobbyHarness(t *testing.T, seed uint64) *lobbyHarness {
	t.Helper()
	cards := []int{
		catalog.ZombieFootman, catalog.ShieldBearer, catalog.SwiftHound, catalog.BoneArcher,
		catalog.TwinBlade, catalog.NightShade, catalog.GraveDigger, catalog.Ogre,
		catalog.FireBolt, catalog.RustySword,
	}
	list, err := json.Marshal(append(cards, cards...))
	require.NoError(t, err)
	decks, err := repository.ParseDecks([]byte(fmt.Sprintf(
		"decks:\n  - id: warrior\n    job: warrior\n    cards: %s\n  - id: short\n    job: warrior\n    cards: [%d]\n",
		list, catalog.Ogre)))
	require.NoError(t, err)

	sched := scheduler.NewFake(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	records := repository.NewMemoryStore()
	l, err := lobby.New(lobby.Config{ClientVersion: clientVersion}, catalog.MustNew(), decks,
		lobby.WithLogger(zaptest.NewLogger(t)),
		lobby.WithScheduler(sched),
		lobby.WithClock(sched.Now),
		lobby.WithRecordStore(records),
		lobby.WithSeeder(func() uint64 { return seed }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return &lobbyHarness{t: t, lobby: l, sched: sched, records: records}
}

func (h *lobbyHarness) connect(user string) *fakeConn {
	h.seq++
	c := &fakeConn{id: fmt.Sprintf("conn-%d", h.seq), user: user, lang: language.English}
	h.lobby.Attach(c)
	return c
}

func (h *lobbyHarness) send(c *fakeConn, req protocol.Request) {
	h.lobby.Handle(context.Background(), c, req)
}

func (h *lobbyHarness) enter(c *fakeConn, passCode string) {
	h.send(c, protocol.LobbyEnter{ClientVersion: clientVersion, DeckID: "warrior", PassCode: passCode})
}

func (h *lobbyHarness) command(c *fakeConn, id int, raw string) {
	h.send(c, protocol.GameCommand{Command: json.RawMessage(fmt.Sprintf(`{"id":%d,%s}`, id, raw))})
}

// startMatch pairs alice and bob and has both accept.
func (h *lobbyHarness) startMatch() (*fakeConn, *fakeConn) {
	alice, bob := h.connect("alice"), h.connect("bob")
	h.enter(alice, "")
	h.enter(bob, "")
	h.send(alice, protocol.GameStart{})
	h.send(bob, protocol.GameStart{})
	return alice, bob
}

func TestEnterChecksVersionAndMaintenance(t *testing.T) {
	h := newLobbyHarness(t)
	c := h.connect("alice")

	h.send(c, protocol.LobbyEnter{ClientVersion: "0.9.0", DeckID: "warrior"})
	assert.Equal(t, protocol.ReasonVersionMismatch, denial(t, c.take()).Reason)

	h.lobby.SetMaintenance(true)
	h.enter(c, "")
	assert.Equal(t, protocol.ReasonMaintenance, denial(t, c.take()).Reason)

	h.lobby.SetMaintenance(false)
	h.enter(c, "")
	assert.Equal(t, []protocol.ResponseType{protocol.ResponseLobbyWaiting}, types(c.take()))
}

func TestEnterValidatesDeck(t *testing.T) {
	h := newLobbyHarness(t)
	c := h.connect("alice")

	h.send(c, protocol.LobbyEnter{ClientVersion: clientVersion, DeckID: "missing"})
	assert.Equal(t, protocol.ReasonForbidden, denial(t, c.take()).Reason)

	h.send(c, protocol.LobbyEnter{ClientVersion: clientVersion, DeckID: "short"})
	d := denial(t, c.take())
	assert.Equal(t, protocol.ReasonForbidden, d.Reason)
	assert.Contains(t, d.Message, "A deck must have 20 cards")

	c.lang = language.Japanese
	h.send(c, protocol.LobbyEnter{ClientVersion: clientVersion, DeckID: "short"})
	assert.Contains(t, denial(t, c.take()).Message, "デッキは20枚")

	_, ok := h.lobby.Session("alice")
	assert.False(t, ok)
}

func TestEnterTwiceIsForbidden(t *testing.T) {
	h := newLobbyHarness(t)
	c := h.connect("alice")
	h.enter(c, "")
	c.take()

	h.enter(c, "")
	assert.Equal(t, protocol.ReasonForbidden, denial(t, c.take()).Reason)
}

func TestPairAndAccept(t *testing.T) {
	h := newLobbyHarness(t)
	alice, bob := h.connect("alice"), h.connect("bob")

	h.enter(alice, "")
	waiting := alice.take()
	require.Equal(t, []protocol.ResponseType{protocol.ResponseLobbyWaiting}, types(waiting))
	assert.Equal(t, h.sched.Now().Add(60*time.Second).UnixMilli(), waiting[0].(protocol.LobbyWaiting).WaitUntil)

	h.enter(bob, "")
	assert.Equal(t, []protocol.ResponseType{protocol.ResponseGameWaiting}, types(alice.take()))
	assert.Equal(t, []protocol.ResponseType{protocol.ResponseLobbyWaiting, protocol.ResponseGameWaiting}, types(bob.take()))

	s, ok := h.lobby.Session("alice")
	require.True(t, ok)
	assert.Equal(t, lobby.StateWaitingAccept, s.State)

	h.send(alice, protocol.GameStart{})
	assert.Empty(t, alice.take())

	h.send(bob, protocol.GameStart{})
	for _, c := range []*fakeConn{alice, bob} {
		rs := c.take()
		require.Equal(t, []protocol.ResponseType{
			protocol.ResponseGameStart, protocol.ResponseGameAction, protocol.ResponseReady,
		}, types(rs), c.user)
		assert.Equal(t, []string{"alice", "bob"}, rs[0].(protocol.GameStarted).UserIDs)
		batch := rs[1].(protocol.GameAction)
		assert.Equal(t, 0, batch.FromIndex)
		assert.Equal(t, action.TypeStart, batch.Actions[0].ActionType())
	}

	s, _ = h.lobby.Session("alice")
	assert.Equal(t, lobby.StateOngoing, s.State)
	assert.Equal(t, model.LeaderFirst, s.Leader)
	s, _ = h.lobby.Session("bob")
	assert.Equal(t, model.LeaderSecond, s.Leader)
	assert.Equal(t, 2, h.lobby.Stats().Ongoing)
}

func TestStartBatchIsFiltered(t *testing.T) {
	h := newLobbyHarness(t)
	alice, _ := h.startMatch()

	rs := alice.take()
	start := rs[1].(protocol.GameAction).Actions[0].(*action.Start)
	assert.False(t, lo.SomeBy(start.Players[model.LeaderFirst].Hand, model.CardState.IsMasked))
	assert.True(t, lo.EveryBy(start.Players[model.LeaderSecond].Hand, model.CardState.IsMasked))
}

func TestPassCodeSeparatesQueues(t *testing.T) {
	h := newLobbyHarness(t)
	alice, bob, carol := h.connect("alice"), h.connect("bob"), h.connect("carol")

	h.enter(alice, "x")
	h.enter(bob, "y")
	h.enter(carol, "x")

	a, _ := h.lobby.Session("alice")
	b, _ := h.lobby.Session("bob")
	c, _ := h.lobby.Session("carol")
	assert.Equal(t, lobby.StateWaitingAccept, a.State)
	assert.Equal(t, lobby.StateWaiting, b.State)
	assert.Equal(t, lobby.StateWaitingAccept, c.State)
	assert.Equal(t, 1, h.lobby.Stats().Waiting)
}

func TestWaitingTimeoutExpires(t *testing.T) {
	h := newLobbyHarness(t)
	c := h.connect("alice")
	h.enter(c, "")
	c.take()

	h.sched.Advance(59 * time.Second)
	assert.Empty(t, c.take())

	h.sched.Advance(time.Second)
	assert.Equal(t, protocol.ReasonExpired, denial(t, c.take()).Reason)
	_, ok := h.lobby.Session("alice")
	assert.False(t, ok)
	assert.EqualValues(t, 1, h.lobby.Stats().Expired)
}

func TestAcceptTimeoutRequeuesAcceptor(t *testing.T) {
	h := newLobbyHarness(t)
	alice, bob := h.connect("alice"), h.connect("bob")
	h.enter(alice, "")
	h.enter(bob, "")
	h.send(alice, protocol.GameStart{})
	alice.take()
	bob.take()

	h.sched.Advance(15 * time.Second)

	assert.Equal(t, protocol.ReasonExpired, denial(t, bob.take()).Reason)
	_, ok := h.lobby.Session("bob")
	assert.False(t, ok)

	assert.Equal(t, []protocol.ResponseType{protocol.ResponseLobbyWaiting}, types(alice.take()))
	s, ok := h.lobby.Session("alice")
	require.True(t, ok)
	assert.Equal(t, lobby.StateWaiting, s.State)

	dave := h.connect("dave")
	h.enter(dave, "")
	s, _ = h.lobby.Session("alice")
	assert.Equal(t, lobby.StateWaitingAccept, s.State, "the acceptor is first in line")
}

func TestLeaveDuringAcceptRequeuesPartner(t *testing.T) {
	h := newLobbyHarness(t)
	alice, bob := h.connect("alice"), h.connect("bob")
	h.enter(alice, "")
	h.enter(bob, "")
	alice.take()

	h.send(bob, protocol.LobbyLeave{})
	_, ok := h.lobby.Session("bob")
	assert.False(t, ok)

	assert.Equal(t, []protocol.ResponseType{protocol.ResponseLobbyWaiting}, types(alice.take()))
	s, _ := h.lobby.Session("alice")
	assert.Equal(t, lobby.StateWaiting, s.State)

	h.sched.Advance(15 * time.Second)
	assert.Empty(t, alice.take(), "the cancelled accept window must not fire")
}

func TestLeaveWithoutSession(t *testing.T) {
	h := newLobbyHarness(t)
	c := h.connect("alice")
	h.send(c, protocol.LobbyLeave{})
	assert.Equal(t, protocol.ReasonNoGame, denial(t, c.take()).Reason)

	h.send(c, protocol.GameStart{})
	assert.Equal(t, protocol.ReasonNoGame, denial(t, c.take()).Reason)
}

func TestSecondSocketEvictsFirst(t *testing.T) {
	h := newLobbyHarness(t)
	first := h.connect("alice")
	h.enter(first, "")

	second := h.connect("alice")
	assert.True(t, first.isClosed())
	assert.Equal(t, []protocol.ResponseType{protocol.ResponseLobbyWaiting}, types(second.take()))

	h.lobby.Detach(first)
	s, ok := h.lobby.Session("alice")
	require.True(t, ok, "closing the evicted socket is not a disconnect")
	assert.Equal(t, lobby.StateWaiting, s.State)
}

func TestReattachToRunningMatch(t *testing.T) {
	h := newLobbyHarness(t)
	h.startMatch()

	again := h.connect("bob")
	assert.Equal(t, []protocol.ResponseType{protocol.ResponseGameStart, protocol.ResponseReady}, types(again.take()))

	h.send(again, protocol.GameActionDemand{FromIndex: 0})
	rs := again.take()
	require.Len(t, rs, 1)
	batch := rs[0].(protocol.GameAction)
	assert.Equal(t, 0, batch.FromIndex)
	start := batch.Actions[0].(*action.Start)
	assert.True(t, lo.EveryBy(start.Players[model.LeaderFirst].Hand, model.CardState.IsMasked))

	h.send(again, protocol.LobbyEnter{ClientVersion: clientVersion, DeckID: "warrior"})
	assert.Equal(t, []protocol.ResponseType{protocol.ResponseGameStart, protocol.ResponseReady}, types(again.take()),
		"entering again while matched reattaches")
}

func TestCommands(t *testing.T) {
	h := newLobbyHarness(t)
	alice, bob := h.startMatch()
	alice.take()
	bob.take()

	h.command(bob, 7, `"type":"TURN_END"`)
	d := denial(t, bob.take())
	assert.Equal(t, protocol.ReasonForbidden, d.Reason)
	require.NotNil(t, d.CommandID)
	assert.Equal(t, 7, *d.CommandID)

	h.command(alice, 1, `"type":"MULLIGAN","swapped":[]`)
	assert.Equal(t, []protocol.ResponseType{protocol.ResponseGameAction, protocol.ResponseReady}, types(alice.take()))
	assert.Equal(t, []protocol.ResponseType{protocol.ResponseGameAction}, types(bob.take()))

	h.command(alice, 2, `"type":"DANCE"`)
	assert.Equal(t, protocol.ReasonForbidden, denial(t, alice.take()).Reason)

	stranger := h.connect("carol")
	h.command(stranger, 3, `"type":"TURN_END"`)
	assert.Equal(t, protocol.ReasonNoGame, denial(t, stranger.take()).Reason)
}

func TestDisconnectSurrendersAndSavesRecord(t *testing.T) {
	h := newLobbyHarness(t)
	alice, bob := h.startMatch()
	bob.take()

	h.lobby.Detach(alice)

	rs := bob.take()
	require.Equal(t, []protocol.ResponseType{protocol.ResponseGameAction}, types(rs))
	got := lo.Map(rs[0].(protocol.GameAction).Actions, func(a action.Action, _ int) action.Type { return a.ActionType() })
	assert.Equal(t, []action.Type{action.TypeSurrender, action.TypeEnd}, got)

	_, ok := h.lobby.Session("alice")
	assert.False(t, ok)
	s, ok := h.lobby.Session("bob")
	require.True(t, ok)
	assert.Equal(t, lobby.StateEnded, s.State)

	h.command(bob, 9, `"type":"TURN_END"`)
	assert.Equal(t, protocol.ReasonGameEnded, denial(t, bob.take()).Reason)

	require.NoError(t, h.lobby.Close())
	assert.Equal(t, 1, h.records.Len())
	st := h.lobby.Stats()
	assert.EqualValues(t, 1, st.Finished)
	assert.EqualValues(t, 1, st.Saved)
}

func TestSurrenderCommandEndsMatch(t *testing.T) {
	h := newLobbyHarness(t)
	alice, bob := h.startMatch()
	alice.take()
	bob.take()

	h.command(bob, 1, `"type":"SURRENDER"`)
	assert.Equal(t, []protocol.ResponseType{protocol.ResponseGameAction, protocol.ResponseReady}, types(bob.take()))

	s, _ := h.lobby.Session("alice")
	assert.Equal(t, lobby.StateEnded, s.State)

	h.enter(alice, "")
	assert.Equal(t, []protocol.ResponseType{protocol.ResponseLobbyWaiting}, types(alice.take()),
		"an ended session can enter again")
}

func TestMulliganTimeoutStartsFirstTurn(t *testing.T) {
	h := newLobbyHarness(t)
	alice, bob := h.startMatch()
	alice.take()
	bob.take()

	h.sched.Advance(30 * time.Second)

	var got []action.Type
	for _, r := range alice.take() {
		for _, a := range r.(protocol.GameAction).Actions {
			got = append(got, a.ActionType())
		}
	}
	assert.Equal(t, []action.Type{action.TypeMulligan, action.TypeMulligan, action.TypeTurnStart}, got[:3])
	assert.NotEmpty(t, bob.take())
}

func TestSeedDecidesLeadersConsistently(t *testing.T) {
	for seed := uint64(0); seed < 6; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			h := newSeededLobbyHarness(t, seed)
			alice, bob := h.startMatch()

			sa, ok := h.lobby.Session("alice")
			require.True(t, ok)
			sb, ok := h.lobby.Session("bob")
			require.True(t, ok)
			require.NotEqual(t, sa.Leader, sb.Leader)
			wantFirst := lo.Ternary(seed&1 == 1, "bob", "alice")
			firstLeader := lo.Ternary(wantFirst == "alice", sa.Leader, sb.Leader)
			assert.Equal(t, model.LeaderFirst, firstLeader)

			// each side sees its own opening hand and only its own
			for c, leader := range map[*fakeConn]model.Leader{alice: sa.Leader, bob: sb.Leader} {
				rs := c.take()
				require.Len(t, rs, 3)
				start := rs[1].(protocol.GameAction).Actions[0].(*action.Start)
				assert.False(t, lo.SomeBy(start.Players[leader].Hand, model.CardState.IsMasked), c.user)
				assert.True(t, lo.EveryBy(start.Players[leader.Opponent()].Hand, model.CardState.IsMasked), c.user)
			}

			h.command(alice, 1, `"type":"SURRENDER"`)
			require.NoError(t, h.lobby.Close())

			rec, err := h.records.GetRecord(context.Background(), sa.MatchID)
			require.NoError(t, err)
			assert.Equal(t, wantFirst, rec.FirstUserID)
			assert.Equal(t, "bob", rec.WinnerUserID)
			assert.Equal(t, sb.Leader, rec.Winner)
		})
	}
}

func TestDisconnectWhileMatchStarts(t *testing.T) {
	h := newLobbyHarness(t)
	alice, bob := h.connect("alice"), h.connect("bob")
	h.enter(alice, "")
	h.enter(bob, "")

	done := make(chan struct{})
	alice.onSend = func(r protocol.Response) {
		if _, ok := r.(protocol.GameStarted); ok {
			go func() {
				defer close(done)
				h.lobby.Detach(alice)
			}()
		}
	}
	h.send(alice, protocol.GameStart{})
	h.send(bob, protocol.GameStart{})
	<-done

	s, ok := h.lobby.Session("bob")
	require.True(t, ok)
	assert.Equal(t, lobby.StateEnded, s.State)

	var got []action.Type
	for _, r := range bob.take() {
		if batch, ok := r.(protocol.GameAction); ok {
			for _, a := range batch.Actions {
				got = append(got, a.ActionType())
			}
		}
	}
	assert.Equal(t, []action.Type{action.TypeStart, action.TypeSurrender, action.TypeEnd}, got)

	require.NoError(t, h.lobby.Close())
	rec, err := h.records.GetRecord(context.Background(), s.MatchID)
	require.NoError(t, err)
	assert.Equal(t, "bob", rec.WinnerUserID)
}
