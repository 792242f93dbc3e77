package game

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

const (
	first  = model.LeaderFirst
	second = model.LeaderSecond
)

func TestStartDealsOpeningHands(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 7})
	s := h.State()

	assert.Equal(t, PhaseMulligan, h.m.Phase())
	assert.Len(t, s.Player(first).Hand, 3)
	assert.Len(t, s.Player(first).Library, 17)
	assert.Len(t, s.Player(second).Hand, 4)
	assert.Len(t, s.Player(second).Library, 16)
	for _, l := range model.Leaders {
		p := s.Player(l)
		assert.Equal(t, model.InitialHP, p.HP)
		require.NotNil(t, p.TensionSkill)
		require.NotNil(t, p.HeroSkill)
		assert.Equal(t, defRally, p.TensionSkill.DefID)
		assert.Equal(t, defJab, p.HeroSkill.DefID)
	}
	assert.Equal(t, 1, h.Count(action.TypeStart))
	assert.Equal(t, 1, h.sched.Pending())

	l1, ok := h.m.LeaderOf("alice")
	require.True(t, ok)
	l2, ok := h.m.LeaderOf("bob")
	require.True(t, ok)
	assert.Equal(t, first, l1)
	assert.Equal(t, second, l2)
	assert.Equal(t, "alice", h.m.UserOf(l1))

	assert.True(t, IsForbidden(h.m.Start()))
}

func TestStartPutsHeroCardsInOpeningHand(t *testing.T) {
	deck := footmanDeck(19)
	deck.Cards = append(deck.Cards, defHero)
	h := NewMatchHarness(t, HarnessOptions{Seed: 3, Decks: [2]Deck{deck, deck}})

	for _, l := range model.Leaders {
		hand := h.Player(l).Hand
		found := false
		for _, c := range hand {
			if c.Kind == model.CardKindHero {
				found = true
			}
		}
		assert.True(t, found, "%s has no hero in hand", l)
	}
}

func TestStartIDsNeverCollide(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 11})
	s := h.State()

	seen := make(map[int]bool)
	for _, l := range model.Leaders {
		p := s.Player(l)
		cards := append(append([]model.CardState{}, p.Hand...), p.Library...)
		cards = append(cards, *p.TensionSkill, *p.HeroSkill)
		for _, c := range cards {
			assert.False(t, seen[c.ID], "duplicate id %d", c.ID)
			seen[c.ID] = true
		}
	}
	assert.Equal(t, len(seen), s.LastObjectID)
}

func TestMulliganSwapsAndStartsFirstTurn(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 5})
	hand := h.Player(first).Hand
	swapped := []int{hand[0].ID, hand[1].ID}

	h.MustDo(first, MulliganCommand{Swapped: swapped})
	p := h.Player(first)
	assert.Len(t, p.Hand, 3)
	assert.Len(t, p.Library, 17)
	for _, id := range swapped {
		assert.Equal(t, -1, p.HandIndex(id))
		assert.GreaterOrEqual(t, p.LibraryIndex(id), 0)
	}
	assert.Equal(t, PhaseMulligan, h.m.Phase())
	assert.True(t, IsForbidden(h.Do(first, MulliganCommand{})))

	h.MustDo(second, MulliganCommand{})
	s := h.State()
	assert.Equal(t, PhaseTurn, h.m.Phase())
	assert.Equal(t, 1, s.Turn)
	assert.Equal(t, first, s.ActiveLeader)
	require.NotNil(t, s.TurnEndAt)
	assert.Equal(t, harnessEpoch.Add(defaultTurnTimeout), *s.TurnEndAt)
	assert.Equal(t, 1, s.Player(first).MaxMP)
	assert.Equal(t, 1, s.Player(first).MP)
	assert.Len(t, s.Player(first).Hand, 4)
	assert.Equal(t, 1, h.sched.Pending())
}

func TestMulliganRejectsCardsNotInHand(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 5})
	lib := h.Player(first).Library

	err := h.Do(first, MulliganCommand{Swapped: []int{lib[0].ID}})
	assert.True(t, IsForbidden(err))

	hand := h.Player(first).Hand
	err = h.Do(first, MulliganCommand{Swapped: []int{hand[0].ID, hand[0].ID}})
	assert.True(t, IsForbidden(err))
	assert.Equal(t, 0, h.Count(action.TypeMulligan))
}

func TestMulliganTimeoutKeepsHands(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 9})
	h.MustDo(second, MulliganCommand{})

	h.sched.Advance(defaultMulliganTimeout)

	assert.Equal(t, PhaseTurn, h.m.Phase())
	assert.Equal(t, 2, h.Count(action.TypeMulligan))
	assert.Equal(t, 1, h.State().Turn)
}

func TestFailedTurnTimeoutEndsInDraw(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 9})
	h.KeepHands()
	h.MustExec(func(g *GameContext) error {
		_, err := g.Field().PutBuilding(second, cell(second, model.RowBack, 1), defCursed, 3)
		return err
	})

	h.sched.Advance(defaultTurnTimeout)

	assert.Equal(t, PhaseFinished, h.m.Phase())
	s := h.State()
	assert.True(t, s.Finished)
	assert.Equal(t, model.LeaderNone, s.Winner)
	assert.Equal(t, 1, s.Turn, "the failed turn pass was rolled back")
	assert.Equal(t, 1, h.Count(action.TypeEnd))
	assert.Equal(t, 0, h.sched.Pending())
	assert.True(t, h.m.Record().IsFinished())
}

func TestTurnTimeoutPassesTurn(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 9})
	h.KeepHands()

	h.sched.Advance(defaultTurnTimeout)
	assert.Equal(t, 2, h.State().Turn)
	assert.Equal(t, second, h.State().ActiveLeader)

	h.sched.Advance(defaultTurnTimeout)
	assert.Equal(t, 3, h.State().Turn)
	assert.Equal(t, first, h.State().ActiveLeader)
	assert.Equal(t, 2, h.Player(first).MaxMP)
}

func TestTurnEndRequiresActiveLeader(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 9})
	assert.True(t, IsForbidden(h.Do(first, TurnEndCommand{})))

	h.KeepHands()
	assert.True(t, IsForbidden(h.Do(second, TurnEndCommand{})))
	h.MustDo(first, TurnEndCommand{})
	assert.Equal(t, second, h.State().ActiveLeader)
}

func TestMaxMPIsCapped(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 2, Decks: [2]Deck{footmanDeck(30), footmanDeck(30)}})
	h.KeepHands()
	for i := 0; i < 24; i++ {
		h.MustDo(h.State().ActiveLeader, TurnEndCommand{})
	}
	assert.Equal(t, model.MaxMP, h.Player(first).MaxMP)
	assert.Equal(t, model.MaxMP, h.Player(second).MaxMP)
}

func TestStaleTurnTimerIsNoOp(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 4})
	h.KeepHands()
	stale := h.sched.Capture()
	require.Len(t, stale, 1)

	h.MustDo(first, TurnEndCommand{})
	stale[0]()

	assert.Equal(t, 2, h.State().Turn)
	assert.Equal(t, 2, h.Count(action.TypeTurnStart))
}

func TestTurnTimerRacingTurnEndTransitionsOnce(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		h := NewMatchHarness(t, HarnessOptions{Seed: seed})
		h.KeepHands()
		h.sched.Advance(defaultTurnTimeout - time.Second)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.sched.Advance(time.Second)
		}()
		go func() {
			defer wg.Done()
			_ = h.Do(first, TurnEndCommand{})
		}()
		wg.Wait()

		assert.Equal(t, 2, h.State().Turn)
		assert.Equal(t, 2, h.Count(action.TypeTurnStart))
		assert.Equal(t, 1, h.sched.Pending())
	}
}

func TestFatigueDamageGrows(t *testing.T) {
	deck := footmanDeck(3)
	h := NewMatchHarness(t, HarnessOptions{Seed: 1, Decks: [2]Deck{deck, deck}})
	h.KeepHands()

	assert.Equal(t, 19, h.Player(first).HP)
	assert.Equal(t, 1, h.Player(first).FatigueCount)
	h.MustDo(first, TurnEndCommand{})
	h.MustDo(second, TurnEndCommand{})
	assert.Equal(t, 17, h.Player(first).HP)
	assert.Equal(t, 2, h.Player(first).FatigueCount)

	damages := make([]int, 0)
	for _, a := range h.m.Actions(0, -1) {
		if d, ok := a.(*action.Draw); ok && d.Card.IsFatigue() && d.Card.Owner == first {
			damages = append(damages, d.Card.FatigueDamage)
		}
	}
	assert.Equal(t, []int{1, 2}, damages)
}

func TestHandNeverExceedsBound(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	require.Len(t, h.Player(first).Hand, 4)

	for i := 0; i < 8; i++ {
		h.Give(first, defFootman)
	}
	assert.Len(t, h.Player(first).Hand, model.MaxHand)
	assert.Equal(t, 2, h.Count(action.TypeDiscard))

	libBefore := len(h.Player(first).Library)
	h.MustExec(func(g *GameContext) error {
		c, err := g.Player(first).DrawCard()
		assert.Nil(t, c)
		return err
	})
	assert.Len(t, h.Player(first).Hand, model.MaxHand)
	assert.Len(t, h.Player(first).Library, libBefore-1)
	assert.Equal(t, 3, h.Count(action.TypeDiscard))
}

func TestSimultaneousLeaderDeathIsDraw(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()

	h.MustExec(func(g *GameContext) error {
		for _, l := range model.Leaders {
			if _, err := g.Player(l).GainDamage(30); err != nil {
				return err
			}
		}
		return nil
	})

	s := h.State()
	assert.True(t, s.Finished)
	assert.True(t, s.IsDraw())
	assert.Equal(t, model.LeaderNone, s.Winner)
	assert.Equal(t, PhaseFinished, h.m.Phase())
	assert.Equal(t, 1, h.Count(action.TypeEnd))
	assert.Equal(t, 0, h.sched.Pending())
	assert.ErrorIs(t, h.Do(first, TurnEndCommand{}), ErrMatchFinished)

	rec := h.m.Record()
	assert.True(t, rec.IsFinished())
	assert.Equal(t, "", rec.WinnerUserID)
}

func TestLeaderDeathEndsMatch(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()

	h.MustExec(func(g *GameContext) error {
		_, err := g.Player(second).GainDamage(25)
		return err
	})
	assert.Equal(t, first, h.State().Winner)
	assert.Equal(t, h.m.UserOf(first), h.m.Record().WinnerUserID)
	assert.Equal(t, 0, h.Player(second).HP)
}

func TestSurrenderFromEitherSide(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()

	h.MustDo(second, SurrenderCommand{})
	assert.Equal(t, first, h.State().Winner)
	assert.Equal(t, 1, h.Count(action.TypeSurrender))
	assert.ErrorIs(t, h.m.Surrender(first), ErrMatchFinished)
}

func TestSurrenderDuringMulligan(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	require.NoError(t, h.m.Surrender(first))
	assert.Equal(t, second, h.State().Winner)
	assert.Equal(t, 0, h.sched.Pending())
}

func TestEmoteIsRelayed(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	h.MustDo(second, EmoteCommand{EmoteID: 3})

	e := h.Last(action.TypeEmote).(*action.Emote)
	assert.Equal(t, 3, e.EmoteID)
	assert.Equal(t, second, e.Actor)
}

func playScript(t *testing.T, h *MatchHarness) {
	t.Helper()
	h.Summon(first, cell(first, model.RowFront, 0), defBrute)
	h.Summon(second, cell(second, model.RowFront, 1), defFootman)
	h.KeepHands()

	spark := h.Give(first, defSpark)
	h.MustDo(first, UseCardCommand{CardID: spark.ID, Target: &model.Target{Position: cell(second, model.RowFront, 1)}})
	fortune := h.Give(first, defFortune)
	h.MustDo(first, UseCardCommand{CardID: fortune.ID})
	h.MustDo(first, AttackCommand{Attacker: model.CellTarget(cell(first, model.RowFront, 0)), Target: model.LeaderTarget(second)})
	h.MustDo(first, TurnEndCommand{})

	hand := h.Player(second).Hand
	h.MustDo(second, UseCardCommand{CardID: hand[0].ID, Target: &model.Target{Position: cell(second, model.RowBack, 2)}})
	h.MustDo(second, EmoteCommand{EmoteID: 1})
	h.MustDo(second, TurnEndCommand{})
	h.MustDo(first, TensionUpCommand{})
}

func TestSameSeedSameCommandsSameLog(t *testing.T) {
	a := NewMatchHarness(t, HarnessOptions{Seed: 42})
	b := NewMatchHarness(t, HarnessOptions{Seed: 42})
	playScript(t, a)
	playScript(t, b)

	assert.Equal(t, a.State().MustDigest(), b.State().MustDigest())
	logA, err := json.Marshal(a.m.Record().Actions)
	require.NoError(t, err)
	logB, err := json.Marshal(b.m.Record().Actions)
	require.NoError(t, err)
	assert.JSONEq(t, string(logA), string(logB))

	c := NewMatchHarness(t, HarnessOptions{Seed: 43})
	assert.NotEqual(t, a.m.Actions(0, 1), c.m.Actions(0, 1))
}

func TestReplayReproducesFinalState(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 42})
	playScript(t, h)
	h.MustDo(second, SurrenderCommand{})

	rec := h.m.Record()
	got, err := action.Replay(rec.Actions)
	require.NoError(t, err)
	assert.Equal(t, h.State().MustDigest(), got.MustDigest())

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	changes, err := Verify(&decoded, h.State())
	require.NoError(t, err)
	assert.Empty(t, changes)

	r := NewReplay(&decoded)
	assert.Equal(t, len(rec.Actions), r.Size())
	require.NoError(t, r.Skip(r.Size()+5))
	assert.Equal(t, r.Size(), r.Index())
	assert.Equal(t, got.MustDigest(), r.State().MustDigest())
	r.Start()
	assert.Equal(t, 0, r.Index())
}

func TestVerifyReportsDivergence(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 42})
	h.KeepHands()

	want := h.State()
	p := want.Player(first)
	p.HP = 3
	want = want.WithPlayer(p)

	changes, err := Verify(h.m.Record(), want)
	require.NoError(t, err)
	assert.NotEmpty(t, changes)
}

func TestRuntimeErrorRollsBack(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 42})
	h.KeepHands()
	card := h.Give(first, defFaulty)

	digest := h.State().MustDigest()
	n := h.m.Len()
	rng := h.m.rng.snapshot()

	err := h.Do(first, UseCardCommand{CardID: card.ID})
	var re *RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Contains(t, err.Error(), "fizzled")

	assert.Equal(t, digest, h.State().MustDigest())
	assert.Equal(t, n, h.m.Len())
	assert.Equal(t, rng, h.m.rng.snapshot())
	assert.Equal(t, model.InitialHP, h.Player(second).HP)
	assert.GreaterOrEqual(t, h.Player(first).HandIndex(card.ID), 0)
}

func TestPanicInDefinitionRollsBack(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 42})
	h.KeepHands()
	card := h.Give(first, defPanicky)

	digest := h.State().MustDigest()
	rng := h.m.rng.snapshot()

	err := h.Do(first, UseCardCommand{CardID: card.ID})
	var re *RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, digest, h.State().MustDigest())
	assert.Equal(t, rng, h.m.rng.snapshot())

	h.MustDo(first, TurnEndCommand{})
}

func TestStabilizationIsIdempotent(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 42})
	playScript(t, h)

	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	n := len(h.m.log)
	require.NoError(t, h.m.stabilize())
	assert.Equal(t, n, len(h.m.log))
}

func TestListenersReceiveOrderedBatches(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 42})
	next := h.m.Len()
	var batches int
	h.m.Subscribe(func(from int, actions []action.Action) {
		assert.Equal(t, next, from)
		next += len(actions)
		batches++
	})

	playScript(t, h)
	assert.Equal(t, h.m.Len(), next)
	assert.Greater(t, batches, 5)
}

func TestActionsSlicesTheLog(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 42})
	h.KeepHands()
	n := h.m.Len()

	assert.Len(t, h.m.Actions(0, -1), n)
	assert.Len(t, h.m.Actions(1, 3), 2)
	assert.Empty(t, h.m.Actions(n, -1))
	assert.Empty(t, h.m.Actions(5, 2))
	assert.Equal(t, action.TypeStart, h.m.Actions(-4, 1)[0].ActionType())
}
