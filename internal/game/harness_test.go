package game

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
	"github.com/nenshoukei/zombals-sub000/internal/scheduler"
)

const (
	defFootman = 101 // 1/2
	defGuard   = 102 // 1/2 guardian
	defRaider  = 103 // 2/1 haste
	defSniper  = 104 // 1/1 snipe
	defBrute   = 105 // 3/3
	defPiercer = 106 // 4/1 penetrate
	defTwin    = 107 // 1/3 double attack
	defHero    = 108 // 2/2 hero, grants hero skill defGuardUp
	defShade   = 109 // 2/2 stealth

	defSpark   = 110 // 2 damage to any target
	defOracle  = 111 // choose: draw a card or heal 3
	defFortune = 113 // fortune: 1, 2 or 3 damage to the enemy leader
	defRecall  = 114 // discard one chosen card, draw one
	defFaulty  = 115 // 2 damage to the enemy leader, then fails
	defPanicky = 116 // panics
	defEmpower = 117 // +2 power to an own unit until turn end

	defSword    = 120 // weapon 2/2
	defBarracks = 121 // building, durability 3, heals owner 1 per turn
	defCursed   = 122 // building whose turn start hook fails

	defRally    = 130 // tension skill: 3 damage to the enemy leader
	defJab      = 131 // hero skill: 1 damage to the enemy leader
	defGuardUp  = 132 // hero skill: heal 2
	defGrantAll = 133 // fortune_all for the rest of the match

	effPowerUp     = 201
	effGrant       = 202
	effHooked      = 203
	effCounterDown = 204

	badgeCrown = 301
	floorSwamp = 401
)

type amountStorage struct {
	Amount int `json:"amount"`
}

type statusStorage struct {
	Statuses []Status `json:"statuses"`
}

type powerUpEffect struct{ BaseEffect }

func (powerUpEffect) ModifyPower(_ *GameContext, e model.EffectState, _ Subject, power int) int {
	var s amountStorage
	_ = DecodeStorage(e, &s)
	return power + s.Amount
}

func (powerUpEffect) ValidateStorage(e model.EffectState) error {
	var s amountStorage
	return DecodeStorage(e, &s)
}

func (powerUpEffect) MergeDescriptions(stack []model.EffectState) string {
	total := 0
	for _, e := range stack {
		var s amountStorage
		_ = DecodeStorage(e, &s)
		total += s.Amount
	}
	return "power +" + strconv.Itoa(total)
}

type grantEffect struct{ BaseEffect }

func (grantEffect) GrantsStatus(e model.EffectState, _ Subject, st Status) bool {
	var s statusStorage
	_ = DecodeStorage(e, &s)
	return lo.Contains(s.Statuses, st)
}

type hookCounts struct {
	added   int
	removed int
}

type hookedEffect struct {
	BaseEffect
	counts *hookCounts
}

func (h hookedEffect) OnAdded(*GameContext, model.EffectState) error {
	h.counts.added++
	return nil
}

func (h hookedEffect) OnRemoved(*GameContext, model.EffectState) error {
	h.counts.removed++
	return nil
}

type counterDownEffect struct{ BaseEffect }

func (counterDownEffect) ModifyCounterDamage(e model.EffectState, damage int) int {
	var s amountStorage
	_ = DecodeStorage(e, &s)
	return damage - s.Amount
}

type crownBadge struct{ BaseBadge }

func (crownBadge) OnTurnStart(g *GameContext, owner model.Leader, _ int) error {
	_, err := g.Player(owner).Heal(1)
	return err
}

func unitInfo(id, cost, power, hp int, statuses ...Status) CardInfo {
	return CardInfo{ID: id, Name: "unit", Kind: model.CardKindUnit, Cost: cost, Power: power, HP: hp, Target: TargetOwnEmptyCell, Statuses: statuses}
}

func spellInfo(id, cost int, target TargetRule) CardInfo {
	return CardInfo{ID: id, Name: "spell", Kind: model.CardKindSpell, Cost: cost, Target: target}
}

func enemyLeaderDamage(n int) func(c *CardContext) error {
	return func(c *CardContext) error {
		_, err := c.Enemy().GainDamage(n)
		return err
	}
}

func testDefinitions(t *testing.T, hooks *hookCounts) *Registries {
	t.Helper()
	defs := NewRegistries()
	require.NoError(t, defs.Cards.Register(
		&UnitCard{Card: unitInfo(defFootman, 1, 1, 2)},
		&UnitCard{Card: unitInfo(defGuard, 2, 1, 2, StatusGuardian)},
		&UnitCard{Card: unitInfo(defRaider, 1, 2, 1, StatusHaste)},
		&UnitCard{Card: unitInfo(defSniper, 1, 1, 1, StatusSnipe)},
		&UnitCard{Card: unitInfo(defBrute, 3, 3, 3)},
		&UnitCard{Card: unitInfo(defPiercer, 4, 4, 1, StatusPenetrate)},
		&UnitCard{Card: unitInfo(defTwin, 2, 1, 3, StatusDoubleAttack)},
		&HeroCard{
			UnitCard:  UnitCard{Card: CardInfo{ID: defHero, Name: "hero", Kind: model.CardKindHero, Cost: 2, Power: 2, HP: 2, Target: TargetOwnEmptyCell}},
			HeroSkill: defGuardUp,
		},
		&UnitCard{Card: unitInfo(defShade, 2, 2, 2, StatusStealth)},
		&SpellCard{Card: spellInfo(defSpark, 1, TargetAny), Effect: func(c *CardContext) error {
			_, err := c.DamageTarget(2)
			return err
		}},
		&SpellCard{Card: spellInfo(defOracle, 1, TargetNone), Effect: func(c *CardContext) error {
			return c.SelectOption([]string{"draw", "heal"}, func(i int) error {
				if i == 0 {
					_, err := c.Self().DrawCard()
					return err
				}
				_, err := c.Self().Heal(3)
				return err
			})
		}},
		&SpellCard{Card: spellInfo(defFortune, 0, TargetNone), Effect: func(c *CardContext) error {
			return c.Fortune(
				FortuneOption{Label: "one", Run: func() error { return enemyLeaderDamage(1)(c) }},
				FortuneOption{Label: "two", Run: func() error { return enemyLeaderDamage(2)(c) }},
				FortuneOption{Label: "three", Run: func() error { return enemyLeaderDamage(3)(c) }},
			)
		}},
		&SpellCard{Card: spellInfo(defRecall, 0, TargetNone), Effect: func(c *CardContext) error {
			return c.SelectHand(1, func(cards []model.CardState) error {
				for _, card := range cards {
					if err := c.Self().Discard(card.ID); err != nil {
						return err
					}
				}
				_, err := c.Self().DrawCard()
				return err
			})
		}},
		&SpellCard{Card: spellInfo(defFaulty, 0, TargetNone), Effect: func(c *CardContext) error {
			if err := enemyLeaderDamage(2)(c); err != nil {
				return err
			}
			return errors.New("fizzled")
		}},
		&SpellCard{Card: spellInfo(defPanicky, 0, TargetNone), Effect: func(c *CardContext) error {
			_ = c.Rand().IntN(10)
			panic("boom")
		}},
		&SpellCard{Card: spellInfo(defEmpower, 1, TargetOwnUnit), Effect: func(c *CardContext) error {
			u, _ := c.TargetUnit()
			_, err := c.AddEffect(EffectSpec{
				DefID:   effPowerUp,
				Owner:   c.Owner(),
				Target:  model.TargetUnit(u.ID()),
				Source:  c.Source(),
				Expiry:  model.UntilTurnEnd(c.Owner()),
				Storage: amountStorage{Amount: 2},
			})
			return err
		}},
		&WeaponCard{Card: CardInfo{ID: defSword, Name: "sword", Kind: model.CardKindWeapon, Cost: 1, Power: 2, Durability: 2}},
		&BuildingCard{
			Card: CardInfo{ID: defBarracks, Name: "barracks", Kind: model.CardKindBuilding, Cost: 2, Durability: 3, Target: TargetOwnEmptyCell},
			TurnStart: func(g *GameContext, owner model.Leader, _ int) error {
				_, err := g.Player(owner).Heal(1)
				return err
			},
		},
		&BuildingCard{
			Card: CardInfo{ID: defCursed, Name: "cursed altar", Kind: model.CardKindBuilding, Cost: 2, Durability: 3, Target: TargetOwnEmptyCell},
			TurnStart: func(*GameContext, model.Leader, int) error {
				return errors.New("cursed")
			},
		},
		&SkillCard{Card: CardInfo{ID: defRally, Name: "rally", Kind: model.CardKindTensionSkill}, Effect: enemyLeaderDamage(3)},
		&SkillCard{Card: CardInfo{ID: defJab, Name: "jab", Kind: model.CardKindHeroSkill, Cost: 1}, Effect: enemyLeaderDamage(1)},
		&SkillCard{Card: CardInfo{ID: defGuardUp, Name: "guard up", Kind: model.CardKindHeroSkill, Cost: 1}, Effect: func(c *CardContext) error {
			_, err := c.Self().Heal(2)
			return err
		}},
		&SpellCard{Card: spellInfo(defGrantAll, 0, TargetNone), Effect: func(c *CardContext) error {
			_, err := c.AddEffect(EffectSpec{
				DefID:   effGrant,
				Owner:   c.Owner(),
				Target:  model.TargetLeader(c.Owner()),
				Source:  model.SourceLeader(c.Owner()),
				Storage: statusStorage{Statuses: []Status{StatusFortuneAll}},
			})
			return err
		}},
	))
	require.NoError(t, defs.Effects.Register(
		powerUpEffect{BaseEffect{EffectID: effPowerUp, EffectName: "power up"}},
		grantEffect{BaseEffect{EffectID: effGrant, EffectName: "grant"}},
		hookedEffect{BaseEffect: BaseEffect{EffectID: effHooked, EffectName: "hooked"}, counts: hooks},
		counterDownEffect{BaseEffect{EffectID: effCounterDown, EffectName: "counter down"}},
	))
	require.NoError(t, defs.Badges.Register(crownBadge{BaseBadge{BadgeID: badgeCrown, BadgeName: "crown"}}))
	require.NoError(t, defs.Floors.Register(BaseFloor{FloorID: floorSwamp, FloorName: "swamp"}))
	require.NoError(t, defs.Jobs.Register(JobSkills{Job: JobWarrior, Tension: defRally, Hero: defJab}))
	return defs
}

var harnessEpoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// MatchHarness drives a match with a fake scheduler and clock.
type MatchHarness struct {
	t     *testing.T
	m     *Match
	sched *scheduler.Fake
	hooks *hookCounts
}

// HarnessOptions tune NewMatchHarness. Zero values pick a footman deck.
type HarnessOptions struct {
	Seed  uint64
	Decks [2]Deck
}

func footmanDeck(n int) Deck {
	return Deck{ID: "d", Name: "footmen", Job: JobWarrior, Cards: lo.Times(n, func(int) int { return defFootman })}
}

// NewMatchHarness creates and starts a match. The match sits in the mulligan
// phase when it returns.
func NewMatchHarness(t *testing.T, opts HarnessOptions) *MatchHarness {
	t.Helper()
	for i := range opts.Decks {
		if opts.Decks[i].Cards == nil {
			opts.Decks[i] = footmanDeck(20)
		}
	}
	hooks := &hookCounts{}
	sched := scheduler.NewFake(harnessEpoch)
	m := NewMatch(Config{
		ID:   "match-1",
		Seed: opts.Seed,
		Players: [2]PlayerConfig{
			{UserID: "alice", Deck: opts.Decks[0]},
			{UserID: "bob", Deck: opts.Decks[1]},
		},
	}, testDefinitions(t, hooks),
		WithLogger(zaptest.NewLogger(t)),
		WithClock(sched.Now),
		WithScheduler(sched),
	)
	require.NoError(t, m.Start())
	return &MatchHarness{t: t, m: m, sched: sched, hooks: hooks}
}

// KeepHands finishes the mulligan without swapping and lands in turn 1.
func (h *MatchHarness) KeepHands() {
	h.t.Helper()
	for _, l := range model.Leaders {
		require.NoError(h.t, h.m.HandleCommand(l, MulliganCommand{}))
	}
	require.Equal(h.t, PhaseTurn, h.m.Phase())
}

// Exec runs fn as one committed transaction, the way a command would.
func (h *MatchHarness) Exec(fn func(g *GameContext) error) error {
	m := h.m
	m.mu.Lock()
	from := len(m.log)
	err := m.transact("test", func() error { return fn(m.g) })
	m.syncTimer()
	m.unlockAndNotify(from)
	return err
}

// MustExec is Exec failing the test on error.
func (h *MatchHarness) MustExec(fn func(g *GameContext) error) {
	h.t.Helper()
	require.NoError(h.t, h.Exec(fn))
}

// Summon puts a unit without paying for it and returns its id.
func (h *MatchHarness) Summon(owner model.Leader, pos model.Position, defID int) int {
	h.t.Helper()
	var id int
	h.MustExec(func(g *GameContext) error {
		u, err := g.Field().SummonToken(owner, pos, defID)
		if err != nil {
			return err
		}
		id = u.ID()
		return nil
	})
	return id
}

// Give adds a card to owner's hand and returns it.
func (h *MatchHarness) Give(owner model.Leader, defID int) model.CardState {
	h.t.Helper()
	var card model.CardState
	h.MustExec(func(g *GameContext) error {
		c, err := g.Player(owner).AddCard(defID)
		if err != nil {
			return err
		}
		card = *c
		return nil
	})
	return card
}

// SetMP fills owner's MP.
func (h *MatchHarness) SetMP(owner model.Leader, mp int) {
	h.t.Helper()
	h.MustExec(func(g *GameContext) error {
		p := g.Player(owner)
		if err := p.SetMaxMP(mp); err != nil {
			return err
		}
		return p.SetMP(mp)
	})
}

// Do sends a command.
func (h *MatchHarness) Do(l model.Leader, cmd Command) error {
	return h.m.HandleCommand(l, cmd)
}

// MustDo sends a command and fails the test on error.
func (h *MatchHarness) MustDo(l model.Leader, cmd Command) {
	h.t.Helper()
	require.NoError(h.t, h.m.HandleCommand(l, cmd))
}

func (h *MatchHarness) State() model.GameState { return h.m.State() }

func (h *MatchHarness) Player(l model.Leader) model.PlayerState { return h.m.State().Player(l) }

// Count returns how many actions of type t are in the log.
func (h *MatchHarness) Count(t action.Type) int {
	return lo.CountBy(h.m.Actions(0, -1), func(a action.Action) bool { return a.ActionType() == t })
}

// Last returns the newest action of type t.
func (h *MatchHarness) Last(t action.Type) action.Action {
	h.t.Helper()
	log := h.m.Actions(0, -1)
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].ActionType() == t {
			return log[i]
		}
	}
	h.t.Fatalf("no %s in log", t)
	return nil
}

func cell(l model.Leader, row model.Row, col int) model.Position {
	return model.NewPosition(l, row, col)
}
