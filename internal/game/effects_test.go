package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

func (h *MatchHarness) power(unitID int) int {
	h.t.Helper()
	var power int
	h.MustExec(func(g *GameContext) error {
		u, ok := g.Field().UnitByID(unitID)
		require.True(h.t, ok)
		power = u.CalculatedPower()
		return nil
	})
	return power
}

func (h *MatchHarness) damage(l model.Leader, n int) {
	h.t.Helper()
	h.MustExec(func(g *GameContext) error {
		_, err := g.Player(l).GainDamage(n)
		return err
	})
}

func TestEffectExpiresAtTurnEnd(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	brute := h.Summon(first, front(first, 0), defBrute)
	h.KeepHands()
	empower := h.Give(first, defEmpower)

	h.MustDo(first, UseCardCommand{CardID: empower.ID, Target: &model.Target{Position: front(first, 0)}})
	assert.Equal(t, 5, h.power(brute))
	require.Len(t, h.State().Effects, 1)

	h.MustDo(first, attackCmd(front(first, 0), model.LeaderTarget(second)))
	assert.Equal(t, 15, h.Player(second).HP)

	h.MustDo(first, TurnEndCommand{})
	assert.Empty(t, h.State().Effects)
	assert.Equal(t, 3, h.power(brute))
}

func TestEmpowerNeedsOwnUnit(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.Summon(second, front(second, 0), defFootman)
	h.KeepHands()
	empower := h.Give(first, defEmpower)

	err := h.Do(first, UseCardCommand{CardID: empower.ID, Target: &model.Target{Position: front(second, 0)}})
	assert.True(t, IsForbidden(err))
	err = h.Do(first, UseCardCommand{CardID: empower.ID})
	assert.True(t, IsForbidden(err))
	assert.Equal(t, 1, h.Player(first).MP)
}

func TestUnitDestroyCascadesEffects(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	unit := h.Summon(first, front(first, 0), defFootman)
	h.KeepHands()

	h.MustExec(func(g *GameContext) error {
		if _, err := g.AddEffect(EffectSpec{DefID: effHooked, Owner: first, Target: model.TargetUnit(unit), Source: model.SourceLeader(first)}); err != nil {
			return err
		}
		_, err := g.AddEffect(EffectSpec{DefID: effHooked, Owner: first, Source: model.SourceOf(model.EffectSourceUnit, first, unit)})
		return err
	})
	assert.Equal(t, 2, h.hooks.added)
	require.Len(t, h.State().Effects, 2)

	var ids []int
	for _, e := range h.State().Effects {
		ids = append(ids, e.ID)
	}
	h.MustExec(func(g *GameContext) error {
		u, ok := g.Field().UnitByID(unit)
		require.True(t, ok)
		return u.Destroy()
	})
	assert.Empty(t, h.State().Effects)
	assert.Equal(t, 2, h.hooks.removed)
	assert.Equal(t, 2, h.Count(action.TypeEffectRemoved))

	h.MustExec(func(g *GameContext) error {
		for _, id := range ids {
			if err := g.RemoveEffect(id); err != nil {
				return err
			}
		}
		return nil
	})
	assert.Equal(t, 2, h.hooks.removed)
}

func TestRolledBackEffectRunsHooksAgain(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()

	err := h.Exec(func(g *GameContext) error {
		if _, err := g.AddEffect(EffectSpec{DefID: effHooked, Owner: first, Source: model.SourceLeader(first)}); err != nil {
			return err
		}
		return runtimeErr("test", "abort")
	})
	require.Error(t, err)
	assert.Empty(t, h.State().Effects)

	h.MustExec(func(g *GameContext) error {
		_, err := g.AddEffect(EffectSpec{DefID: effHooked, Owner: first, Source: model.SourceLeader(first)})
		return err
	})
	assert.Equal(t, 2, h.hooks.added)
	assert.Len(t, h.State().Effects, 1)
}

func TestFloorEffectAppliesToUnitAbove(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()

	var floorID int
	h.MustExec(func(g *GameContext) error {
		f, err := g.Field().PutFloor(first, front(first, 0), floorSwamp)
		if err != nil {
			return err
		}
		floorID = f.ID()
		_, err = g.AddEffect(EffectSpec{
			DefID:   effPowerUp,
			Owner:   first,
			Target:  model.TargetFloor(floorID),
			Source:  model.SourceOf(model.EffectSourceFloor, first, floorID),
			Storage: amountStorage{Amount: 1},
		})
		return err
	})
	above := h.Summon(first, front(first, 0), defFootman)
	beside := h.Summon(first, front(first, 1), defFootman)
	assert.Equal(t, 2, h.power(above))
	assert.Equal(t, 1, h.power(beside))

	h.MustExec(func(g *GameContext) error {
		f, ok := g.Field().FloorByID(floorID)
		require.True(t, ok)
		return f.Destroy()
	})
	assert.Empty(t, h.State().Effects)
	assert.Equal(t, 1, h.power(above))
	assert.Equal(t, 1, h.Count(action.TypeFloorDestroyed))
}

func TestBadgeTurnStartAndRemoval(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()

	var badgeID int
	h.MustExec(func(g *GameContext) error {
		p := g.Player(first)
		id, err := p.AddBadge(badgeCrown)
		if err != nil {
			return err
		}
		badgeID = id
		if _, err := p.GainDamage(2); err != nil {
			return err
		}
		_, err = g.AddEffect(EffectSpec{
			DefID:   effGrant,
			Owner:   first,
			Target:  model.TargetLeader(first),
			Source:  model.SourceOf(model.EffectSourceBadge, first, id),
			Storage: statusStorage{Statuses: []Status{StatusImmune}},
		})
		return err
	})
	assert.True(t, h.Player(first).HasBadge(badgeCrown))

	h.MustDo(first, TurnEndCommand{})
	h.MustDo(second, TurnEndCommand{})
	assert.Equal(t, 19, h.Player(first).HP)

	h.damage(first, 5)
	assert.Equal(t, 19, h.Player(first).HP, "immune leader takes no damage")

	h.MustExec(func(g *GameContext) error { return g.Player(first).RemoveBadge(badgeID) })
	assert.False(t, h.Player(first).HasBadge(badgeCrown))
	assert.Empty(t, h.State().Effects)

	h.damage(first, 5)
	assert.Equal(t, 14, h.Player(first).HP)
}

func TestDescribeMergesStackedEffects(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	unit := h.Summon(first, front(first, 0), defFootman)
	h.KeepHands()

	var desc []string
	h.MustExec(func(g *GameContext) error {
		for i := 0; i < 2; i++ {
			if _, err := g.AddEffect(EffectSpec{
				DefID:   effPowerUp,
				Owner:   first,
				Target:  model.TargetUnit(unit),
				Source:  model.SourceLeader(first),
				Storage: amountStorage{Amount: 2},
			}); err != nil {
				return err
			}
		}
		desc = g.DescribeEffects(Subject{Owner: first, UnitID: unit})
		return nil
	})
	assert.Equal(t, []string{"power +4"}, desc)
	assert.Equal(t, 5, h.power(unit))
}

func TestTensionUpAndTensionSkill(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()

	h.MustDo(first, TensionUpCommand{})
	p := h.Player(first)
	assert.Equal(t, 1, p.Tension)
	assert.Equal(t, 0, p.MP)
	assert.True(t, p.TensionUpUsed)
	assert.True(t, IsForbidden(h.Do(first, TensionUpCommand{})))

	rally := p.TensionSkill.ID
	assert.True(t, IsForbidden(h.Do(first, UseCardCommand{CardID: rally})))

	h.MustExec(func(g *GameContext) error { return g.Player(first).SetTension(model.MaxTension) })
	h.MustDo(first, UseCardCommand{CardID: rally})
	assert.Equal(t, 17, h.Player(second).HP)
	assert.Equal(t, 0, h.Player(first).Tension)
	require.NotNil(t, h.Player(first).TensionSkill)
	assert.Equal(t, rally, h.Player(first).TensionSkill.ID)
}

func TestTensionUpNeedsMP(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	h.SetMP(first, 0)
	assert.True(t, IsForbidden(h.Do(first, TensionUpCommand{})))
}

func TestHeroSkillOncePerTurn(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	jab := h.Player(first).HeroSkill.ID

	h.MustDo(first, UseCardCommand{CardID: jab})
	assert.Equal(t, 19, h.Player(second).HP)
	assert.Equal(t, 0, h.Player(first).MP)

	h.SetMP(first, 5)
	assert.True(t, IsForbidden(h.Do(first, UseCardCommand{CardID: jab})))

	h.MustDo(first, TurnEndCommand{})
	h.MustDo(second, TurnEndCommand{})
	h.MustDo(first, UseCardCommand{CardID: jab})
	assert.Equal(t, 18, h.Player(second).HP)
}

func TestHeroCardChangesHeroSkill(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	h.SetMP(first, 3)
	hero := h.Give(first, defHero)

	h.MustDo(first, UseCardCommand{CardID: hero.ID, Target: &model.Target{Position: front(first, 1)}})

	p := h.Player(first)
	require.NotNil(t, p.HeroSkill)
	assert.Equal(t, defGuardUp, p.HeroSkill.DefID)
	assert.Equal(t, 1, p.MP)
	assert.Equal(t, 1, h.Count(action.TypeHeroSkillChanged))
	u, ok := h.State().Field.Unit(front(first, 1))
	require.True(t, ok)
	assert.Equal(t, defHero, u.DefID)
	assert.Contains(t, p.UsedCardDefIDs, defHero)
}

func TestUseCardForbidden(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.Summon(first, front(first, 2), defFootman)
	h.KeepHands()
	brute := h.Give(first, defBrute)
	footman := h.Give(first, defFootman)
	spark := h.Give(first, defSpark)
	enemyCard := h.Give(second, defFootman)

	cases := []struct {
		name   string
		leader model.Leader
		cmd    UseCardCommand
	}{
		{"too expensive", first, UseCardCommand{CardID: brute.ID, Target: &model.Target{Position: front(first, 0)}}},
		{"not in hand", first, UseCardCommand{CardID: enemyCard.ID, Target: &model.Target{Position: front(first, 0)}}},
		{"not your turn", second, UseCardCommand{CardID: enemyCard.ID, Target: &model.Target{Position: front(second, 1)}}},
		{"enemy cell", first, UseCardCommand{CardID: footman.ID, Target: &model.Target{Position: front(second, 1)}}},
		{"occupied cell", first, UseCardCommand{CardID: footman.ID, Target: &model.Target{Position: front(first, 2)}}},
		{"missing target", first, UseCardCommand{CardID: spark.ID}},
		{"empty cell target", first, UseCardCommand{CardID: spark.ID, Target: &model.Target{Position: front(second, 2)}}},
	}
	n := h.m.Len()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, IsForbidden(h.Do(tc.leader, tc.cmd)))
		})
	}
	assert.Equal(t, n, h.m.Len())

	h.MustDo(first, UseCardCommand{CardID: spark.ID, Target: &model.Target{Leader: second}})
	assert.Equal(t, 18, h.Player(second).HP)
	assert.Equal(t, -1, h.Player(first).HandIndex(spark.ID))
}

func TestOptionSelection(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	h.damage(first, 3)
	oracle := h.Give(first, defOracle)

	h.MustDo(first, UseCardCommand{CardID: oracle.ID})
	sel := h.Last(action.TypeSelectOption).(*action.SelectOption)
	assert.Equal(t, []string{"draw", "heal"}, sel.Options)

	assert.True(t, IsForbidden(h.Do(first, TurnEndCommand{})))
	assert.True(t, IsForbidden(h.Do(first, TensionUpCommand{})))
	h.MustDo(second, EmoteCommand{EmoteID: 2})
	assert.True(t, IsForbidden(h.Do(first, OptionSelectedCommand{SelectID: sel.SelectID + 1})))
	assert.True(t, IsForbidden(h.Do(first, OptionSelectedCommand{SelectID: sel.SelectID, SelectedIndex: 2})))
	assert.True(t, IsForbidden(h.Do(second, OptionSelectedCommand{SelectID: sel.SelectID})))
	assert.True(t, IsForbidden(h.Do(first, HandSelectedCommand{SelectID: sel.SelectID, SelectedIndexes: []int{0}})))

	h.MustDo(first, OptionSelectedCommand{SelectID: sel.SelectID, SelectedIndex: 1})
	assert.Equal(t, model.InitialHP, h.Player(first).HP)
	assert.True(t, IsForbidden(h.Do(first, OptionSelectedCommand{SelectID: sel.SelectID, SelectedIndex: 1})))
	h.MustDo(first, TurnEndCommand{})
}

func TestTurnTimeoutAnswersSelection(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	oracle := h.Give(first, defOracle)
	h.MustDo(first, UseCardCommand{CardID: oracle.ID})
	handBefore := len(h.Player(first).Hand)

	h.sched.Advance(90 * time.Second)

	sel := h.Last(action.TypeOptionSelected).(*action.OptionSelected)
	assert.Equal(t, 0, sel.SelectedIndex)
	assert.Len(t, h.Player(first).Hand, handBefore+1)
	assert.Equal(t, 2, h.State().Turn)
	assert.Equal(t, second, h.State().ActiveLeader)
}

func TestHandSelection(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	recall := h.Give(first, defRecall)

	h.MustDo(first, UseCardCommand{CardID: recall.ID})
	sel := h.Last(action.TypeSelectHand).(*action.SelectHand)
	assert.Equal(t, 1, sel.Count)
	require.Len(t, sel.CardIDs, 4)

	assert.True(t, IsForbidden(h.Do(first, HandSelectedCommand{SelectID: sel.SelectID, SelectedIndexes: []int{0, 1}})))
	assert.True(t, IsForbidden(h.Do(first, HandSelectedCommand{SelectID: sel.SelectID, SelectedIndexes: []int{4}})))

	libBefore := len(h.Player(first).Library)
	h.MustDo(first, HandSelectedCommand{SelectID: sel.SelectID, SelectedIndexes: []int{2}})
	discarded := h.Last(action.TypeDiscard).(*action.Discard)
	assert.Equal(t, sel.CardIDs[2], discarded.Card.ID)
	assert.Len(t, h.Player(first).Hand, 4)
	assert.Len(t, h.Player(first).Library, libBefore-1)
}

func TestFortunePicksOneOutcome(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	fortune := h.Give(first, defFortune)

	h.MustDo(first, UseCardCommand{CardID: fortune.ID})
	assert.Contains(t, []int{17, 18, 19}, h.Player(second).HP)
	assert.Equal(t, 1, h.Count(action.TypeLeaderGainDamage))
}

func TestFortuneAllRunsEveryOutcome(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	grant := h.Give(first, defGrantAll)
	fortune := h.Give(first, defFortune)

	h.MustDo(first, UseCardCommand{CardID: grant.ID})
	h.MustDo(first, UseCardCommand{CardID: fortune.ID})
	assert.Equal(t, 14, h.Player(second).HP)
}

func TestFortuneChoiceAsksOwner(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	h.KeepHands()
	h.MustExec(func(g *GameContext) error {
		_, err := g.AddEffect(EffectSpec{
			DefID:   effGrant,
			Owner:   first,
			Target:  model.TargetLeader(first),
			Source:  model.SourceLeader(first),
			Storage: statusStorage{Statuses: []Status{StatusFortuneChoice}},
		})
		return err
	})
	fortune := h.Give(first, defFortune)

	h.MustDo(first, UseCardCommand{CardID: fortune.ID})
	sel := h.Last(action.TypeSelectOption).(*action.SelectOption)
	assert.Equal(t, []string{"one", "two", "three"}, sel.Options)

	h.MustDo(first, OptionSelectedCommand{SelectID: sel.SelectID, SelectedIndex: 2})
	assert.Equal(t, 17, h.Player(second).HP)
}

func TestAddEffectRejectsUnreadableStorage(t *testing.T) {
	h := NewMatchHarness(t, HarnessOptions{Seed: 1})
	unit := h.Summon(first, front(first, 0), defFootman)
	h.KeepHands()

	err := h.Exec(func(g *GameContext) error {
		_, err := g.AddEffect(EffectSpec{
			DefID:   effPowerUp,
			Owner:   first,
			Target:  model.TargetUnit(unit),
			Source:  model.SourceLeader(first),
			Storage: "two",
		})
		return err
	})
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Empty(t, h.State().Effects)
	assert.Equal(t, 0, h.Count(action.TypeEffectAdded))
}
