package catalog

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/nenshoukei/zombals-sub000/internal/game"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// Amount is the storage of the stat effects.
type Amount struct {
	N int `json:"n"`
}

// Statuses is the storage of EffectGrant.
type Statuses struct {
	List []game.Status `json:"list"`
}

func decodeAmount(e model.EffectState) (int, error) {
	var a Amount
	if err := game.DecodeStorage(e, &a); err != nil {
		return 0, fmt.Errorf("effect %d storage: %w", e.ID, err)
	}
	return a.N, nil
}

// amountOf reads the amount of a stat effect. Storage is validated when the
// effect is added; a failure here means the state was built elsewhere.
func amountOf(g *game.GameContext, e model.EffectState) int {
	n, err := decodeAmount(e)
	if err != nil && g != nil {
		g.Logger().Error("unreadable effect storage", zap.Int("effect_id", e.ID), zap.Error(err))
	}
	return n
}

func sumAmounts(stack []model.EffectState) int {
	return lo.SumBy(stack, func(e model.EffectState) int { return amountOf(nil, e) })
}

// amountEffect is the base of the stat effects.
type amountEffect struct{ game.BaseEffect }

func (amountEffect) ValidateStorage(e model.EffectState) error {
	_, err := decodeAmount(e)
	return err
}

type powerUp struct{ amountEffect }

func (powerUp) ModifyPower(g *game.GameContext, e model.EffectState, _ game.Subject, power int) int {
	return power + amountOf(g, e)
}

func (powerUp) MergeDescriptions(stack []model.EffectState) string {
	return fmt.Sprintf("power %+d", sumAmounts(stack))
}

// maxHPUp raises maximum HP. Removing it lowers the maximum again and
// stabilization clamps the HP.
type maxHPUp struct{ amountEffect }

func (maxHPUp) ModifyMaxHP(g *game.GameContext, e model.EffectState, _ game.Subject, hp int) int {
	return hp + amountOf(g, e)
}

func (maxHPUp) MergeDescriptions(stack []model.EffectState) string {
	return fmt.Sprintf("max HP %+d", sumAmounts(stack))
}

type grant struct{ game.BaseEffect }

func decodeStatuses(e model.EffectState) (Statuses, error) {
	var st Statuses
	if err := game.DecodeStorage(e, &st); err != nil {
		return Statuses{}, fmt.Errorf("effect %d storage: %w", e.ID, err)
	}
	return st, nil
}

func (grant) ValidateStorage(e model.EffectState) error {
	_, err := decodeStatuses(e)
	return err
}

// GrantsStatus grants nothing for storage that does not decode. AddEffect
// refuses such storage.
func (grant) GrantsStatus(e model.EffectState, _ game.Subject, s game.Status) bool {
	st, err := decodeStatuses(e)
	return err == nil && lo.Contains(st.List, s)
}

func (grant) Describe(e model.EffectState) string {
	st, err := decodeStatuses(e)
	if err != nil {
		return ""
	}
	return strings.Join(lo.Map(st.List, func(s game.Status, _ int) string { return string(s) }), ", ")
}

func effectDefs() []game.EffectDefinition {
	return []game.EffectDefinition{
		powerUp{amountEffect{game.BaseEffect{EffectID: EffectPowerUp, EffectName: "Power Up"}}},
		maxHPUp{amountEffect{game.BaseEffect{EffectID: EffectMaxHPUp, EffectName: "Max HP Up"}}},
		grant{game.BaseEffect{EffectID: EffectGrant, EffectName: "Grant"}},
	}
}

// buff adds a power effect on a unit until the end of the owner's turn.
func buff(c *game.CardContext, u *game.UnitContext, n int) error {
	_, err := c.AddEffect(game.EffectSpec{
		DefID:   EffectPowerUp,
		Owner:   c.Owner(),
		Target:  model.TargetUnit(u.ID()),
		Source:  c.Source(),
		Expiry:  model.UntilTurnEnd(c.Owner()),
		Storage: Amount{N: n},
	})
	return err
}

// crestBadge gives its owner one tension at the start of each turn.
type crestBadge struct{ game.BaseBadge }

func (crestBadge) OnTurnStart(g *game.GameContext, owner model.Leader, _ int) error {
	return g.Player(owner).TensionUp()
}

// sanctuaryFloor heals the unit standing on it by 2 at its owner's turn start.
type sanctuaryFloor struct{ game.BaseFloor }

func (sanctuaryFloor) OnTurnStart(g *game.GameContext, owner model.Leader, floorID int) error {
	f, ok := g.Field().FloorByID(floorID)
	if !ok {
		return nil
	}
	u, ok := g.Field().Unit(f.Position())
	if !ok || u.Owner() != owner {
		return nil
	}
	_, err := u.Heal(2)
	return err
}
