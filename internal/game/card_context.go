package game

import (
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// CardContext is handed to a card definition while it resolves. It embeds the
// game context, so every game-wide helper is reachable from it.
type CardContext struct {
	*GameContext
	card   model.CardState
	target *model.Target
}

func (g *GameContext) cardContext(card model.CardState, target *model.Target) *CardContext {
	return &CardContext{GameContext: g, card: card, target: target}
}

func (c *CardContext) Card() model.CardState { return c.card }
func (c *CardContext) Owner() model.Leader   { return c.card.Owner }
func (c *CardContext) Self() *PlayerContext  { return c.Player(c.card.Owner) }
func (c *CardContext) Enemy() *PlayerContext { return c.Player(c.card.Owner.Opponent()) }
func (c *CardContext) Target() *model.Target { return c.target }
func (c *CardContext) Source() model.EffectSource {
	return model.SourceOf(model.EffectSourceCard, c.card.Owner, c.card.ID)
}

// TargetUnit returns the unit at the chosen target cell.
func (c *CardContext) TargetUnit() (*UnitContext, bool) {
	if c.target == nil || !c.target.IsCell() {
		return nil, false
	}
	return c.Field().Unit(c.target.Position)
}

// DamageTarget deals amount to whatever the chosen target is: a leader, a
// unit or a building. It returns the amount applied.
func (c *CardContext) DamageTarget(amount int) (int, error) {
	if c.target == nil {
		return 0, runtimeErr("damage_target", "card %d has no target", c.card.ID)
	}
	if c.target.IsLeader() {
		return c.Player(c.target.Leader).GainDamage(amount)
	}
	if u, ok := c.Field().Unit(c.target.Position); ok {
		return u.GainDamage(amount)
	}
	if b, ok := c.Field().Building(c.target.Position); ok {
		return b.GainDamage(amount)
	}
	return 0, runtimeErr("damage_target", "nothing at %s", c.target.Position)
}
