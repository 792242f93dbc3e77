package game

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/effects"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// GameContext is the handle definitions use to read and change a match while
// a command is running. It is only valid inside the match lock.
type GameContext struct {
	m *Match
}

func (g *GameContext) State() model.GameState       { return g.m.state }
func (g *GameContext) Turn() int                    { return g.m.state.Turn }
func (g *GameContext) ActiveLeader() model.Leader   { return g.m.state.ActiveLeader }
func (g *GameContext) Rand() *RNG                   { return g.m.rng }
func (g *GameContext) Defs() *Registries            { return g.m.defs }
func (g *GameContext) Logger() *zap.Logger          { return g.m.logger }
func (g *GameContext) Effects() []model.EffectState { return g.m.state.Effects }

// Player returns the context of leader l.
func (g *GameContext) Player(l model.Leader) *PlayerContext {
	return g.m.cached("player", int(l), func() interface{} {
		return &PlayerContext{g: g, leader: l}
	}).(*PlayerContext)
}

// Field returns the field context.
func (g *GameContext) Field() *FieldContext {
	return g.m.cached("field", 0, func() interface{} {
		return &FieldContext{g: g}
	}).(*FieldContext)
}

func (g *GameContext) emit(actor model.Leader, a action.Action) error {
	return g.m.emit(actor, a)
}

func (g *GameContext) newID() int {
	return g.m.nextID()
}

// EffectSpec describes an effect to add.
type EffectSpec struct {
	DefID   int
	Owner   model.Leader
	Target  model.EffectTarget
	Source  model.EffectSource
	Expiry  *model.Expiry
	Storage interface{}
}

// AddEffect creates an effect, logs EFFECT_ADDED and runs its added hook.
func (g *GameContext) AddEffect(spec EffectSpec) (model.EffectState, error) {
	def, err := g.m.defs.Effects.Get(spec.DefID)
	if err != nil {
		return model.EffectState{}, err
	}
	target := spec.Target
	if target.Kind == "" {
		target = model.NoTarget
	}
	e := model.EffectState{
		ID:     g.newID(),
		DefID:  spec.DefID,
		Owner:  spec.Owner,
		Target: target,
		Source: spec.Source,
		Expiry: spec.Expiry,
	}
	if spec.Storage != nil {
		raw, err := json.Marshal(spec.Storage)
		if err != nil {
			return model.EffectState{}, runtimeErr("add_effect", "encode storage of effect %d: %v", spec.DefID, err)
		}
		e.Storage = raw
	}
	if v, ok := def.(StorageValidator); ok {
		if err := v.ValidateStorage(e); err != nil {
			return model.EffectState{}, runtimeErr("add_effect", "storage of effect %d: %v", spec.DefID, err)
		}
	}
	if err := g.emit(spec.Owner, &action.EffectAdded{Effect: e}); err != nil {
		return model.EffectState{}, err
	}
	if hooks, ok := def.(EffectHooks); ok && g.m.hooks.FirstAdded(e.ID) {
		if err := hooks.OnAdded(g, e); err != nil {
			return e, fmt.Errorf("effect %d added hook: %w", spec.DefID, err)
		}
	}
	return e, nil
}

// RemoveEffect logs EFFECT_REMOVED and runs the removed hook. Removing an
// effect that is already gone is a no-op.
func (g *GameContext) RemoveEffect(id int) error {
	e, ok := g.m.state.Effect(id)
	if !ok {
		return nil
	}
	if err := g.emit(e.Owner, &action.EffectRemoved{ID: id}); err != nil {
		return err
	}
	def, ok := g.effectDef(e.DefID)
	if !ok {
		return nil
	}
	if hooks, ok := def.(EffectHooks); ok && g.m.hooks.FirstRemoved(e.ID) {
		if err := hooks.OnRemoved(g, e); err != nil {
			return fmt.Errorf("effect %d removed hook: %w", e.DefID, err)
		}
	}
	return nil
}

// removeEffectsOf cascades the removal of every effect pinned to target or
// created by source.
func (g *GameContext) removeEffectsOf(target model.EffectTarget, source model.EffectSource) error {
	doomed := append(effects.FindAllByTarget(g.m.state.Effects, target), effects.FindAllBySource(g.m.state.Effects, source)...)
	for _, e := range doomed {
		if err := g.RemoveEffect(e.ID); err != nil {
			return err
		}
	}
	return nil
}

// removeEffectsFrom cascades the removal of every effect created by source.
func (g *GameContext) removeEffectsFrom(source model.EffectSource) error {
	for _, e := range effects.FindAllBySource(g.m.state.Effects, source) {
		if err := g.RemoveEffect(e.ID); err != nil {
			return err
		}
	}
	return nil
}

func (g *GameContext) effectDef(defID int) (EffectDefinition, bool) {
	def, err := g.m.defs.Effects.Get(defID)
	if err != nil {
		g.m.logger.Warn("effect definition missing", zap.Int("def_id", defID))
		return nil, false
	}
	return def, true
}

// applicable returns the effects that act on subject in insertion order: those
// pinned to it, the untargeted ones of its owner, and for units the ones
// pinned to the floor under it.
func (g *GameContext) applicable(subject Subject) []model.EffectState {
	if subject.IsLeader() {
		return effects.FindAllByTargetOrUntargeted(g.m.state.Effects, model.TargetLeader(subject.Owner), subject.Owner)
	}
	targets := []model.EffectTarget{model.TargetUnit(subject.UnitID)}
	if u, ok := g.m.state.Field.UnitByID(subject.UnitID); ok {
		if f, ok := g.m.state.Field.Floor(u.Position); ok {
			targets = append(targets, model.TargetFloor(f.ID))
		}
	}
	return effects.FindAllByTargetsOrUntargeted(g.m.state.Effects, subject.Owner, targets...)
}

func (g *GameContext) foldPower(subject Subject, base int) int {
	power := base
	for _, e := range g.applicable(subject) {
		def, ok := g.effectDef(e.DefID)
		if !ok {
			continue
		}
		if mod, ok := def.(PowerModifier); ok {
			power = mod.ModifyPower(g, e, subject, power)
		}
	}
	return max(power, 0)
}

func (g *GameContext) foldMaxHP(subject Subject, base int) int {
	hp := base
	for _, e := range g.applicable(subject) {
		def, ok := g.effectDef(e.DefID)
		if !ok {
			continue
		}
		if mod, ok := def.(MaxHPModifier); ok {
			hp = mod.ModifyMaxHP(g, e, subject, hp)
		}
	}
	return max(hp, 0)
}

func (g *GameContext) effectGrants(subject Subject, s Status) bool {
	for _, e := range g.applicable(subject) {
		def, ok := g.effectDef(e.DefID)
		if !ok {
			continue
		}
		if granter, ok := def.(StatusGranter); ok && granter.GrantsStatus(e, subject, s) {
			return true
		}
	}
	return false
}

func (g *GameContext) foldCounterDamage(subject Subject, damage int) int {
	for _, e := range g.applicable(subject) {
		def, ok := g.effectDef(e.DefID)
		if !ok {
			continue
		}
		if mod, ok := def.(CounterDamageModifier); ok {
			damage = mod.ModifyCounterDamage(e, damage)
		}
	}
	return max(damage, 0)
}

// DescribeEffects renders the effects acting on subject for display.
func (g *GameContext) DescribeEffects(subject Subject) []string {
	return effects.Describe(g.applicable(subject), func(defID int) (interface{}, bool) {
		def, ok := g.effectDef(defID)
		return def, ok
	})
}

// DecodeStorage reads the storage payload of e into v.
func DecodeStorage(e model.EffectState, v interface{}) error {
	if len(e.Storage) == 0 {
		return nil
	}
	return json.Unmarshal(e.Storage, v)
}
