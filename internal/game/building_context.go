package game

import (
	"fmt"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// BuildingContext is a building on the field.
type BuildingContext struct {
	g  *GameContext
	id int
}

func (b *BuildingContext) ID() int { return b.id }

func (b *BuildingContext) State() (model.FieldBuildingState, bool) {
	return b.g.m.state.Field.BuildingByID(b.id)
}

func (b *BuildingContext) Owner() model.Leader {
	s, _ := b.State()
	return s.Owner
}

func (b *BuildingContext) Durability() int {
	s, _ := b.State()
	return s.Durability
}

// GainDamage reduces durability and returns the amount applied.
func (b *BuildingContext) GainDamage(amount int) (int, error) {
	s, ok := b.State()
	if !ok {
		return 0, runtimeErr("building_gain_damage", "building %d is not on the field", b.id)
	}
	applied := min(max(amount, 0), max(s.Durability, 0))
	if applied == 0 {
		return 0, nil
	}
	return applied, b.g.emit(s.Owner, &action.BuildingGainDamage{ID: b.id, Amount: applied})
}

// Heal restores durability up to the base value.
func (b *BuildingContext) Heal(amount int) (int, error) {
	s, ok := b.State()
	if !ok {
		return 0, runtimeErr("building_heal", "building %d is not on the field", b.id)
	}
	applied := max(0, min(amount, s.BaseDurability-s.Durability))
	if applied == 0 {
		return 0, nil
	}
	return applied, b.g.emit(s.Owner, &action.BuildingHeal{ID: b.id, Amount: applied})
}

// Destroy removes the building and the effects it created.
func (b *BuildingContext) Destroy() error {
	s, ok := b.State()
	if !ok {
		return runtimeErr("building_destroyed", "building %d is not on the field", b.id)
	}
	if err := b.g.emit(s.Owner, &action.BuildingDestroyed{ID: b.id}); err != nil {
		return err
	}
	if err := b.g.removeEffectsFrom(model.SourceOf(model.EffectSourceBuilding, s.Owner, b.id)); err != nil {
		return err
	}
	def, err := b.g.m.defs.Cards.Get(s.DefID)
	if err != nil {
		return err
	}
	if hook, ok := def.(DestroyedHook); ok {
		if err := hook.OnDestroyed(b.g, s.Owner, b.id); err != nil {
			return fmt.Errorf("building %d destroyed hook: %w", s.DefID, err)
		}
	}
	return nil
}

// FloorContext is a floor laid under a cell.
type FloorContext struct {
	g  *GameContext
	id int
}

func (f *FloorContext) ID() int { return f.id }

func (f *FloorContext) State() (model.FloorState, bool) {
	return f.g.m.state.Field.FloorByID(f.id)
}

func (f *FloorContext) Owner() model.Leader {
	s, _ := f.State()
	return s.Owner
}

func (f *FloorContext) Position() model.Position {
	s, _ := f.State()
	return s.Position
}

// Destroy removes the floor and every effect pinned to or created by it.
func (f *FloorContext) Destroy() error {
	s, ok := f.State()
	if !ok {
		return runtimeErr("floor_destroyed", "floor %d is not on the field", f.id)
	}
	if err := f.g.emit(s.Owner, &action.FloorDestroyed{ID: f.id}); err != nil {
		return err
	}
	return f.g.removeEffectsOf(model.TargetFloor(f.id), model.SourceOf(model.EffectSourceFloor, s.Owner, f.id))
}
