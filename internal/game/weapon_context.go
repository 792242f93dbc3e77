package game

import (
	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// WeaponContext is the weapon equipped by one leader.
type WeaponContext struct {
	g      *GameContext
	leader model.Leader
}

func (w *WeaponContext) state() (model.WeaponState, bool) {
	ws := w.g.m.state.Player(w.leader).Weapon
	if ws == nil {
		return model.WeaponState{}, false
	}
	return *ws, true
}

// CardID returns the id of the card the weapon was equipped from.
func (w *WeaponContext) CardID() int {
	ws, _ := w.state()
	return ws.CardID
}

// Power returns the base power of the weapon.
func (w *WeaponContext) Power() int {
	ws, _ := w.state()
	return ws.Power
}

// Durability returns the remaining durability.
func (w *WeaponContext) Durability() int {
	ws, _ := w.state()
	return ws.Durability
}

// Update sets power and durability. A durability of 0 breaks the weapon.
func (w *WeaponContext) Update(power, durability int) error {
	ws, ok := w.state()
	if !ok {
		return runtimeErr("weapon_update", "%s has no weapon", w.leader)
	}
	power, durability = max(power, 0), max(durability, 0)
	if durability == 0 {
		return w.Break()
	}
	if ws.Power == power && ws.Durability == durability {
		return nil
	}
	return w.g.emit(w.leader, &action.WeaponUpdate{Power: power, Durability: durability})
}

// Break removes the weapon and the effects it created.
func (w *WeaponContext) Break() error {
	ws, ok := w.state()
	if !ok {
		return nil
	}
	if err := w.g.emit(w.leader, &action.BreakWeapon{}); err != nil {
		return err
	}
	return w.g.removeEffectsFrom(model.SourceOf(model.EffectSourceWeapon, w.leader, ws.CardID))
}
