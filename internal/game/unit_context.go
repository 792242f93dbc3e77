package game

import (
	"fmt"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// UnitContext is a unit on the field, addressed by id so it follows the unit
// across moves and owner changes.
type UnitContext struct {
	g  *GameContext
	id int
}

func (u *UnitContext) ID() int { return u.id }

// State returns the stored unit. ok is false once the unit left the field.
func (u *UnitContext) State() (model.FieldUnitState, bool) {
	return u.g.m.state.Field.UnitByID(u.id)
}

func (u *UnitContext) mustState(op string) (model.FieldUnitState, error) {
	s, ok := u.State()
	if !ok {
		return s, runtimeErr(op, "unit %d is not on the field", u.id)
	}
	return s, nil
}

// Exists reports whether the unit is still on the field.
func (u *UnitContext) Exists() bool {
	_, ok := u.State()
	return ok
}

func (u *UnitContext) Owner() model.Leader {
	s, _ := u.State()
	return s.Owner
}

func (u *UnitContext) Position() model.Position {
	s, _ := u.State()
	return s.Position
}

func (u *UnitContext) HP() int {
	s, _ := u.State()
	return s.HP
}

func (u *UnitContext) subject() Subject {
	return Subject{Owner: u.Owner(), UnitID: u.id}
}

func (u *UnitContext) info() CardInfo {
	s, _ := u.State()
	def, err := u.g.m.defs.Cards.Get(s.DefID)
	if err != nil {
		return CardInfo{}
	}
	return def.Info()
}

// CalculatedPower folds every applicable effect over the base power.
func (u *UnitContext) CalculatedPower() int {
	s, _ := u.State()
	return u.g.foldPower(u.subject(), s.BasePower)
}

// CalculatedMaxHP folds every applicable effect over the base max HP.
func (u *UnitContext) CalculatedMaxHP() int {
	s, _ := u.State()
	return u.g.foldMaxHP(u.subject(), s.BaseMaxHP)
}

// HasStatus reports whether the unit's card or an applicable effect grants s.
func (u *UnitContext) HasStatus(st Status) bool {
	return u.info().HasStatus(st) || u.g.effectGrants(u.subject(), st)
}

// GainDamage deals damage and returns the amount applied.
func (u *UnitContext) GainDamage(amount int) (int, error) {
	s, err := u.mustState("unit_gain_damage")
	if err != nil {
		return 0, err
	}
	if amount <= 0 || u.HasStatus(StatusImmune) {
		return 0, nil
	}
	applied := min(amount, max(s.HP, 0))
	if applied == 0 {
		return 0, nil
	}
	return applied, u.g.emit(s.Owner, &action.UnitGainDamage{ID: u.id, Amount: applied})
}

// Heal restores HP up to the calculated maximum and returns the amount applied.
func (u *UnitContext) Heal(amount int) (int, error) {
	s, err := u.mustState("unit_heal")
	if err != nil {
		return 0, err
	}
	applied := max(0, min(amount, u.CalculatedMaxHP()-s.HP))
	if applied == 0 {
		return 0, nil
	}
	return applied, u.g.emit(s.Owner, &action.UnitHeal{ID: u.id, Amount: applied})
}

// Update sets the current HP.
func (u *UnitContext) Update(hp int) error {
	s, err := u.mustState("unit_update")
	if err != nil {
		return err
	}
	if s.HP == hp {
		return nil
	}
	return u.g.emit(s.Owner, &action.UnitUpdate{
		ID:    u.id,
		HP:    hp,
		Power: u.CalculatedPower(),
		MaxHP: u.CalculatedMaxHP(),
	})
}

// Attack makes the unit attack target.
func (u *UnitContext) Attack(target model.Target) error {
	s, err := u.mustState("unit_attack")
	if err != nil {
		return err
	}
	return u.g.m.attack(s.Owner, model.CellTarget(s.Position), target)
}

// Move relocates the unit to an empty cell on its own side. It reports false
// without emitting when the unit is immovable or the cell is unavailable.
func (u *UnitContext) Move(to model.Position) (bool, error) {
	s, err := u.mustState("unit_move")
	if err != nil {
		return false, err
	}
	if u.HasStatus(StatusImmovable) || to == s.Position || to.Leader() != s.Owner || !u.g.m.state.Field.IsEmpty(to) {
		return false, nil
	}
	return true, u.g.emit(s.Owner, &action.UnitMove{ID: u.id, From: s.Position, To: to})
}

// Swap exchanges the unit with whatever occupies another cell on the same
// side. Immovable units on either cell block the swap.
func (u *UnitContext) Swap(with model.Position) (bool, error) {
	s, err := u.mustState("unit_swap")
	if err != nil {
		return false, err
	}
	if with == s.Position || with.Leader() != s.Owner || u.HasStatus(StatusImmovable) {
		return false, nil
	}
	if other, ok := u.g.Field().Unit(with); ok && other.HasStatus(StatusImmovable) {
		return false, nil
	}
	return true, u.g.emit(s.Owner, &action.UnitSwap{A: s.Position, B: with})
}

// ChangeOwner moves the unit to an empty cell on the opponent's side, handing
// it over.
func (u *UnitContext) ChangeOwner(to model.Position) (bool, error) {
	s, err := u.mustState("unit_owner_changed")
	if err != nil {
		return false, err
	}
	owner := s.Owner.Opponent()
	if u.HasStatus(StatusImmovable) || to.Leader() != owner || !u.g.m.state.Field.IsEmpty(to) {
		return false, nil
	}
	return true, u.g.emit(s.Owner, &action.UnitOwnerChanged{ID: u.id, From: s.Position, To: to, Owner: owner})
}

// Destroy removes the unit, records it as dead, cascades its effects and runs
// the destroyed hook of its card.
func (u *UnitContext) Destroy() error {
	s, err := u.mustState("unit_destroyed")
	if err != nil {
		return err
	}
	if err := u.g.emit(s.Owner, &action.UnitDestroyed{ID: u.id}); err != nil {
		return err
	}
	if err := u.cascade(s); err != nil {
		return err
	}
	def, err := u.g.m.defs.Cards.Get(s.DefID)
	if err != nil {
		return err
	}
	if hook, ok := def.(DestroyedHook); ok {
		if err := hook.OnDestroyed(u.g, s.Owner, u.id); err != nil {
			return fmt.Errorf("unit %d destroyed hook: %w", s.DefID, err)
		}
	}
	return nil
}

// Slay destroys the unit through a card effect. Immune units survive.
func (u *UnitContext) Slay() (bool, error) {
	if _, err := u.mustState("unit_destroyed"); err != nil {
		return false, err
	}
	if u.HasStatus(StatusImmune) {
		return false, nil
	}
	return true, u.Destroy()
}

// Exile removes the unit without it counting as dead.
func (u *UnitContext) Exile() error {
	s, err := u.mustState("unit_exiled")
	if err != nil {
		return err
	}
	if err := u.g.emit(s.Owner, &action.UnitExiled{ID: u.id}); err != nil {
		return err
	}
	return u.cascade(s)
}

func (u *UnitContext) cascade(s model.FieldUnitState) error {
	return u.g.removeEffectsOf(model.TargetUnit(u.id), model.SourceOf(model.EffectSourceUnit, s.Owner, u.id))
}
