package game

import (
	"github.com/samber/lo"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// combatant is the attacking side of one attack, a leader or a unit.
type combatant struct {
	leader *PlayerContext
	unit   *UnitContext
}

func (c combatant) hasStatus(s Status) bool {
	if c.unit != nil {
		return c.unit.HasStatus(s)
	}
	return c.leader.HasStatus(s)
}

func (c combatant) power() int {
	if c.unit != nil {
		return c.unit.CalculatedPower()
	}
	return c.leader.CalculatedPower()
}

func (c combatant) subject() Subject {
	if c.unit != nil {
		return c.unit.subject()
	}
	return c.leader.subject()
}

func (c combatant) gainDamage(amount int) (int, error) {
	if c.unit != nil {
		if !c.unit.Exists() {
			return 0, nil
		}
		return c.unit.GainDamage(amount)
	}
	return c.leader.GainDamage(amount)
}

func attackLimit(c combatant) int {
	if c.hasStatus(StatusDoubleAttack) {
		return 2
	}
	return 1
}

// attack validates and resolves one attack by leader's side.
func (m *Match) attack(leader model.Leader, attacker, target model.Target) error {
	g := m.g
	var c combatant
	switch {
	case attacker.IsCell():
		if attacker.Position.Leader() != leader {
			return forbidden("attacker at %s is not yours", attacker.Position)
		}
		u, ok := g.Field().Unit(attacker.Position)
		if !ok {
			return forbidden("no unit at %s", attacker.Position)
		}
		c = combatant{unit: u}
		us, _ := u.State()
		if us.SummonTurn == m.state.Turn && !u.HasStatus(StatusHaste) {
			return forbidden("unit %d was summoned this turn", us.ID)
		}
		if us.AttackCount >= attackLimit(c) {
			return forbidden("unit %d has no attacks left", us.ID)
		}
	case attacker.IsLeader():
		if attacker.Leader != leader {
			return forbidden("cannot attack with the enemy leader")
		}
		c = combatant{leader: g.Player(leader)}
		if c.power() <= 0 {
			return forbidden("leader has no power")
		}
		if c.leader.State().AttackCount >= attackLimit(c) {
			return forbidden("leader has no attacks left")
		}
	default:
		return forbidden("no attacker")
	}

	enemy := leader.Opponent()
	if err := m.checkAttackTarget(c, enemy, target); err != nil {
		return err
	}
	if err := m.emit(leader, &action.Attack{Attacker: attacker, Target: target}); err != nil {
		return err
	}
	if err := m.resolveAttack(c, enemy, target); err != nil {
		return err
	}
	if c.leader != nil {
		if w, ok := c.leader.Weapon(); ok {
			return w.Update(w.Power(), w.Durability()-1)
		}
	}
	return nil
}

func (m *Match) checkAttackTarget(c combatant, enemy model.Leader, target model.Target) error {
	field := m.g.Field()
	if target.Side() != enemy {
		return forbidden("target is not on the enemy side")
	}
	var targetUnit *UnitContext
	switch {
	case target.IsCell():
		if u, ok := field.Unit(target.Position); ok {
			if u.HasStatus(StatusStealth) {
				return forbidden("unit at %s is hidden", target.Position)
			}
			targetUnit = u
		} else if _, ok := field.Building(target.Position); !ok {
			return forbidden("nothing to attack at %s", target.Position)
		}
	case !target.IsLeader():
		return forbidden("no target")
	}

	if c.hasStatus(StatusSnipe) {
		return nil
	}
	guardians := lo.Filter(field.Units(enemy), func(u *UnitContext, _ int) bool {
		return u.HasStatus(StatusGuardian) && !u.HasStatus(StatusStealth)
	})
	if len(guardians) == 0 {
		return nil
	}
	if targetUnit == nil || !lo.ContainsBy(guardians, func(u *UnitContext) bool { return u.ID() == targetUnit.ID() }) {
		return forbidden("a guardian must be attacked first")
	}
	return nil
}

// resolveAttack deals the attacker's power to the target and the counter
// damage back. Buildings and leaders do not counter.
func (m *Match) resolveAttack(c combatant, enemy model.Leader, target model.Target) error {
	g := m.g
	power := c.power()
	if target.IsLeader() {
		_, err := g.Player(enemy).GainDamage(power)
		return err
	}
	if b, ok := g.Field().Building(target.Position); ok {
		_, err := b.GainDamage(power)
		return err
	}

	u, _ := g.Field().Unit(target.Position)
	hpBefore := u.HP()
	counter := u.CalculatedPower()
	immune := u.HasStatus(StatusImmune)
	if _, err := u.GainDamage(power); err != nil {
		return err
	}
	if excess := power - max(hpBefore, 0); excess > 0 && !immune && c.hasStatus(StatusPenetrate) {
		if _, err := g.Player(enemy).GainDamage(excess); err != nil {
			return err
		}
	}

	if c.hasStatus(StatusNoCounter) {
		return nil
	}
	counter = g.foldCounterDamage(c.subject(), counter)
	_, err := c.gainDamage(counter)
	return err
}
