package game

import (
	"fmt"

	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// UnitCard summons its unit on the chosen own empty cell. OnSummon runs right
// after the unit is on the field and OnDeath after it was destroyed.
type UnitCard struct {
	Card     CardInfo
	OnSummon func(c *CardContext, u *UnitContext) error
	OnDeath  func(g *GameContext, owner model.Leader, unitID int) error
}

func (d *UnitCard) ID() int        { return d.Card.ID }
func (d *UnitCard) Info() CardInfo { return d.Card }

func (d *UnitCard) Use(c *CardContext, target *model.Target) error {
	card := c.Card()
	u, err := c.Field().PutUnit(c.Owner(), target.Position, d.Card.ID, card.Power, card.HP)
	if err != nil {
		return err
	}
	if d.OnSummon != nil {
		return d.OnSummon(c, u)
	}
	return nil
}

func (d *UnitCard) OnDestroyed(g *GameContext, owner model.Leader, unitID int) error {
	if d.OnDeath == nil {
		return nil
	}
	return d.OnDeath(g, owner, unitID)
}

// HeroCard is a unit card that also replaces the hero skill of its owner.
type HeroCard struct {
	UnitCard
	HeroSkill int
}

func (d *HeroCard) Use(c *CardContext, target *model.Target) error {
	if err := d.UnitCard.Use(c, target); err != nil {
		return err
	}
	if d.HeroSkill == 0 {
		return nil
	}
	return c.Self().ChangeHeroSkill(d.HeroSkill)
}

// SpellCard runs Effect once. Usable, when set, can refuse the card.
type SpellCard struct {
	Card   CardInfo
	Effect func(c *CardContext) error
	Usable func(c *CardContext) bool
}

func (d *SpellCard) ID() int        { return d.Card.ID }
func (d *SpellCard) Info() CardInfo { return d.Card }

func (d *SpellCard) Use(c *CardContext, _ *model.Target) error {
	if d.Effect == nil {
		return fmt.Errorf("spell %d has no effect", d.Card.ID)
	}
	return d.Effect(c)
}

func (d *SpellCard) CanUse(c *CardContext) bool {
	return d.Usable == nil || d.Usable(c)
}

// WeaponCard equips itself. OnEquip runs after the weapon is in place.
type WeaponCard struct {
	Card    CardInfo
	OnEquip func(c *CardContext, w *WeaponContext) error
}

func (d *WeaponCard) ID() int        { return d.Card.ID }
func (d *WeaponCard) Info() CardInfo { return d.Card }

func (d *WeaponCard) Use(c *CardContext, _ *model.Target) error {
	w, err := c.Self().EquipWeapon(c.Card())
	if err != nil {
		return err
	}
	if d.OnEquip != nil {
		return d.OnEquip(c, w)
	}
	return nil
}

// BuildingCard places a building on the chosen own empty cell. TurnStart runs
// at the start of each of its owner's turns.
type BuildingCard struct {
	Card      CardInfo
	TurnStart func(g *GameContext, owner model.Leader, buildingID int) error
}

func (d *BuildingCard) ID() int        { return d.Card.ID }
func (d *BuildingCard) Info() CardInfo { return d.Card }

func (d *BuildingCard) Use(c *CardContext, target *model.Target) error {
	_, err := c.Field().PutBuilding(c.Owner(), target.Position, d.Card.ID, c.Card().Durability)
	return err
}

func (d *BuildingCard) OnTurnStart(g *GameContext, owner model.Leader, buildingID int) error {
	if d.TurnStart == nil {
		return nil
	}
	return d.TurnStart(g, owner, buildingID)
}

// SkillCard is a tension or hero skill. It stays in its slot after use.
type SkillCard struct {
	Card   CardInfo
	Effect func(c *CardContext) error
}

func (d *SkillCard) ID() int        { return d.Card.ID }
func (d *SkillCard) Info() CardInfo { return d.Card }

func (d *SkillCard) Use(c *CardContext, _ *model.Target) error {
	if d.Effect == nil {
		return fmt.Errorf("skill %d has no effect", d.Card.ID)
	}
	return d.Effect(c)
}

// BaseEffect names an effect definition.
type BaseEffect struct {
	EffectID   int
	EffectName string
}

func (e BaseEffect) ID() int      { return e.EffectID }
func (e BaseEffect) Name() string { return e.EffectName }

// BaseBadge names a badge definition.
type BaseBadge struct {
	BadgeID   int
	BadgeName string
}

func (b BaseBadge) ID() int      { return b.BadgeID }
func (b BaseBadge) Name() string { return b.BadgeName }

// BaseFloor names a floor definition.
type BaseFloor struct {
	FloorID   int
	FloorName string
}

func (f BaseFloor) ID() int      { return f.FloorID }
func (f BaseFloor) Name() string { return f.FloorName }

// JobSkills lists the skills a job starts with.
type JobSkills struct {
	Job     Job
	Tension int
	Hero    int
}

func (j JobSkills) ID() int           { return int(j.Job) }
func (j JobSkills) TensionSkill() int { return j.Tension }
func (j JobSkills) HeroSkill() int    { return j.Hero }
