// Package catalog ships the basic card set: a few units, spells, a weapon, a
// building, a floor, hero cards and the skills of every job.
package catalog

import (
	"fmt"

	"github.com/nenshoukei/zombals-sub000/internal/game"
)

// Unit cards.
const (
	ZombieFootman = 1001 + iota
	ShieldBearer
	SwiftHound
	BoneArcher
	TwinBlade
	NightShade
	GraveDigger
	Ogre
	PiercingKnight
	Necromancer
	Skeleton
)

// Spell cards.
const (
	FireBolt = 2001 + iota
	Insight
	Mend
	BattleCry
	DiceOfFate
	Crossroads
	TradeSecrets
	FortunesFavor
	Consecrate
)

// Weapons and buildings.
const (
	RustySword = 3001 + iota
	Watchtower
)

// Hero cards.
const (
	BraveCaptain = 4001 + iota
	ArchMage
)

// Tension and hero skills.
const (
	WarCry = 5001 + iota
	Strike
	Meteor
	ArcaneSpark
	Blessing
	Prayer
	Ambush
	Pickpocket
	ShieldWall
)

// Effects, badges and floors.
const (
	EffectPowerUp = 6001 + iota
	EffectMaxHPUp
	EffectGrant
)

const BadgeCrest = 7001

const FloorSanctuary = 8001

// RegisterAll adds every basic definition to defs.
func RegisterAll(defs *game.Registries) error {
	if err := defs.Cards.Register(units()...); err != nil {
		return fmt.Errorf("register units: %w", err)
	}
	if err := defs.Cards.Register(spells()...); err != nil {
		return fmt.Errorf("register spells: %w", err)
	}
	if err := defs.Cards.Register(skills()...); err != nil {
		return fmt.Errorf("register skills: %w", err)
	}
	if err := defs.Effects.Register(effectDefs()...); err != nil {
		return fmt.Errorf("register effects: %w", err)
	}
	if err := defs.Badges.Register(crestBadge{game.BaseBadge{BadgeID: BadgeCrest, BadgeName: "Champion's Crest"}}); err != nil {
		return fmt.Errorf("register badges: %w", err)
	}
	if err := defs.Floors.Register(sanctuaryFloor{game.BaseFloor{FloorID: FloorSanctuary, FloorName: "Sanctuary"}}); err != nil {
		return fmt.Errorf("register floors: %w", err)
	}
	if err := defs.Jobs.Register(jobs()...); err != nil {
		return fmt.Errorf("register jobs: %w", err)
	}
	return nil
}

// New returns registries holding the basic catalog.
func New() (*game.Registries, error) {
	defs := game.NewRegistries()
	if err := RegisterAll(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// MustNew is New for startup wiring. It panics on a malformed catalog.
func MustNew() *game.Registries {
	defs, err := New()
	if err != nil {
		panic(err)
	}
	return defs
}
