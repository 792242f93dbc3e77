package catalog

import (
	"github.com/nenshoukei/zombals-sub000/internal/game"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

func unit(id int, name string, cost, power, hp int, rarity game.Rarity, statuses ...game.Status) game.CardInfo {
	return game.CardInfo{
		ID:       id,
		Name:     name,
		Kind:     model.CardKindUnit,
		Cost:     cost,
		Rarity:   rarity,
		Job:      game.JobNeutral,
		Power:    power,
		HP:       hp,
		Target:   game.TargetOwnEmptyCell,
		Statuses: statuses,
	}
}

func units() []game.CardDefinition {
	skeleton := unit(Skeleton, "Skeleton", 1, 1, 1, game.RarityCommon)
	skeleton.Token = true

	return []game.CardDefinition{
		&game.UnitCard{Card: unit(ZombieFootman, "Zombie Footman", 1, 1, 2, game.RarityCommon)},
		&game.UnitCard{Card: unit(ShieldBearer, "Shield Bearer", 2, 1, 3, game.RarityCommon, game.StatusGuardian)},
		&game.UnitCard{Card: unit(SwiftHound, "Swift Hound", 2, 2, 1, game.RarityCommon, game.StatusHaste)},
		&game.UnitCard{Card: unit(BoneArcher, "Bone Archer", 2, 2, 1, game.RarityRare, game.StatusSnipe)},
		&game.UnitCard{Card: unit(TwinBlade, "Twin Blade", 3, 1, 3, game.RarityRare, game.StatusDoubleAttack)},
		&game.UnitCard{Card: unit(NightShade, "Night Shade", 2, 2, 2, game.RarityRare, game.StatusStealth)},
		&game.UnitCard{
			Card: unit(GraveDigger, "Grave Digger", 3, 2, 2, game.RarityCommon),
			OnDeath: func(g *game.GameContext, owner model.Leader, _ int) error {
				_, err := g.Player(owner).DrawCard()
				return err
			},
		},
		&game.UnitCard{Card: unit(Ogre, "Ogre", 5, 5, 5, game.RarityCommon)},
		&game.UnitCard{Card: unit(PiercingKnight, "Piercing Knight", 4, 4, 2, game.RarityEpic, game.StatusPenetrate)},
		&game.UnitCard{
			Card:     unit(Necromancer, "Necromancer", 4, 3, 3, game.RarityLegend),
			OnSummon: summonSkeleton,
		},
		&game.UnitCard{Card: skeleton},
		&game.HeroCard{
			UnitCard: game.UnitCard{
				Card: game.CardInfo{
					ID: BraveCaptain, Name: "Brave Captain", Kind: model.CardKindHero, Cost: 4,
					Rarity: game.RarityLegend, Job: game.JobWarrior, Power: 3, HP: 4,
					Target: game.TargetOwnEmptyCell,
				},
				OnSummon: func(c *game.CardContext, _ *game.UnitContext) error {
					_, err := c.Self().AddBadge(BadgeCrest)
					return err
				},
			},
			HeroSkill: ShieldWall,
		},
		&game.HeroCard{
			UnitCard: game.UnitCard{
				Card: game.CardInfo{
					ID: ArchMage, Name: "Arch Mage", Kind: model.CardKindHero, Cost: 5,
					Rarity: game.RarityLegend, Job: game.JobMage, Power: 2, HP: 5,
					Target: game.TargetOwnEmptyCell, Statuses: []game.Status{game.StatusGuardian},
				},
				OnSummon: func(c *game.CardContext, _ *game.UnitContext) error {
					return damageUnits(c.Field().Units(c.Enemy().Leader()), 1)
				},
			},
		},
		&game.WeaponCard{Card: game.CardInfo{
			ID: RustySword, Name: "Rusty Sword", Kind: model.CardKindWeapon, Cost: 2,
			Rarity: game.RarityCommon, Job: game.JobWarrior, Power: 2, Durability: 2,
		}},
		&game.BuildingCard{
			Card: game.CardInfo{
				ID: Watchtower, Name: "Watchtower", Kind: model.CardKindBuilding, Cost: 2,
				Rarity: game.RarityRare, Durability: 3, Target: game.TargetOwnEmptyCell,
			},
			TurnStart: func(g *game.GameContext, owner model.Leader, _ int) error {
				_, err := g.Player(owner).Opponent().GainDamage(1)
				return err
			},
		},
	}
}

// summonSkeleton puts a Skeleton token on the first empty cell of the owner.
func summonSkeleton(c *game.CardContext, _ *game.UnitContext) error {
	cells := c.Field().EmptyCells(c.Owner())
	if len(cells) == 0 {
		return nil
	}
	_, err := c.Field().SummonToken(c.Owner(), cells[0], Skeleton)
	return err
}
