package catalog

import (
	"github.com/nenshoukei/zombals-sub000/internal/game"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

func spell(id int, name string, cost int, rarity game.Rarity, target game.TargetRule) game.CardInfo {
	return game.CardInfo{ID: id, Name: name, Kind: model.CardKindSpell, Cost: cost, Rarity: rarity, Target: target}
}

func draw(p *game.PlayerContext, n int) error {
	for i := 0; i < n; i++ {
		if _, err := p.DrawCard(); err != nil {
			return err
		}
	}
	return nil
}

func damageUnits(units []*game.UnitContext, n int) error {
	for _, u := range units {
		if _, err := u.GainDamage(n); err != nil {
			return err
		}
	}
	return nil
}

func spells() []game.CardDefinition {
	return []game.CardDefinition{
		&game.SpellCard{
			Card: spell(FireBolt, "Fire Bolt", 1, game.RarityCommon, game.TargetAny),
			Effect: func(c *game.CardContext) error {
				_, err := c.DamageTarget(2)
				return err
			},
		},
		&game.SpellCard{
			Card:   spell(Insight, "Insight", 2, game.RarityCommon, game.TargetNone),
			Effect: func(c *game.CardContext) error { return draw(c.Self(), 2) },
		},
		&game.SpellCard{
			Card: spell(Mend, "Mend", 1, game.RarityCommon, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				_, err := c.Self().Heal(4)
				return err
			},
			Usable: func(c *game.CardContext) bool { return c.Self().HP() < c.Self().MaxHP() },
		},
		&game.SpellCard{
			Card: spell(BattleCry, "Battle Cry", 1, game.RarityCommon, game.TargetOwnUnit),
			Effect: func(c *game.CardContext) error {
				u, ok := c.TargetUnit()
				if !ok {
					return nil
				}
				return buff(c, u, 2)
			},
		},
		&game.SpellCard{
			Card: spell(DiceOfFate, "Dice of Fate", 2, game.RarityRare, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				return c.Fortune(
					game.FortuneOption{Label: "Hail", Run: func() error {
						return damageUnits(c.Field().Units(c.Enemy().Leader()), 1)
					}},
					game.FortuneOption{Label: "Study", Run: func() error { return draw(c.Self(), 1) }},
					game.FortuneOption{Label: "Rest", Run: func() error {
						_, err := c.Self().Heal(3)
						return err
					}},
				)
			},
		},
		&game.SpellCard{
			Card: spell(Crossroads, "Crossroads", 1, game.RarityCommon, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				return c.SelectOption([]string{"Draw a card", "Gain 2 MP"}, func(i int) error {
					if i == 0 {
						return draw(c.Self(), 1)
					}
					return c.Self().GainMP(2)
				})
			},
		},
		&game.SpellCard{
			Card: spell(TradeSecrets, "Trade Secrets", 1, game.RarityRare, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				return c.SelectHand(1, func(cards []model.CardState) error {
					for _, card := range cards {
						if err := c.Self().Discard(card.ID); err != nil {
							return err
						}
					}
					return draw(c.Self(), 2)
				})
			},
		},
		&game.SpellCard{
			Card: spell(FortunesFavor, "Fortune's Favor", 2, game.RarityEpic, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				_, err := c.AddEffect(game.EffectSpec{
					DefID:   EffectGrant,
					Owner:   c.Owner(),
					Target:  model.TargetLeader(c.Owner()),
					Source:  model.SourceLeader(c.Owner()),
					Storage: Statuses{List: []game.Status{game.StatusFortuneChoice}},
				})
				return err
			},
		},
		&game.SpellCard{
			Card: spell(Consecrate, "Consecrate", 1, game.RarityRare, game.TargetOwnFloorlessCell),
			Effect: func(c *game.CardContext) error {
				_, err := c.Field().PutFloor(c.Owner(), c.Target().Position, FloorSanctuary)
				return err
			},
		},
	}
}

func skill(id int, name string, kind model.CardKind, job game.Job, cost int, target game.TargetRule) game.CardInfo {
	return game.CardInfo{ID: id, Name: name, Kind: kind, Cost: cost, Job: job, Target: target}
}

func skills() []game.CardDefinition {
	tension, hero := model.CardKindTensionSkill, model.CardKindHeroSkill
	return []game.CardDefinition{
		&game.SkillCard{
			Card: skill(WarCry, "War Cry", tension, game.JobWarrior, 0, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				for _, u := range c.Field().Units(c.Owner()) {
					if err := buff(c, u, 1); err != nil {
						return err
					}
				}
				return nil
			},
		},
		&game.SkillCard{
			Card: skill(Strike, "Strike", hero, game.JobWarrior, 2, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				_, err := c.Enemy().GainDamage(1)
				return err
			},
		},
		&game.SkillCard{
			Card: skill(ShieldWall, "Shield Wall", hero, game.JobWarrior, 2, game.TargetOwnUnit),
			Effect: func(c *game.CardContext) error {
				u, ok := c.TargetUnit()
				if !ok {
					return nil
				}
				_, err := c.AddEffect(game.EffectSpec{
					DefID:   EffectMaxHPUp,
					Owner:   c.Owner(),
					Target:  model.TargetUnit(u.ID()),
					Source:  c.Source(),
					Storage: Amount{N: 2},
				})
				if err != nil {
					return err
				}
				_, err = u.Heal(2)
				return err
			},
		},
		&game.SkillCard{
			Card: skill(Meteor, "Meteor", tension, game.JobMage, 0, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				return damageUnits(c.Field().Units(c.Enemy().Leader()), 3)
			},
		},
		&game.SkillCard{
			Card: skill(ArcaneSpark, "Arcane Spark", hero, game.JobMage, 2, game.TargetEnemyAny),
			Effect: func(c *game.CardContext) error {
				_, err := c.DamageTarget(1)
				return err
			},
		},
		&game.SkillCard{
			Card: skill(Blessing, "Blessing", tension, game.JobPriest, 0, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				_, err := c.Self().Heal(5)
				return err
			},
		},
		&game.SkillCard{
			Card: skill(Prayer, "Prayer", hero, game.JobPriest, 2, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				_, err := c.Self().Heal(2)
				return err
			},
		},
		&game.SkillCard{
			Card: skill(Ambush, "Ambush", tension, game.JobThief, 0, game.TargetEnemyUnit),
			Effect: func(c *game.CardContext) error {
				u, ok := c.TargetUnit()
				if !ok {
					return nil
				}
				_, err := u.Slay()
				return err
			},
		},
		&game.SkillCard{
			Card: skill(Pickpocket, "Pickpocket", hero, game.JobThief, 2, game.TargetNone),
			Effect: func(c *game.CardContext) error {
				_, err := c.Self().AddCard(Skeleton)
				return err
			},
		},
	}
}

func jobs() []game.JobDefinition {
	return []game.JobDefinition{
		game.JobSkills{Job: game.JobWarrior, Tension: WarCry, Hero: Strike},
		game.JobSkills{Job: game.JobMage, Tension: Meteor, Hero: ArcaneSpark},
		game.JobSkills{Job: game.JobPriest, Tension: Blessing, Hero: Prayer},
		game.JobSkills{Job: game.JobThief, Tension: Ambush, Hero: Pickpocket},
	}
}
