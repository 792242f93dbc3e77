package game

import (
	"go.uber.org/zap"

	"github.com/nenshoukei/zombals-sub000/internal/game/effects"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

const maxStabilizeIterations = 100

// stabilize applies the state checks until a pass changes nothing: leader
// deaths end the match, orphaned effects are dropped, dead units and broken
// buildings leave the field and overhealed units are clamped.
func (m *Match) stabilize() error {
	if m.phase == PhaseAwaitingStart {
		return nil
	}
	for i := 0; i < maxStabilizeIterations; i++ {
		if m.phase == PhaseFinished {
			return nil
		}
		before := m.gen
		if err := m.stabilizeOnce(); err != nil {
			return err
		}
		if m.gen == before {
			return nil
		}
	}
	m.logger.Warn("stabilization did not settle",
		zap.Int("iterations", maxStabilizeIterations),
		zap.Int("turn", m.state.Turn),
	)
	return nil
}

func (m *Match) stabilizeOnce() error {
	g := m.g
	firstDead := m.state.Player(model.LeaderFirst).HP <= 0
	secondDead := m.state.Player(model.LeaderSecond).HP <= 0
	switch {
	case firstDead && secondDead:
		return m.finish(model.LeaderNone)
	case firstDead:
		return m.finish(model.LeaderSecond)
	case secondDead:
		return m.finish(model.LeaderFirst)
	}

	for _, id := range effects.Orphaned(m.state) {
		if err := g.RemoveEffect(id); err != nil {
			return err
		}
	}

	for _, u := range g.Field().AllUnits() {
		if !u.Exists() {
			continue
		}
		hp, maxHP := u.HP(), u.CalculatedMaxHP()
		switch {
		case hp <= 0 || maxHP <= 0:
			if err := u.Destroy(); err != nil {
				return err
			}
		case hp > maxHP:
			if err := u.Update(maxHP); err != nil {
				return err
			}
		}
	}

	for _, l := range model.Leaders {
		for _, b := range g.Field().Buildings(l) {
			if _, ok := b.State(); ok && b.Durability() <= 0 {
				if err := b.Destroy(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
