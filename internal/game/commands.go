package game

import (
	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// Command is a player instruction to a match.
type Command interface {
	Name() string
}

type MulliganCommand struct {
	Swapped []int
}

type TurnEndCommand struct{}

type SurrenderCommand struct{}

type EmoteCommand struct {
	EmoteID int
}

type AttackCommand struct {
	Attacker model.Target
	Target   model.Target
}

type TensionUpCommand struct{}

type UseCardCommand struct {
	CardID int
	Target *model.Target
}

type OptionSelectedCommand struct {
	SelectID      int
	SelectedIndex int
}

type HandSelectedCommand struct {
	SelectID        int
	SelectedIndexes []int
}

func (MulliganCommand) Name() string       { return "MULLIGAN" }
func (TurnEndCommand) Name() string        { return "TURN_END" }
func (SurrenderCommand) Name() string      { return "SURRENDER" }
func (EmoteCommand) Name() string          { return "EMOTE" }
func (AttackCommand) Name() string         { return "ATTACK" }
func (TensionUpCommand) Name() string      { return "TENTION_UP" }
func (UseCardCommand) Name() string        { return "USE_CARD" }
func (OptionSelectedCommand) Name() string { return "OPTION_SELECTED" }
func (HandSelectedCommand) Name() string   { return "HAND_SELECTED" }

func (m *Match) dispatch(leader model.Leader, cmd Command) error {
	if !leader.Valid() {
		return forbidden("unknown leader %d", leader)
	}

	switch c := cmd.(type) {
	case SurrenderCommand:
		if err := m.emit(leader, &action.Surrender{}); err != nil {
			return err
		}
		return m.finish(leader.Opponent())
	case EmoteCommand:
		return m.emit(leader, &action.Emote{EmoteID: c.EmoteID})
	case MulliganCommand:
		return m.mulligan(leader, c.Swapped)
	}

	if m.phase != PhaseTurn {
		return forbidden("%s is not allowed during %s", cmd.Name(), m.phase)
	}
	if m.state.ActiveLeader != leader {
		return forbidden("not your turn")
	}

	if m.pending != nil {
		switch c := cmd.(type) {
		case OptionSelectedCommand:
			return m.optionSelected(leader, c.SelectID, c.SelectedIndex)
		case HandSelectedCommand:
			return m.handSelected(leader, c.SelectID, c.SelectedIndexes)
		default:
			return forbidden("selection %d is pending", m.pending.id)
		}
	}

	switch c := cmd.(type) {
	case TurnEndCommand:
		return m.endTurn()
	case AttackCommand:
		return m.attack(leader, c.Attacker, c.Target)
	case TensionUpCommand:
		return m.tensionUp(leader)
	case UseCardCommand:
		return m.useCard(leader, c.CardID, c.Target)
	case OptionSelectedCommand, HandSelectedCommand:
		return forbidden("no selection is pending")
	default:
		return forbidden("unknown command %s", cmd.Name())
	}
}
