package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/nenshoukei/zombals-sub000/internal/game"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// commandFrame is the union of every command field on the wire.
type commandFrame struct {
	Type            string        `json:"type"`
	ID              int           `json:"id"`
	Swapped         []int         `json:"swapped"`
	EmoteID         int           `json:"emoteId"`
	Attacker        *model.Target `json:"attacker"`
	Target          *model.Target `json:"target"`
	CardID          int           `json:"cardId"`
	SelectID        int           `json:"selectId"`
	SelectedIndex   int           `json:"selectedIndex"`
	SelectedIndexes []int         `json:"selectedIndexes"`
}

// DecodeCommand decodes the body of a GAME_COMMAND request. The returned id
// is the client's command id, echoed in DENIED responses.
func DecodeCommand(raw json.RawMessage) (int, game.Command, error) {
	var f commandFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, nil, fmt.Errorf("failed to decode command: %w", err)
	}

	var cmd game.Command
	switch f.Type {
	case "MULLIGAN":
		cmd = game.MulliganCommand{Swapped: f.Swapped}
	case "TURN_END":
		cmd = game.TurnEndCommand{}
	case "SURRENDER":
		cmd = game.SurrenderCommand{}
	case "EMOTE":
		cmd = game.EmoteCommand{EmoteID: f.EmoteID}
	case "ATTACK":
		if f.Attacker == nil || f.Target == nil {
			return f.ID, nil, fmt.Errorf("ATTACK needs attacker and target")
		}
		cmd = game.AttackCommand{Attacker: *f.Attacker, Target: *f.Target}
	case "TENTION_UP":
		cmd = game.TensionUpCommand{}
	case "USE_CARD":
		cmd = game.UseCardCommand{CardID: f.CardID, Target: f.Target}
	case "OPTION_SELECTED":
		cmd = game.OptionSelectedCommand{SelectID: f.SelectID, SelectedIndex: f.SelectedIndex}
	case "HAND_SELECTED":
		cmd = game.HandSelectedCommand{SelectID: f.SelectID, SelectedIndexes: f.SelectedIndexes}
	default:
		return f.ID, nil, fmt.Errorf("unknown command type %q", f.Type)
	}
	return f.ID, cmd, nil
}

// EncodeCommand is the inverse of DecodeCommand.
func EncodeCommand(id int, cmd game.Command) (json.RawMessage, error) {
	f := commandFrame{Type: cmd.Name(), ID: id}
	switch c := cmd.(type) {
	case game.MulliganCommand:
		f.Swapped = c.Swapped
	case game.EmoteCommand:
		f.EmoteID = c.EmoteID
	case game.AttackCommand:
		f.Attacker, f.Target = &c.Attacker, &c.Target
	case game.UseCardCommand:
		f.CardID, f.Target = c.CardID, c.Target
	case game.OptionSelectedCommand:
		f.SelectID, f.SelectedIndex = c.SelectID, c.SelectedIndex
	case game.HandSelectedCommand:
		f.SelectID, f.SelectedIndexes = c.SelectID, c.SelectedIndexes
	}
	return json.Marshal(f)
}
