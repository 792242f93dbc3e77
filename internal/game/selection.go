package game

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// maxAutoSelections bounds chained selections resolved on a turn timeout.
const maxAutoSelections = 16

type selectionKind int

const (
	selectOption selectionKind = iota + 1
	selectHand
)

// pendingSelection is a question asked to the active player. The rest of the
// card resolves in the continuation once the answer arrives.
type pendingSelection struct {
	id       int
	leader   model.Leader
	kind     selectionKind
	options  int
	count    int
	cardIDs  []int
	onOption func(index int) error
	onHand   func(cards []model.CardState) error
}

// SelectOption asks the owner to pick one of options and continues with then.
func (c *CardContext) SelectOption(options []string, then func(index int) error) error {
	m := c.m
	if len(options) == 0 {
		return runtimeErr("select_option", "card %d offers no options", c.card.DefID)
	}
	if m.pending != nil {
		return runtimeErr("select_option", "selection %d is already pending", m.pending.id)
	}
	m.nextSelectID++
	sel := &pendingSelection{
		id:       m.nextSelectID,
		leader:   c.Owner(),
		kind:     selectOption,
		options:  len(options),
		onOption: then,
	}
	if err := m.emit(c.Owner(), &action.SelectOption{SelectID: sel.id, Options: append([]string(nil), options...)}); err != nil {
		return err
	}
	m.pending = sel
	return nil
}

// SelectHand asks the owner to pick count cards of their hand and continues
// with then. With an empty hand then runs at once with no cards.
func (c *CardContext) SelectHand(count int, then func(cards []model.CardState) error) error {
	m := c.m
	hand := c.Self().Hand()
	count = min(count, len(hand))
	if count <= 0 {
		return then(nil)
	}
	if m.pending != nil {
		return runtimeErr("select_hand", "selection %d is already pending", m.pending.id)
	}
	m.nextSelectID++
	sel := &pendingSelection{
		id:     m.nextSelectID,
		leader: c.Owner(),
		kind:   selectHand,
		count:  count,
		cardIDs: lo.Map(hand, func(card model.CardState, _ int) int {
			return card.ID
		}),
		onHand: then,
	}
	if err := m.emit(c.Owner(), &action.SelectHand{SelectID: sel.id, Count: count, CardIDs: sel.cardIDs}); err != nil {
		return err
	}
	m.pending = sel
	return nil
}

// FortuneOption is one outcome of a fortune card.
type FortuneOption struct {
	Label string
	Run   func() error
}

// Fortune resolves one of options. fortune_all runs every option in order,
// fortune_choice lets the owner choose, otherwise the match RNG picks.
func (c *CardContext) Fortune(options ...FortuneOption) error {
	if len(options) == 0 {
		return nil
	}
	self := c.Self()
	switch {
	case self.HasStatus(StatusFortuneAll):
		for _, o := range options {
			if err := o.Run(); err != nil {
				return err
			}
		}
		return nil
	case self.HasStatus(StatusFortuneChoice):
		labels := lo.Map(options, func(o FortuneOption, _ int) string { return o.Label })
		return c.SelectOption(labels, func(i int) error { return options[i].Run() })
	default:
		o, _ := Pick(c.Rand(), options)
		return o.Run()
	}
}

func (m *Match) optionSelected(leader model.Leader, selectID, index int) error {
	sel := m.pending
	if sel.kind != selectOption || sel.id != selectID || sel.leader != leader {
		return forbidden("selection %d is not an open option selection", selectID)
	}
	if index < 0 || index >= sel.options {
		return forbidden("option %d out of range", index)
	}
	if err := m.emit(leader, &action.OptionSelected{SelectID: selectID, SelectedIndex: index}); err != nil {
		return err
	}
	m.pending = nil
	return sel.onOption(index)
}

func (m *Match) handSelected(leader model.Leader, selectID int, indexes []int) error {
	sel := m.pending
	if sel.kind != selectHand || sel.id != selectID || sel.leader != leader {
		return forbidden("selection %d is not an open hand selection", selectID)
	}
	if len(indexes) != sel.count || len(lo.Uniq(indexes)) != len(indexes) {
		return forbidden("select exactly %d distinct cards", sel.count)
	}
	hand := m.state.Player(leader)
	cards := make([]model.CardState, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= len(sel.cardIDs) {
			return forbidden("hand index %d out of range", i)
		}
		card, ok := hand.HandCard(sel.cardIDs[i])
		if !ok {
			return runtimeErr("hand_selected", "card %d left the hand", sel.cardIDs[i])
		}
		cards = append(cards, card)
	}
	if err := m.emit(leader, &action.HandSelected{SelectID: selectID, SelectedIndexes: append([]int(nil), indexes...)}); err != nil {
		return err
	}
	m.pending = nil
	return sel.onHand(cards)
}

// autoSelect answers the pending selection with the first option or the first
// cards offered.
func (m *Match) autoSelect() error {
	sel := m.pending
	m.logger.Debug("auto selecting", zap.Int("select_id", sel.id), zap.Stringer("leader", sel.leader))
	if sel.kind == selectOption {
		return m.optionSelected(sel.leader, sel.id, 0)
	}
	return m.handSelected(sel.leader, sel.id, lo.Range(sel.count))
}
