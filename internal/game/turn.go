package game

import (
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/effects"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

const (
	firstHandSize  = 3
	secondHandSize = 4
)

func openingHandSize(l model.Leader) int {
	if l == model.LeaderFirst {
		return firstHandSize
	}
	return secondHandSize
}

// start builds both libraries and hands and opens the mulligan. Players[0]
// of the config moves first.
func (m *Match) start() error {
	players := make(map[model.Leader]action.StartPlayer, 2)
	users := make(map[model.Leader]string, 2)
	decks := make(map[model.Leader]Deck, 2)
	for i, l := range model.Leaders {
		pc := m.cfg.Players[i]
		sp, err := m.deal(l, pc.Deck)
		if err != nil {
			return fmt.Errorf("deal %s: %w", l, err)
		}
		players[l] = sp
		users[l] = pc.UserID
		decks[l] = pc.Deck
	}
	if err := m.emit(model.LeaderNone, &action.Start{Players: players, LastObjectID: m.lastID}); err != nil {
		return err
	}

	m.users = users
	m.decks = decks
	m.startedAt = m.clock()
	m.phase = PhaseMulligan
	m.setTimer(timerMulligan, m.clock().Add(m.cfg.MulliganTimeout))
	m.logger.Info("match started",
		zap.String("first", users[model.LeaderFirst]),
		zap.String("second", users[model.LeaderSecond]),
		zap.Uint64("seed", m.cfg.Seed),
	)
	return nil
}

// deal shuffles a deck into a library and takes the opening hand from it.
// Hero cards go to the hand first.
func (m *Match) deal(l model.Leader, deck Deck) (action.StartPlayer, error) {
	library := make([]model.CardState, 0, len(deck.Cards))
	for _, defID := range deck.Cards {
		def, err := m.defs.Cards.Get(defID)
		if err != nil {
			return action.StartPlayer{}, err
		}
		library = append(library, def.Info().NewCard(m.nextID(), l))
	}
	m.rng.Shuffle(len(library), func(i, j int) {
		library[i], library[j] = library[j], library[i]
	})

	size := openingHandSize(l)
	hand := make([]model.CardState, 0, size)
	rest := make([]model.CardState, 0, len(library))
	for _, c := range library {
		if c.Kind == model.CardKindHero && len(hand) < size {
			hand = append(hand, c)
			continue
		}
		rest = append(rest, c)
	}
	for len(hand) < size && len(rest) > 0 {
		hand = append(hand, rest[len(rest)-1])
		rest = rest[:len(rest)-1]
	}

	sp := action.StartPlayer{
		HP:      model.InitialHP,
		MaxHP:   model.InitialHP,
		Hand:    hand,
		Library: rest,
	}
	if deck.Job == JobNeutral {
		return sp, nil
	}
	job, err := m.defs.Jobs.Get(int(deck.Job))
	if err != nil {
		return sp, err
	}
	if sp.TensionSkill, err = m.residentCard(job.TensionSkill(), l); err != nil {
		return sp, err
	}
	if sp.HeroSkill, err = m.residentCard(job.HeroSkill(), l); err != nil {
		return sp, err
	}
	return sp, nil
}

func (m *Match) residentCard(defID int, l model.Leader) (*model.CardState, error) {
	if defID == 0 {
		return nil, nil
	}
	def, err := m.defs.Cards.Get(defID)
	if err != nil {
		return nil, err
	}
	c := def.Info().NewCard(m.nextID(), l)
	return &c, nil
}

func (m *Match) mulligan(leader model.Leader, swapped []int) error {
	if m.phase != PhaseMulligan {
		return forbidden("mulligan is over")
	}
	if m.mulliganDone[leader] {
		return forbidden("mulligan already submitted")
	}
	if len(lo.Uniq(swapped)) != len(swapped) {
		return forbidden("duplicate card in mulligan")
	}
	hand := m.state.Player(leader)
	for _, id := range swapped {
		if hand.HandIndex(id) < 0 {
			return forbidden("card %d is not in hand", id)
		}
	}
	if err := m.swap(leader, swapped); err != nil {
		return err
	}
	if len(m.mulliganDone) < len(model.Leaders) {
		return nil
	}
	return m.beginTurn(model.LeaderFirst)
}

// swap draws one replacement per swapped card and then returns the swapped
// cards to random library positions.
func (m *Match) swap(leader model.Leader, swapped []int) error {
	p := m.g.Player(leader)
	for range swapped {
		if _, err := p.DrawCard(); err != nil {
			return err
		}
	}
	size := len(p.Library())
	positions := make([]int, len(swapped))
	for i := range swapped {
		positions[i] = m.rng.IntN(size + i + 1)
	}
	if err := m.emit(leader, &action.Mulligan{Swapped: append([]int{}, swapped...), Positions: positions}); err != nil {
		return err
	}
	m.mulliganDone[leader] = true
	return nil
}

// finishMulligan keeps the opening hand of every side that has not answered
// and starts the first turn.
func (m *Match) finishMulligan() error {
	if m.phase != PhaseMulligan {
		return nil
	}
	for _, l := range model.Leaders {
		if m.mulliganDone[l] {
			continue
		}
		m.logger.Debug("mulligan timed out", zap.Stringer("leader", l))
		if err := m.swap(l, nil); err != nil {
			return err
		}
	}
	return m.beginTurn(model.LeaderFirst)
}

func (m *Match) beginTurn(leader model.Leader) error {
	m.phase = PhaseTurn
	deadline := m.clock().Add(m.cfg.TurnTimeout)
	deadlineMs := deadline.UnixMilli()
	if err := m.emit(leader, &action.TurnStart{Turn: m.state.Turn + 1, TurnEndAt: &deadlineMs}); err != nil {
		return err
	}

	p := m.g.Player(leader)
	s := p.State()
	maxMP := min(s.MaxMP+1, model.MaxMP)
	if err := p.update(s.HP, s.MaxHP, maxMP, maxMP); err != nil {
		return err
	}
	if _, err := p.DrawCard(); err != nil {
		return err
	}
	if err := m.runTurnStartHooks(leader); err != nil {
		return err
	}
	m.setTimer(timerTurn, deadline)
	m.logger.Debug("turn started", zap.Int("turn", m.state.Turn), zap.Stringer("leader", leader))
	return nil
}

// runTurnStartHooks runs the turn start hooks of leader's badges, buildings
// and floors in that order.
func (m *Match) runTurnStartHooks(leader model.Leader) error {
	g := m.g
	for _, b := range m.state.Player(leader).Badges {
		def, err := m.defs.Badges.Get(b.DefID)
		if err != nil {
			return err
		}
		if hook, ok := def.(TurnStartHook); ok {
			if err := hook.OnTurnStart(g, leader, b.ID); err != nil {
				return fmt.Errorf("badge %d turn start: %w", b.DefID, err)
			}
		}
	}
	for _, b := range m.state.Field.Buildings(leader) {
		def, err := m.defs.Cards.Get(b.DefID)
		if err != nil {
			return err
		}
		if hook, ok := def.(TurnStartHook); ok {
			if err := hook.OnTurnStart(g, leader, b.ID); err != nil {
				return fmt.Errorf("building %d turn start: %w", b.DefID, err)
			}
		}
	}
	for _, f := range g.Field().Floors(leader) {
		fs, ok := f.State()
		if !ok {
			continue
		}
		def, err := m.defs.Floors.Get(fs.DefID)
		if err != nil {
			return err
		}
		if hook, ok := def.(TurnStartHook); ok {
			if err := hook.OnTurnStart(g, leader, fs.ID); err != nil {
				return fmt.Errorf("floor %d turn start: %w", fs.DefID, err)
			}
		}
	}
	return nil
}

// endTurn expires the effects bound to the active leader's turn and hands
// the turn over.
func (m *Match) endTurn() error {
	leader := m.state.ActiveLeader
	for _, e := range effects.ExpiringAtTurnEnd(m.state.Effects, leader) {
		if err := m.g.RemoveEffect(e.ID); err != nil {
			return err
		}
	}
	return m.beginTurn(leader.Opponent())
}

// timeoutTurn answers open selections with their defaults and ends the turn.
func (m *Match) timeoutTurn() error {
	if m.phase != PhaseTurn {
		return nil
	}
	m.logger.Debug("turn timed out", zap.Int("turn", m.state.Turn), zap.Stringer("leader", m.state.ActiveLeader))
	for i := 0; m.pending != nil && i < maxAutoSelections; i++ {
		if err := m.autoSelect(); err != nil {
			return err
		}
	}
	if m.pending != nil {
		return runtimeErr("turn_timeout", "selections did not settle after %d answers", maxAutoSelections)
	}
	if err := m.stabilize(); err != nil {
		return err
	}
	if m.phase == PhaseFinished {
		return nil
	}
	return m.endTurn()
}

func (m *Match) tensionUp(leader model.Leader) error {
	s := m.state.Player(leader)
	switch {
	case s.TensionUpUsed:
		return forbidden("tension already raised this turn")
	case s.Tension >= model.MaxTension:
		return forbidden("tension is at maximum")
	case s.MP < 1:
		return forbidden("not enough MP")
	}
	if err := m.emit(leader, &action.TensionUp{}); err != nil {
		return err
	}
	return m.g.Player(leader).SetMP(s.MP - 1)
}

func (m *Match) useCard(leader model.Leader, cardID int, target *model.Target) error {
	p := m.state.Player(leader)
	card, ok := p.HandCard(cardID)
	if !ok {
		if card, ok = p.ResidentCard(cardID); !ok {
			return forbidden("card %d is not in hand", cardID)
		}
	}
	def, err := m.defs.Cards.Get(card.DefID)
	if err != nil {
		return err
	}
	if card.Cost > p.MP {
		return forbidden("card %d costs %d but only %d MP left", cardID, card.Cost, p.MP)
	}
	switch card.Kind {
	case model.CardKindTensionSkill:
		if p.Tension < model.MaxTension {
			return forbidden("tension is not at maximum")
		}
	case model.CardKindHeroSkill:
		if p.HeroSkillUsed {
			return forbidden("hero skill already used this turn")
		}
	}
	target, err = m.checkTarget(leader, def.Info().Target, target)
	if err != nil {
		return err
	}

	cc := m.g.cardContext(card, target)
	if checker, ok := def.(UsableChecker); ok && !checker.CanUse(cc) {
		return forbidden("card %d cannot be used now", cardID)
	}
	if err := m.emit(leader, &action.UseCard{Card: card, Target: target}); err != nil {
		return err
	}
	if card.Kind == model.CardKindTensionSkill {
		if err := m.g.Player(leader).SetTension(0); err != nil {
			return err
		}
	}
	if err := def.Use(cc, target); err != nil {
		return fmt.Errorf("use card %d: %w", card.DefID, err)
	}
	return nil
}

// checkTarget validates target against rule and returns the target to pass
// on. Cards without a target rule ignore whatever the client sent.
func (m *Match) checkTarget(leader model.Leader, rule TargetRule, target *model.Target) (*model.Target, error) {
	if rule == TargetNone {
		return nil, nil
	}
	if target == nil || target.IsZero() {
		return nil, forbidden("card needs a target")
	}
	t := *target
	field := m.g.Field()
	enemy := leader.Opponent()

	unitOK := func(side model.Leader) bool {
		if !t.IsCell() || (side != model.LeaderNone && t.Position.Leader() != side) {
			return false
		}
		u, ok := field.Unit(t.Position)
		if !ok {
			return false
		}
		return u.Owner() == leader || !u.HasStatus(StatusStealth)
	}
	objectOK := func() bool {
		if _, ok := field.Building(t.Position); ok {
			return true
		}
		return unitOK(model.LeaderNone)
	}

	var ok bool
	switch rule {
	case TargetOwnEmptyCell:
		ok = t.IsCell() && t.Position.Leader() == leader && field.IsEmpty(t.Position)
	case TargetOwnFloorlessCell:
		_, hasFloor := m.state.Field.Floor(t.Position)
		ok = t.IsCell() && t.Position.Leader() == leader && !hasFloor
	case TargetAnyUnit:
		ok = unitOK(model.LeaderNone)
	case TargetOwnUnit:
		ok = unitOK(leader)
	case TargetEnemyUnit:
		ok = unitOK(enemy)
	case TargetEnemyAny:
		ok = (t.IsLeader() && t.Leader == enemy) || (t.IsCell() && t.Position.Leader() == enemy && objectOK())
	case TargetAny:
		ok = t.IsLeader() || (t.IsCell() && objectOK())
	}
	if !ok {
		return nil, forbidden("invalid target %+v", t)
	}
	return &t, nil
}
