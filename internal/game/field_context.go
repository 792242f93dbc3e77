package game

import (
	"github.com/samber/lo"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// FieldContext reads the 12 cells and places new objects on them.
type FieldContext struct {
	g *GameContext
}

func (f *FieldContext) state() model.FieldState { return f.g.m.state.Field }

// Unit returns the unit at pos.
func (f *FieldContext) Unit(pos model.Position) (*UnitContext, bool) {
	u, ok := f.state().Unit(pos)
	if !ok {
		return nil, false
	}
	return f.g.unit(u.ID), true
}

// UnitByID returns the unit with the given id.
func (f *FieldContext) UnitByID(id int) (*UnitContext, bool) {
	if _, ok := f.state().UnitByID(id); !ok {
		return nil, false
	}
	return f.g.unit(id), true
}

// Building returns the building at pos.
func (f *FieldContext) Building(pos model.Position) (*BuildingContext, bool) {
	b, ok := f.state().Building(pos)
	if !ok {
		return nil, false
	}
	return f.g.building(b.ID), true
}

// BuildingByID returns the building with the given id.
func (f *FieldContext) BuildingByID(id int) (*BuildingContext, bool) {
	if _, ok := f.state().BuildingByID(id); !ok {
		return nil, false
	}
	return f.g.building(id), true
}

// Floor returns the floor at pos.
func (f *FieldContext) Floor(pos model.Position) (*FloorContext, bool) {
	fl, ok := f.state().Floor(pos)
	if !ok {
		return nil, false
	}
	return f.g.floor(fl.ID), true
}

// FloorByID returns the floor with the given id.
func (f *FieldContext) FloorByID(id int) (*FloorContext, bool) {
	if _, ok := f.state().FloorByID(id); !ok {
		return nil, false
	}
	return f.g.floor(id), true
}

// Units returns leader's units in position order.
func (f *FieldContext) Units(leader model.Leader) []*UnitContext {
	return lo.Map(f.state().Units(leader), func(u model.FieldUnitState, _ int) *UnitContext {
		return f.g.unit(u.ID)
	})
}

// AllUnits returns every unit in position order.
func (f *FieldContext) AllUnits() []*UnitContext {
	return append(f.Units(model.LeaderFirst), f.Units(model.LeaderSecond)...)
}

// Buildings returns leader's buildings in position order.
func (f *FieldContext) Buildings(leader model.Leader) []*BuildingContext {
	return lo.Map(f.state().Buildings(leader), func(b model.FieldBuildingState, _ int) *BuildingContext {
		return f.g.building(b.ID)
	})
}

// Floors returns leader's floors in position order.
func (f *FieldContext) Floors(leader model.Leader) []*FloorContext {
	out := make([]*FloorContext, 0)
	for _, pos := range model.PositionsOf(leader) {
		if fl, ok := f.state().Floor(pos); ok {
			out = append(out, f.g.floor(fl.ID))
		}
	}
	return out
}

// EmptyCells returns leader's cells holding no object.
func (f *FieldContext) EmptyCells(leader model.Leader) []model.Position {
	return lo.Filter(model.PositionsOf(leader), func(p model.Position, _ int) bool {
		return f.state().IsEmpty(p)
	})
}

// IsEmpty reports whether pos holds no object.
func (f *FieldContext) IsEmpty(pos model.Position) bool {
	return f.state().IsEmpty(pos)
}

// PutUnit summons a unit of defID with the given base stats.
func (f *FieldContext) PutUnit(owner model.Leader, pos model.Position, defID, power, hp int) (*UnitContext, error) {
	if pos.Leader() != owner {
		return nil, runtimeErr("put_unit", "cell %s does not belong to %s", pos, owner)
	}
	if !f.IsEmpty(pos) {
		return nil, runtimeErr("put_unit", "cell %s is occupied", pos)
	}
	if _, err := f.g.m.defs.Cards.Get(defID); err != nil {
		return nil, err
	}
	u := model.FieldUnitState{
		ID:         f.g.newID(),
		DefID:      defID,
		Owner:      owner,
		Position:   pos,
		BasePower:  power,
		BaseMaxHP:  hp,
		HP:         hp,
		SummonTurn: f.g.Turn(),
	}
	if err := f.g.emit(owner, &action.UnitPut{Unit: u}); err != nil {
		return nil, err
	}
	return f.g.unit(u.ID), nil
}

// SummonToken puts a unit of defID with its printed stats.
func (f *FieldContext) SummonToken(owner model.Leader, pos model.Position, defID int) (*UnitContext, error) {
	def, err := f.g.m.defs.Cards.Get(defID)
	if err != nil {
		return nil, err
	}
	info := def.Info()
	return f.PutUnit(owner, pos, defID, info.Power, info.HP)
}

// PutBuilding places a building of defID.
func (f *FieldContext) PutBuilding(owner model.Leader, pos model.Position, defID, durability int) (*BuildingContext, error) {
	if pos.Leader() != owner {
		return nil, runtimeErr("put_building", "cell %s does not belong to %s", pos, owner)
	}
	if !f.IsEmpty(pos) {
		return nil, runtimeErr("put_building", "cell %s is occupied", pos)
	}
	b := model.FieldBuildingState{
		ID:             f.g.newID(),
		DefID:          defID,
		Owner:          owner,
		Position:       pos,
		BaseDurability: durability,
		Durability:     durability,
		SummonTurn:     f.g.Turn(),
	}
	if err := f.g.emit(owner, &action.BuildingPut{Building: b}); err != nil {
		return nil, err
	}
	return f.g.building(b.ID), nil
}

// PutFloor lays a floor of defID under pos.
func (f *FieldContext) PutFloor(owner model.Leader, pos model.Position, defID int) (*FloorContext, error) {
	if !pos.Valid() {
		return nil, runtimeErr("put_floor", "invalid cell %d", pos)
	}
	if _, ok := f.state().Floor(pos); ok {
		return nil, runtimeErr("put_floor", "cell %s already has a floor", pos)
	}
	if _, err := f.g.m.defs.Floors.Get(defID); err != nil {
		return nil, err
	}
	fl := model.FloorState{ID: f.g.newID(), DefID: defID, Owner: owner, Position: pos}
	if err := f.g.emit(owner, &action.FloorPut{Floor: fl}); err != nil {
		return nil, err
	}
	return f.g.floor(fl.ID), nil
}

func (g *GameContext) unit(id int) *UnitContext {
	return g.m.cached("unit", id, func() interface{} { return &UnitContext{g: g, id: id} }).(*UnitContext)
}

func (g *GameContext) building(id int) *BuildingContext {
	return g.m.cached("building", id, func() interface{} { return &BuildingContext{g: g, id: id} }).(*BuildingContext)
}

func (g *GameContext) floor(id int) *FloorContext {
	return g.m.cached("floor", id, func() interface{} { return &FloorContext{g: g, id: id} }).(*FloorContext)
}
