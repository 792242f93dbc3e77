package model

// FieldUnitState is a unit on the field. Base stats never change after creation.
type FieldUnitState struct {
	ID          int      `json:"id"`
	DefID       int      `json:"defId"`
	Owner       Leader   `json:"owner"`
	Position    Position `json:"position"`
	BasePower   int      `json:"basePower"`
	BaseMaxHP   int      `json:"baseMaxHp"`
	HP          int      `json:"hp"`
	SummonTurn  int      `json:"summonTurn"`
	AttackCount int      `json:"attackCount"`
}

// FieldBuildingState is a building on the field.
type FieldBuildingState struct {
	ID             int      `json:"id"`
	DefID          int      `json:"defId"`
	Owner          Leader   `json:"owner"`
	Position       Position `json:"position"`
	BaseDurability int      `json:"baseDurability"`
	Durability     int      `json:"durability"`
	SummonTurn     int      `json:"summonTurn"`
}

// FloorState is a floor laid under a cell.
type FloorState struct {
	ID       int      `json:"id"`
	DefID    int      `json:"defId"`
	Owner    Leader   `json:"owner"`
	Position Position `json:"position"`
}

// FieldObject holds either a unit or a building.
type FieldObject struct {
	Unit     *FieldUnitState     `json:"unit,omitempty"`
	Building *FieldBuildingState `json:"building,omitempty"`
}

// ObjectID returns the id of the held object.
func (o FieldObject) ObjectID() int {
	switch {
	case o.Unit != nil:
		return o.Unit.ID
	case o.Building != nil:
		return o.Building.ID
	default:
		return 0
	}
}

// FieldState maps cells to objects and floors.
type FieldState struct {
	Objects map[Position]FieldObject `json:"objects"`
	Floors  map[Position]FloorState  `json:"floors"`
}

// NewFieldState returns an empty field.
func NewFieldState() FieldState {
	return FieldState{
		Objects: make(map[Position]FieldObject),
		Floors:  make(map[Position]FloorState),
	}
}

// Unit returns the unit at pos.
func (f FieldState) Unit(pos Position) (FieldUnitState, bool) {
	if o, ok := f.Objects[pos]; ok && o.Unit != nil {
		return *o.Unit, true
	}
	return FieldUnitState{}, false
}

// Building returns the building at pos.
func (f FieldState) Building(pos Position) (FieldBuildingState, bool) {
	if o, ok := f.Objects[pos]; ok && o.Building != nil {
		return *o.Building, true
	}
	return FieldBuildingState{}, false
}

// Floor returns the floor at pos.
func (f FieldState) Floor(pos Position) (FloorState, bool) {
	fl, ok := f.Floors[pos]
	return fl, ok
}

// IsEmpty reports whether no object occupies pos.
func (f FieldState) IsEmpty(pos Position) bool {
	_, ok := f.Objects[pos]
	return !ok
}

// UnitByID finds a unit by its id.
func (f FieldState) UnitByID(id int) (FieldUnitState, bool) {
	for _, o := range f.Objects {
		if o.Unit != nil && o.Unit.ID == id {
			return *o.Unit, true
		}
	}
	return FieldUnitState{}, false
}

// BuildingByID finds a building by its id.
func (f FieldState) BuildingByID(id int) (FieldBuildingState, bool) {
	for _, o := range f.Objects {
		if o.Building != nil && o.Building.ID == id {
			return *o.Building, true
		}
	}
	return FieldBuildingState{}, false
}

// FloorByID finds a floor by its id.
func (f FieldState) FloorByID(id int) (FloorState, bool) {
	for _, fl := range f.Floors {
		if fl.ID == id {
			return fl, true
		}
	}
	return FloorState{}, false
}

// Units returns the units of leader ordered by position.
func (f FieldState) Units(leader Leader) []FieldUnitState {
	out := make([]FieldUnitState, 0)
	for _, pos := range PositionsOf(leader) {
		if u, ok := f.Unit(pos); ok {
			out = append(out, u)
		}
	}
	return out
}

// Buildings returns the buildings of leader ordered by position.
func (f FieldState) Buildings(leader Leader) []FieldBuildingState {
	out := make([]FieldBuildingState, 0)
	for _, pos := range PositionsOf(leader) {
		if b, ok := f.Building(pos); ok {
			out = append(out, b)
		}
	}
	return out
}

// WithObject returns a copy of the field with obj placed at pos.
func (f FieldState) WithObject(pos Position, obj FieldObject) FieldState {
	objects := make(map[Position]FieldObject, len(f.Objects)+1)
	for k, v := range f.Objects {
		objects[k] = v
	}
	objects[pos] = obj
	return FieldState{Objects: objects, Floors: f.Floors}
}

// WithoutObject returns a copy of the field with pos emptied.
func (f FieldState) WithoutObject(pos Position) FieldState {
	objects := make(map[Position]FieldObject, len(f.Objects))
	for k, v := range f.Objects {
		if k != pos {
			objects[k] = v
		}
	}
	return FieldState{Objects: objects, Floors: f.Floors}
}

// WithFloor returns a copy of the field with floor laid at its position.
func (f FieldState) WithFloor(floor FloorState) FieldState {
	floors := make(map[Position]FloorState, len(f.Floors)+1)
	for k, v := range f.Floors {
		floors[k] = v
	}
	floors[floor.Position] = floor
	return FieldState{Objects: f.Objects, Floors: floors}
}

// WithoutFloor returns a copy of the field with the floor at pos removed.
func (f FieldState) WithoutFloor(pos Position) FieldState {
	floors := make(map[Position]FloorState, len(f.Floors))
	for k, v := range f.Floors {
		if k != pos {
			floors[k] = v
		}
	}
	return FieldState{Objects: f.Objects, Floors: floors}
}
