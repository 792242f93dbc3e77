package model

import "fmt"

// Leader identifies one of the two sides of a match.
type Leader int8

const (
	LeaderNone   Leader = 0
	LeaderFirst  Leader = 1
	LeaderSecond Leader = 2
)

// Leaders lists both sides in a stable order.
var Leaders = []Leader{LeaderFirst, LeaderSecond}

// Valid reports whether l names an actual side.
func (l Leader) Valid() bool {
	return l == LeaderFirst || l == LeaderSecond
}

// Opponent returns the other side. LeaderNone maps to itself.
func (l Leader) Opponent() Leader {
	switch l {
	case LeaderFirst:
		return LeaderSecond
	case LeaderSecond:
		return LeaderFirst
	default:
		return LeaderNone
	}
}

func (l Leader) String() string {
	switch l {
	case LeaderFirst:
		return "FIRST"
	case LeaderSecond:
		return "SECOND"
	case LeaderNone:
		return "NONE"
	default:
		return fmt.Sprintf("LEADER_%d", int(l))
	}
}

// Row is a field row. Front row cells face the opponent.
type Row int8

const (
	RowFront Row = 0
	RowBack  Row = 1
)

const (
	// Columns is the number of columns per row.
	Columns = 3
	// CellsPerLeader is the number of field cells owned by one side.
	CellsPerLeader = 6
	// CellCount is the total number of field cells.
	CellCount = CellsPerLeader * 2
)

// Position is one of the 12 field cells, numbered 1..12. Cells 1..6 belong to the
// first leader and 7..12 to the second. Zero means "no position".
type Position int8

// NewPosition builds a position. It returns 0 for out-of-range input.
func NewPosition(leader Leader, row Row, column int) Position {
	if !leader.Valid() || (row != RowFront && row != RowBack) || column < 0 || column >= Columns {
		return 0
	}
	return Position(int(leader-1)*CellsPerLeader + int(row)*Columns + column + 1)
}

// Valid reports whether p is one of the 12 cells.
func (p Position) Valid() bool {
	return p >= 1 && p <= CellCount
}

// Leader returns the side owning the cell.
func (p Position) Leader() Leader {
	if !p.Valid() {
		return LeaderNone
	}
	return Leader((int(p)-1)/CellsPerLeader + 1)
}

// Row returns the cell row.
func (p Position) Row() Row {
	return Row(((int(p) - 1) % CellsPerLeader) / Columns)
}

// Column returns the cell column (0..2).
func (p Position) Column() int {
	return (int(p) - 1) % Columns
}

// Adjacent returns the orthogonal neighbours on the same side.
func (p Position) Adjacent() []Position {
	if !p.Valid() {
		return nil
	}
	leader, row, col := p.Leader(), p.Row(), p.Column()
	out := make([]Position, 0, 3)
	if col > 0 {
		out = append(out, NewPosition(leader, row, col-1))
	}
	if col < Columns-1 {
		out = append(out, NewPosition(leader, row, col+1))
	}
	out = append(out, NewPosition(leader, 1-row, col))
	return out
}

func (p Position) String() string {
	if !p.Valid() {
		return "NOWHERE"
	}
	row := "F"
	if p.Row() == RowBack {
		row = "B"
	}
	return fmt.Sprintf("%s:%s%d", p.Leader(), row, p.Column())
}

// PositionsOf returns every cell owned by leader in ascending order.
func PositionsOf(leader Leader) []Position {
	if !leader.Valid() {
		return nil
	}
	out := make([]Position, 0, CellsPerLeader)
	base := int(leader-1) * CellsPerLeader
	for i := 1; i <= CellsPerLeader; i++ {
		out = append(out, Position(base+i))
	}
	return out
}

// AllPositions returns the 12 cells in ascending order.
func AllPositions() []Position {
	return append(PositionsOf(LeaderFirst), PositionsOf(LeaderSecond)...)
}

// Target addresses a leader or a field cell. A non-zero Position takes precedence.
type Target struct {
	Leader   Leader   `json:"leader,omitempty"`
	Position Position `json:"position,omitempty"`
}

// LeaderTarget targets a leader.
func LeaderTarget(l Leader) Target { return Target{Leader: l} }

// CellTarget targets a field cell.
func CellTarget(p Position) Target { return Target{Position: p} }

// IsLeader reports whether the target is a leader.
func (t Target) IsLeader() bool { return t.Position == 0 && t.Leader.Valid() }

// IsCell reports whether the target is a field cell.
func (t Target) IsCell() bool { return t.Position.Valid() }

// IsZero reports whether nothing is targeted.
func (t Target) IsZero() bool { return t.Position == 0 && t.Leader == LeaderNone }

// Side returns the leader owning the target.
func (t Target) Side() Leader {
	if t.IsCell() {
		return t.Position.Leader()
	}
	return t.Leader
}
