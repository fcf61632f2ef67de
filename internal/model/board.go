package model

// BoardSize is the dimension of a battleship grid
const BoardSize = 10

// CellState is the contents of a single board cell
type CellState uint8

const (
	CellOpen CellState = iota
	CellShip
	CellHit
	CellMiss
)

// String returns a short label for the cell state
func (c CellState) String() string {
	switch c {
	case CellOpen:
		return "open"
	case CellShip:
		return "ship"
	case CellHit:
		return "hit"
	case CellMiss:
		return "miss"
	default:
		return "unknown"
	}
}

// Direction is the heading a ship extends in from its origin
type Direction int32

const (
	DirectionUp Direction = iota
	DirectionRight
	DirectionDown
	DirectionLeft
)

// Delta returns the unit step for the direction.
// Up is +y and Down is -y; unknown values step left.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirectionUp:
		return 0, 1
	case DirectionRight:
		return 1, 0
	case DirectionDown:
		return 0, -1
	default:
		return -1, 0
	}
}

// PlacementVerdict classifies a proposed ship placement
type PlacementVerdict uint8

const (
	PlacementValid PlacementVerdict = iota
	PlacementOutOfBounds
	PlacementOverlap
)

// String returns a short label for the verdict
func (v PlacementVerdict) String() string {
	switch v {
	case PlacementValid:
		return "valid"
	case PlacementOutOfBounds:
		return "out_of_bounds"
	case PlacementOverlap:
		return "overlap"
	default:
		return "unknown"
	}
}

// ShipPlacement is a single placement request
type ShipPlacement struct {
	Player    int
	OriginX   int
	OriginY   int
	Direction Direction
	Length    int
}

// Board is one player's 10x10 grid, indexed Cells[x][y]
type Board struct {
	Cells [BoardSize][BoardSize]CellState
}

// InBounds reports whether (x, y) lies on the grid
func InBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// Get returns the cell at (x, y), or CellOpen when out of bounds
func (b *Board) Get(x, y int) CellState {
	if !InBounds(x, y) {
		return CellOpen
	}
	return b.Cells[x][y]
}

// Set writes the cell at (x, y); out of bounds writes are ignored
func (b *Board) Set(x, y int, state CellState) {
	if InBounds(x, y) {
		b.Cells[x][y] = state
	}
}

// Reset opens every cell
func (b *Board) Reset() {
	b.Cells = [BoardSize][BoardSize]CellState{}
}

// Count returns the number of cells in the given state
func (b *Board) Count(state CellState) int {
	count := 0
	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			if b.Cells[x][y] == state {
				count++
			}
		}
	}
	return count
}

// CheckPlacement walks the placement cell by cell. Each step is bounds
// checked before it is occupancy checked and the first failure wins.
func (b *Board) CheckPlacement(p ShipPlacement) PlacementVerdict {
	if p.Length < 1 {
		return PlacementOutOfBounds
	}
	dx, dy := p.Direction.Delta()
	x, y := p.OriginX, p.OriginY
	for i := 0; i < p.Length; i++ {
		if !InBounds(x, y) {
			return PlacementOutOfBounds
		}
		if b.Cells[x][y] != CellOpen {
			return PlacementOverlap
		}
		x += dx
		y += dy
	}
	return PlacementValid
}

// PlaceShip marks the placement's cells as Ship if it is valid.
// Nothing is written unless the verdict is PlacementValid.
func (b *Board) PlaceShip(p ShipPlacement) PlacementVerdict {
	verdict := b.CheckPlacement(p)
	if verdict != PlacementValid {
		return verdict
	}
	dx, dy := p.Direction.Delta()
	x, y := p.OriginX, p.OriginY
	for i := 0; i < p.Length; i++ {
		b.Cells[x][y] = CellShip
		x += dx
		y += dy
	}
	return PlacementValid
}

// Strike resolves a shot at (x, y) and returns the resulting cell state
func (b *Board) Strike(x, y int) (CellState, error) {
	if !InBounds(x, y) {
		return CellOpen, ErrOutOfBounds
	}
	switch b.Cells[x][y] {
	case CellOpen:
		b.Cells[x][y] = CellMiss
	case CellShip:
		b.Cells[x][y] = CellHit
	default:
		return b.Cells[x][y], ErrAlreadyTargeted
	}
	return b.Cells[x][y], nil
}
