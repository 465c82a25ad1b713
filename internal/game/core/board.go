package core

// TileKind is the terrain of a cell. The numeric values match the
// replay meta and map generator conventions, not the wire tile codes.
type TileKind int8

const (
	KindGeneral  TileKind = -2
	KindCity     TileKind = -1
	KindPlain    TileKind = 0
	KindMountain TileKind = 1
	KindSwamp    TileKind = 2
)

// NeutralID is the owner of unclaimed cells. Players own cells as index+1.
const NeutralID = 0

func (k TileKind) String() string {
	switch k {
	case KindGeneral:
		return "general"
	case KindCity:
		return "city"
	case KindPlain:
		return "plain"
	case KindMountain:
		return "mountain"
	case KindSwamp:
		return "swamp"
	default:
		return "unknown"
	}
}

// Tile is a single cell on the map.
// Owner: 0 means neutral, p+1 for player index p.
// St marks membership of the largest passable component.
type Tile struct {
	Owner int
	Army  int
	Kind  TileKind
	St    bool
}

func (t *Tile) IsNeutral() bool  { return t.Owner == NeutralID }
func (t *Tile) IsCity() bool     { return t.Kind == KindCity }
func (t *Tile) IsGeneral() bool  { return t.Kind == KindGeneral }
func (t *Tile) IsMountain() bool { return t.Kind == KindMountain }
func (t *Tile) IsSwamp() bool    { return t.Kind == KindSwamp }

// IsStructure reports cities and generals, the tiles that grow every other turn.
func (t *Tile) IsStructure() bool { return t.Kind < 0 }

// Board is an N x M grid stored row-major. X is the row, Y the column.
type Board struct {
	N, M int
	T    []Tile
}

func NewBoard(n, m int) *Board {
	return &Board{N: n, M: m, T: make([]Tile, n*m)}
}

// NewFilledBoard returns a board whose every cell has the given kind.
func NewFilledBoard(n, m int, kind TileKind) *Board {
	b := NewBoard(n, m)
	for i := range b.T {
		b.T[i].Kind = kind
	}
	return b
}

func (b *Board) Idx(x, y int) int      { return x*b.M + y }
func (b *Board) XY(idx int) (int, int) { return idx / b.M, idx % b.M }
func (b *Board) Size() int             { return b.N * b.M }

// InBounds checks if coordinates are within board boundaries
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.N && y >= 0 && y < b.M
}

// At returns the tile at (x, y), or nil when out of bounds.
func (b *Board) At(x, y int) *Tile {
	if !b.InBounds(x, y) {
		return nil
	}
	return &b.T[b.Idx(x, y)]
}

func (b *Board) Clone() *Board {
	c := &Board{N: b.N, M: b.M, T: make([]Tile, len(b.T))}
	copy(c.T, b.T)
	return c
}

// Distance is the Manhattan distance between two cells.
func (b *Board) Distance(x1, y1, x2, y2 int) int {
	return Coordinate{X: x1, Y: y1}.DistanceTo(Coordinate{X: x2, Y: y2})
}

// CellsOwnedBy returns the indices of every cell owned by owner.
func (b *Board) CellsOwnedBy(owner int) []int {
	var out []int
	for i := range b.T {
		if b.T[i].Owner == owner {
			out = append(out, i)
		}
	}
	return out
}

// BorderDistance is the distance from (x, y) to the nearest map edge.
func (b *Board) BorderDistance(x, y int) int {
	d := x
	if v := b.N - 1 - x; v < d {
		d = v
	}
	if y < d {
		d = y
	}
	if v := b.M - 1 - y; v < d {
		d = v
	}
	return d
}
