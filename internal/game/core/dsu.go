package core

// DSU is a union-find over n elements with size tracking. Find uses
// iterative path compression so large boards never recurse deeply.
type DSU struct {
	parent []int
	size   []int
}

func NewDSU(n int) *DSU {
	d := &DSU{parent: make([]int, n), size: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
		d.size[i] = 1
	}
	return d
}

func (d *DSU) Find(x int) int {
	root := x
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[x] != root {
		next := d.parent[x]
		d.parent[x] = root
		x = next
	}
	return root
}

// Merge joins the sets of x and y. The set of x is attached under y's root.
func (d *DSU) Merge(x, y int) {
	rx, ry := d.Find(x), d.Find(y)
	if rx == ry {
		return
	}
	d.size[ry] += d.size[rx]
	d.parent[rx] = ry
}

func (d *DSU) ComponentSize(x int) int {
	return d.size[d.Find(x)]
}

// passableDSU unions orthogonally adjacent non-mountain cells.
func passableDSU(b *Board) (*DSU, int) {
	dsu := NewDSU(b.Size())
	blocked := 0
	for i := 0; i < b.N; i++ {
		for j := 0; j < b.M; j++ {
			idx := b.Idx(i, j)
			if b.T[idx].Kind == KindMountain {
				blocked++
				continue
			}
			if i+1 < b.N && b.T[idx+b.M].Kind != KindMountain {
				dsu.Merge(idx, idx+b.M)
			}
			if j+1 < b.M && b.T[idx+1].Kind != KindMountain {
				dsu.Merge(idx, idx+1)
			}
		}
	}
	return dsu, blocked
}

// CheckConnection looks for a passable component holding more than 90% of
// all non-mountain cells and returns its first cell in row-major order.
// NoCoordinate is returned when no such component exists.
func CheckConnection(b *Board) Coordinate {
	dsu, blocked := passableDSU(b)
	threshold := float64(b.Size()-blocked) * 0.9
	for i := 0; i < b.Size(); i++ {
		if float64(dsu.ComponentSize(i)) > threshold {
			return FromIndex(i, b.M)
		}
	}
	return NoCoordinate
}

// MarkLargestComponent sets St on every cell of the largest passable
// component and clears it everywhere else.
func MarkLargestComponent(b *Board) {
	dsu, _ := passableDSU(b)
	maxSize := 0
	for i := 0; i < b.Size(); i++ {
		if s := dsu.ComponentSize(i); s > maxSize {
			maxSize = s
		}
	}
	for i := range b.T {
		b.T[i].St = dsu.ComponentSize(i) == maxSize
	}
}
