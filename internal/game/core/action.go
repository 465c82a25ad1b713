package core

import "fmt"

// Move is one queued army transfer. Half moves send floor((army-1)/2).
type Move struct {
	FromX, FromY int
	ToX, ToY     int
	Half         bool
}

// NoMove is the "nothing happened" sentinel used for last-move tracking.
var NoMove = Move{FromX: -1, FromY: -1, ToX: -1, ToY: -1}

func NewMove(x, y, dx, dy int, half bool) Move {
	return Move{FromX: x, FromY: y, ToX: dx, ToY: dy, Half: half}
}

func (m Move) IsNone() bool { return m.FromX == -1 }

func (m Move) From() Coordinate { return Coordinate{X: m.FromX, Y: m.FromY} }
func (m Move) To() Coordinate   { return Coordinate{X: m.ToX, Y: m.ToY} }

// Direction returns the step direction of the move, if it is a single step.
func (m Move) Direction() (Direction, bool) {
	return m.From().DirectionTo(m.To())
}

func (m Move) String() string {
	h := ""
	if m.Half {
		h = " half"
	}
	return fmt.Sprintf("%s->%s%s", m.From(), m.To(), h)
}
