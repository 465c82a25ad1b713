package game

import (
	"fmt"
	"strings"

	"github.com/oimasterkafuu/checkmate/internal/common"
	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/vision"
)

// This file contains the terminal rendering of boards.

const (
	emptySymbol    = "·"
	citySymbol     = "⬢"
	generalSymbol  = "♔"
	mountainSymbol = "▲"
	swampSymbol    = "~"
)

// Render draws the board in full vision, the way spectators see it
func (e *Engine) Render() string {
	return RenderBoard(e.board, nil)
}

// RenderTeam draws the board as a member of team sees it
func (e *Engine) RenderTeam(team int) string {
	return RenderBoard(e.board, vision.Visible(e.board, team, e.teams))
}

// RenderBoard returns a colored text picture of b. Cells whose entry in
// seen is false are drawn as fog; a nil seen shows everything.
func RenderBoard(b *core.Board, seen []bool) string {
	var sb strings.Builder
	// Each cell is 3 visible chars plus roughly 10 bytes of escape codes
	sb.Grow((b.M*13 + 8) * (b.N + 3))

	sb.WriteString("   ")
	for y := 0; y < b.M; y++ {
		fmt.Fprintf(&sb, "%3d", y)
	}
	sb.WriteString("\n")

	for x := 0; x < b.N; x++ {
		fmt.Fprintf(&sb, "%3d", x)
		for y := 0; y < b.M; y++ {
			idx := b.Idx(x, y)
			writeTile(&sb, b.T[idx], seen == nil || seen[idx])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(emptySymbol + "=empty " + citySymbol + "=city " + generalSymbol + "=general ")
	sb.WriteString(mountainSymbol + "=mountain " + swampSymbol + "=swamp A-P=players\n")
	return sb.String()
}

// writeTile writes one three character cell
func writeTile(sb *strings.Builder, t core.Tile, visible bool) {
	switch {
	case !visible:
		sb.WriteString(common.ColorGray)
		if t.IsMountain() || t.IsStructure() {
			sb.WriteString("  ?")
		} else {
			sb.WriteString("   ")
		}
	case t.IsMountain():
		sb.WriteString(common.ColorGray + "  " + mountainSymbol)
	case t.IsGeneral():
		sb.WriteString(common.PlayerColor(t.Owner))
		sb.WriteByte(' ')
		sb.WriteByte(common.PlayerLetter(t.Owner))
		sb.WriteString(generalSymbol)
	case t.IsCity() && t.IsNeutral():
		sb.WriteString(common.ColorWhite)
		fmt.Fprintf(sb, "%2s%s", armyLabel(t.Army, 2), citySymbol)
	case t.IsCity():
		sb.WriteString(common.PlayerColor(t.Owner))
		sb.WriteByte(common.PlayerLetter(t.Owner))
		fmt.Fprintf(sb, "%1s%s", armyLabel(t.Army, 1), citySymbol)
	case t.IsNeutral():
		sb.WriteString(common.ColorGray)
		switch {
		case t.IsSwamp():
			sb.WriteString("  " + swampSymbol)
		case t.Army == 0:
			sb.WriteString("  " + emptySymbol)
		default:
			fmt.Fprintf(sb, "%3s", armyLabel(t.Army, 3))
		}
	default:
		sb.WriteString(common.PlayerColor(t.Owner))
		sb.WriteByte(common.PlayerLetter(t.Owner))
		fmt.Fprintf(sb, "%2s", armyLabel(t.Army, 2))
	}
	sb.WriteString(common.ColorReset)
}

// armyLabel formats n in at most width characters, using + for overflow
func armyLabel(n, width int) string {
	s := fmt.Sprint(n)
	if len(s) > width {
		return strings.Repeat("+", width)
	}
	return s
}
