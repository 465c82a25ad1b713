// Package vision turns a board into the flat tile-code and army arrays that
// players and spectators receive, applying fog of war per team.
package vision

import "github.com/oimasterkafuu/checkmate/internal/game/core"

// Tile codes on the wire. Owned kinds are a base plus the owner id.
const (
	CodeCityBase    = 50
	CodeGeneralBase = 100
	CodeSwampBase   = 150

	CodeEmpty        = 200
	CodeMountain     = 201
	CodeFog          = 202
	CodeFogObstacle  = 203
	CodeNeutralSwamp = 204
	CodeFogSwamp     = 205
)

// View is what a single code tells a client about a cell.
// Hidden views only carry a coarse kind: plain for unknown land, mountain
// for an obstacle that may be a city, swamp for unknown swamp.
type View struct {
	Kind   core.TileKind
	Owner  int
	Hidden bool
}

// EncodeVisible returns the code of a cell the viewer can see.
func EncodeVisible(kind core.TileKind, owner, army int) int {
	switch kind {
	case core.KindSwamp:
		if owner == core.NeutralID {
			return CodeNeutralSwamp
		}
		return owner + CodeSwampBase
	case core.KindMountain:
		return CodeMountain
	case core.KindCity:
		return owner + CodeCityBase
	case core.KindGeneral:
		return owner + CodeGeneralBase
	}
	if owner != core.NeutralID || army != 0 {
		return owner
	}
	return CodeEmpty
}

// EncodeHidden returns the fog code of a cell outside the viewer's sight.
// Generals look like plain fog, cities look like mountains.
func EncodeHidden(kind core.TileKind) int {
	switch kind {
	case core.KindSwamp:
		return CodeFogSwamp
	case core.KindMountain, core.KindCity:
		return CodeFogObstacle
	}
	return CodeFog
}

// EncodeTile encodes t with or without visibility.
func EncodeTile(t core.Tile, visible bool) int {
	if !visible {
		return EncodeHidden(t.Kind)
	}
	return EncodeVisible(t.Kind, t.Owner, t.Army)
}

// Decode maps a code back to the view it stands for. ok is false for codes
// outside the alphabet.
func Decode(code int) (v View, ok bool) {
	switch {
	case code == CodeEmpty:
		return View{Kind: core.KindPlain}, true
	case code == CodeMountain:
		return View{Kind: core.KindMountain}, true
	case code == CodeFog:
		return View{Kind: core.KindPlain, Hidden: true}, true
	case code == CodeFogObstacle:
		return View{Kind: core.KindMountain, Hidden: true}, true
	case code == CodeNeutralSwamp:
		return View{Kind: core.KindSwamp}, true
	case code == CodeFogSwamp:
		return View{Kind: core.KindSwamp, Hidden: true}, true
	case code >= 0 && code < CodeCityBase:
		return View{Kind: core.KindPlain, Owner: code}, true
	case code >= CodeCityBase && code < CodeGeneralBase:
		return View{Kind: core.KindCity, Owner: code - CodeCityBase}, true
	case code >= CodeGeneralBase && code < CodeSwampBase:
		return View{Kind: core.KindGeneral, Owner: code - CodeGeneralBase}, true
	case code > CodeSwampBase && code < CodeEmpty:
		return View{Kind: core.KindSwamp, Owner: code - CodeSwampBase}, true
	}
	return View{}, false
}
