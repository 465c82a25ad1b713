package rules

import "github.com/oimasterkafuu/checkmate/internal/game/core"

// Attack applies a validated move. teams[p] is the team of owner p+1.
// When the move captures a general, the victim's whole territory passes
// to the attacker and Attack returns the victim's owner id; otherwise it
// returns 0.
func Attack(b *core.Board, teams []int, m core.Move) (victim int) {
	from := b.At(m.FromX, m.FromY)
	to := b.At(m.ToX, m.ToY)

	cnt := from.Army - 1
	if m.Half {
		cnt /= 2
	}
	from.Army -= cnt

	if to.Owner == from.Owner {
		to.Army += cnt
		return 0
	}

	if allied(teams, to.Owner, from.Owner) {
		to.Army += cnt
		if !to.IsGeneral() {
			to.Owner = from.Owner
		}
		return 0
	}

	if cnt <= to.Army {
		to.Army -= cnt
		return 0
	}

	left := cnt - to.Army
	if to.IsGeneral() {
		victim = to.Owner
		CaptureTerritory(b, from.Owner, victim)
		to.Kind = core.KindCity
	}
	to.Army = left
	to.Owner = from.Owner
	return victim
}

func allied(teams []int, a, b int) bool {
	if a <= 0 || b <= 0 || a > len(teams) || b > len(teams) {
		return false
	}
	return teams[a-1] == teams[b-1]
}

// CaptureTerritory hands every cell of victim to attacker at half army,
// rounded up. Generals become cities. attacker may be 0 (neutral).
func CaptureTerritory(b *core.Board, attacker, victim int) {
	for i := range b.T {
		t := &b.T[i]
		if t.Owner != victim {
			continue
		}
		t.Owner = attacker
		t.Army = (t.Army + 1) / 2
		if t.IsGeneral() {
			t.Kind = core.KindCity
		}
	}
}
