package protocol

import (
	"encoding/json"
	"fmt"
)

// ActionDataVersion tags the op-stream replay format.
const ActionDataVersion = "ops-v1"

// ReplayMeta snapshots the configuration a game was started with. Replaying
// it regenerates the identical map.
type ReplayMeta struct {
	WidthRatio     float64  `json:"width_ratio"`
	HeightRatio    float64  `json:"height_ratio"`
	CityRatio      float64  `json:"city_ratio"`
	MountainRatio  float64  `json:"mountain_ratio"`
	SwampRatio     float64  `json:"swamp_ratio"`
	Speed          float64  `json:"speed"`
	AllowTeam      bool     `json:"allow_team"`
	MapToken       string   `json:"map_token"`
	MapMode        string   `json:"map_mode"`
	PlayerNames    []string `json:"player_names"`
	PlayerTeams    []int    `json:"player_teams"`
	MapSizeVersion int      `json:"map_size_version,omitempty"`
}

// OpKind is the opcode of a replay player op.
type OpKind string

const (
	OpSelect     OpKind = "s"
	OpMove       OpKind = "m"
	OpWait       OpKind = "w"
	OpSurrender  OpKind = "r"
	OpLeave      OpKind = "l"
	OpDisconnect OpKind = "d"
	OpReconnect  OpKind = "c"
	OpAFK        OpKind = "a"
)

// Terminal reports whether the op ends the player's participation. Terminal
// ops occupy a turn like moves do.
func (k OpKind) Terminal() bool {
	return k == OpSurrender || k == OpLeave || k == OpAFK
}

// PlayerOp is one entry of a player's op stream. Only the fields of its
// kind are meaningful: X and Y for select, D and Half for move, N for wait.
type PlayerOp struct {
	Op   OpKind
	X, Y int
	D    int
	Half bool
	N    int
}

func Select(x, y int) PlayerOp { return PlayerOp{Op: OpSelect, X: x, Y: y} }
func MoveOp(d int, half bool) PlayerOp {
	return PlayerOp{Op: OpMove, D: d, Half: half}
}
func Wait(n int) PlayerOp { return PlayerOp{Op: OpWait, N: n} }

type playerOpJSON struct {
	Op OpKind `json:"op"`
	X  *int   `json:"x,omitempty"`
	Y  *int   `json:"y,omitempty"`
	D  *int   `json:"d,omitempty"`
	H  int    `json:"h,omitempty"`
	N  *int   `json:"n,omitempty"`
}

func (o PlayerOp) MarshalJSON() ([]byte, error) {
	out := playerOpJSON{Op: o.Op}
	switch o.Op {
	case OpSelect:
		out.X, out.Y = &o.X, &o.Y
	case OpMove:
		out.D = &o.D
		if o.Half {
			out.H = 1
		}
	case OpWait:
		out.N = &o.N
	case OpSurrender, OpLeave, OpDisconnect, OpReconnect, OpAFK:
	default:
		return nil, fmt.Errorf("unknown replay op %q", o.Op)
	}
	return json.Marshal(out)
}

func (o *PlayerOp) UnmarshalJSON(data []byte) error {
	var in playerOpJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*o = PlayerOp{Op: in.Op, Half: in.H == 1}
	deref := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	switch in.Op {
	case OpSelect:
		o.X, o.Y = deref(in.X), deref(in.Y)
	case OpMove:
		o.D = deref(in.D)
		if o.D < 0 || o.D > 3 {
			return fmt.Errorf("replay move direction %d out of range", o.D)
		}
	case OpWait:
		o.N = deref(in.N)
	case OpSurrender, OpLeave, OpDisconnect, OpReconnect, OpAFK:
	default:
		return fmt.Errorf("unknown replay op %q", in.Op)
	}
	return nil
}

// ActionData is what gets persisted for a finished game: the meta needed to
// regenerate the map plus each player's op stream.
type ActionData struct {
	Version    string       `json:"version"`
	Meta       ReplayMeta   `json:"meta"`
	TotalTurns int          `json:"total_turns"`
	PlayerOps  [][]PlayerOp `json:"player_ops"`
}

// PatchPayload is one side of a replay patch. GridType and ArmyCnt are diff
// pairs; the remaining fields are the full values of the target frame.
type PatchPayload struct {
	GridType          []int              `json:"grid_type"`
	ArmyCnt           []int              `json:"army_cnt"`
	LstMove           MovePayload        `json:"lst_move"`
	Leaderboard       []LeaderboardEntry `json:"leaderboard"`
	Turn              int                `json:"turn"`
	Kills             map[string]string  `json:"kills"`
	SurrenderProgress map[int]float64    `json:"surrender_progress"`
	GameEnd           bool               `json:"game_end"`
}

type Patch struct {
	Forward  PatchPayload `json:"forward"`
	Backward PatchPayload `json:"backward"`
}

// ReplayData is a reconstructed replay ready for playback.
type ReplayData struct {
	N       int           `json:"n"`
	M       int           `json:"m"`
	Initial UpdatePayload `json:"initial"`
	Patches []Patch       `json:"patches"`
	Meta    *ReplayMeta   `json:"meta,omitempty"`
}

// ListItem is a saved replay in the replay list.
type ListItem struct {
	Time int64    `json:"time"`
	ID   string   `json:"id"`
	Rank []string `json:"rank"`
	Turn int      `json:"turn"`
}

// Summary is stored alongside a replay when it is saved.
type Summary struct {
	Rank []string
	Turn int
}
