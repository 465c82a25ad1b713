// Package protocol holds the JSON shapes exchanged with clients and stored
// in replays.
package protocol

import (
	"crypto/md5"
	"encoding/hex"
)

// MovePayload is a move as clients see it. A move of all -1 means none.
type MovePayload struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	DX   int  `json:"dx"`
	DY   int  `json:"dy"`
	Half bool `json:"half"`
}

// NoMovePayload is sent when a viewer made no move this turn.
var NoMovePayload = MovePayload{X: -1, Y: -1, DX: -1, DY: -1}

// Leaderboard classes.
const (
	ClassNone = ""
	ClassDead = "dead"
	ClassAFK  = "afk"
)

type LeaderboardEntry struct {
	Team  int    `json:"team"`
	UID   string `json:"uid"`
	Army  int    `json:"army"`
	Land  int    `json:"land"`
	Class string `json:"class_"`
	Dead  int    `json:"dead"`
	ID    int    `json:"id"`
}

// UpdatePayload is sent to every viewer once per tick. When IsDiff is set,
// GridType and ArmyCnt hold flat (index, value) pairs against the previous
// payload sent to that viewer.
type UpdatePayload struct {
	GridType          []int              `json:"grid_type"`
	ArmyCnt           []int              `json:"army_cnt"`
	LstMove           MovePayload        `json:"lst_move"`
	Leaderboard       []LeaderboardEntry `json:"leaderboard"`
	Turn              int                `json:"turn"`
	Kills             map[string]string  `json:"kills"`
	SurrenderProgress map[int]float64    `json:"surrender_progress"`
	GameEnd           bool               `json:"game_end"`
	IsDiff            bool               `json:"is_diff"`
	Replay            string             `json:"replay,omitempty"`
}

// Clone returns a deep copy of p.
func (p *UpdatePayload) Clone() *UpdatePayload {
	c := *p
	c.GridType = append([]int(nil), p.GridType...)
	c.ArmyCnt = append([]int(nil), p.ArmyCnt...)
	c.Leaderboard = append([]LeaderboardEntry(nil), p.Leaderboard...)
	c.Kills = make(map[string]string, len(p.Kills))
	for k, v := range p.Kills {
		c.Kills[k] = v
	}
	c.SurrenderProgress = make(map[int]float64, len(p.SurrenderProgress))
	for k, v := range p.SurrenderProgress {
		c.SurrenderProgress[k] = v
	}
	return &c
}

// InitMapPayload opens a game for a viewer. General is (-1,-1) for
// spectators and players without a general.
type InitMapPayload struct {
	N         int      `json:"n"`
	M         int      `json:"m"`
	PlayerIDs []string `json:"player_ids"`
	General   [2]int   `json:"general"`
}

// ChatScope selects where a chat message goes.
type ChatScope string

const (
	ChatRoom ChatScope = "room"
	ChatSid  ChatScope = "sid"
)

// ChatMessage is a chat line as delivered to clients.
type ChatMessage struct {
	Sender string `json:"sender"`
	Color  int    `json:"color"`
	Text   string `json:"text"`
	Team   bool   `json:"team,omitempty"`
}

// HashSid returns the key under which a player's kill is reported. Clients
// compare it with the hash of their own session id.
func HashSid(sid string) string {
	sum := md5.Sum([]byte(sid))
	return hex.EncodeToString(sum[:])
}
