// Package rng provides the deterministic generator behind map layout and
// spawn placement. Replays store only player actions, so two processes
// seeding from the same string must walk the same sequence.
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

const (
	// MapTokenMaxLength bounds user supplied map tokens.
	MapTokenMaxLength = 32
	defaultToken      = "default"
	increment         = 0x6d2b79f5
)

// Seeded is a 32-bit counter-based mixing generator.
// It is not safe for concurrent use.
type Seeded struct {
	state uint32
}

// New seeds from the first four little-endian bytes of sha256(seed).
// A zero state is replaced by 1.
func New(seed string) *Seeded {
	digest := sha256.Sum256([]byte(seed))
	state := binary.LittleEndian.Uint32(digest[:4])
	if state == 0 {
		state = 1
	}
	return &Seeded{state: state}
}

// Next returns a float in [0, 1).
func (r *Seeded) Next() float64 {
	r.state += increment
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// IntInclusive returns an integer in [lo, hi].
func (r *Seeded) IntInclusive(lo, hi int) int {
	return lo + int(r.Next()*float64(hi-lo+1))
}

// Shuffle is an in-place Fisher-Yates shuffle walking from the back.
func Shuffle[T any](s []T, r *Seeded) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntInclusive(0, i)
		s[i], s[j] = s[j], s[i]
	}
}

// NormalizeMapToken trims the token and cuts it to MapTokenMaxLength runes.
func NormalizeMapToken(token string) string {
	r := []rune(strings.TrimSpace(token))
	if len(r) > MapTokenMaxLength {
		r = r[:MapTokenMaxLength]
	}
	return string(r)
}

// ResolveMapSeed combines the map mode and token into the seed string.
func ResolveMapSeed(mode, token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		token = defaultToken
	}
	return mode + ":" + token
}

// SeededTerrainRatio derives a terrain density in [0.35, 1] from the seed,
// so the same token always yields the same city and mountain density.
func SeededTerrainRatio(seed, key string) float64 {
	digest := sha256.Sum256([]byte(seed + ":" + key))
	v := float64(binary.BigEndian.Uint16(digest[:2])) / 65535.0
	return 0.35 + v*0.65
}
