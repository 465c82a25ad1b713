package common

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPlayers is the largest roster a game accepts.
	MaxPlayers = 16
	// MaxNameBytes keeps names encodable in replay leaderboards.
	MaxNameBytes = 0xffff
	// MaxChatRunes bounds a single chat line.
	MaxChatRunes = 500
)

var (
	ErrEmptyName     = errors.New("player name is empty")
	ErrNameTooLong   = errors.New("player name is too long")
	ErrRosterSize    = errors.New("invalid number of players")
	ErrRosterMisfit  = errors.New("names and teams differ in length")
	ErrInvalidTeam   = errors.New("invalid team")
	ErrTooFewPlaying = errors.New("fewer than two teams are playing")
)

// ValidatePlayerName rejects names that cannot be shown or stored.
func ValidatePlayerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameBytes || !utf8.ValidString(name) {
		return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(name))
	}
	return nil
}

// ValidateRoster checks a lobby roster. Team 0 marks a spectator slot;
// at least two distinct teams must be playing. Without allowTeam every
// playing slot must be on its own team.
func ValidateRoster(names []string, teams []int, allowTeam bool) error {
	if len(names) == 0 || len(names) > MaxPlayers {
		return fmt.Errorf("%w: %d", ErrRosterSize, len(names))
	}
	if len(names) != len(teams) {
		return ErrRosterMisfit
	}
	seen := make(map[int]bool)
	for i, name := range names {
		if err := ValidatePlayerName(name); err != nil {
			return fmt.Errorf("player %d: %w", i, err)
		}
		team := teams[i]
		if team < 0 || team > MaxPlayers {
			return fmt.Errorf("player %d: %w %d", i, ErrInvalidTeam, team)
		}
		if team == 0 {
			continue
		}
		if seen[team] && !allowTeam {
			return fmt.Errorf("player %d: %w: team %d is shared", i, ErrInvalidTeam, team)
		}
		seen[team] = true
	}
	if len(seen) < 2 {
		return ErrTooFewPlaying
	}
	return nil
}

// NormalizeChat trims a chat line and cuts it to MaxChatRunes. An empty
// result means the message should be dropped.
func NormalizeChat(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > MaxChatRunes {
		text = string([]rune(text)[:MaxChatRunes])
	}
	return text
}
