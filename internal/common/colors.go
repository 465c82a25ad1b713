package common

// ANSI escape sequences used by the terminal renderer.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorGray   = "\033[90m"

	ColorBrightRed    = "\033[91m"
	ColorBrightGreen  = "\033[92m"
	ColorBrightYellow = "\033[93m"
	ColorBrightBlue   = "\033[94m"
	ColorBrightPurple = "\033[95m"
	ColorBrightCyan   = "\033[96m"
)

// playerColors is indexed by owner id - 1. Games hold at most 16 players.
var playerColors = []string{
	ColorRed, ColorBlue, ColorGreen, ColorYellow,
	ColorPurple, ColorCyan, ColorBrightRed, ColorBrightBlue,
	ColorBrightGreen, ColorBrightYellow, ColorBrightPurple, ColorBrightCyan,
	ColorWhite, ColorRed, ColorBlue, ColorGreen,
}

// PlayerColor returns the terminal color of an owner id. Neutral (0) and
// unknown ids are gray.
func PlayerColor(owner int) string {
	if owner <= 0 || owner > len(playerColors) {
		return ColorGray
	}
	return playerColors[owner-1]
}

// PlayerLetter returns the single letter used for an owner id on the
// terminal board.
func PlayerLetter(owner int) byte {
	const letters = "ABCDEFGHIJKLMNOP"
	if owner <= 0 || owner > len(letters) {
		return '?'
	}
	return letters[owner-1]
}
