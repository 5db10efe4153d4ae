package idle

import (
	"fmt"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
)

// Signal is a client interaction that counts as activity.
type Signal string

const (
	SignalMouseDown  Signal = "mousedown"
	SignalMouseMove  Signal = "mousemove"
	SignalKeyPress   Signal = "keypress"
	SignalScroll     Signal = "scroll"
	SignalTouchStart Signal = "touchstart"
	SignalClick      Signal = "click"
)

// Signals lists every tracked interaction.
var Signals = []Signal{
	SignalMouseDown,
	SignalMouseMove,
	SignalKeyPress,
	SignalScroll,
	SignalTouchStart,
	SignalClick,
}

// ParseSignal accepts only tracked interactions. Anything else, focus or
// visibility changes included, does not reset the idle cycle.
func ParseSignal(s string) (Signal, error) {
	for _, sig := range Signals {
		if string(sig) == s {
			return sig, nil
		}
	}
	return "", fmt.Errorf("untracked activity signal %q: %w", s, domain.ErrBadRequest)
}
