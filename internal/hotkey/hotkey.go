package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned on platforms without a global hotkey backend
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// Manager defines the interface for global hotkey management
type Manager interface {
	Register(accel string, callback func(pressed bool)) error
	Unregister(accel string) error
	Close() error
}

// Modifier bits, mapped to platform masks by each backend
const (
	ModShift = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// Accelerator is a parsed hotkey such as "Ctrl+Shift+F"
type Accelerator struct {
	Key       string // upper-case letter/digit or a named key like "Space", "F9"
	Modifiers int
}

var modifierNames = map[string]int{
	"shift":   ModShift,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"super":   ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"win":     ModSuper,
}

// Parse splits an accelerator string into its key and modifier mask
func Parse(accel string) (Accelerator, error) {
	var a Accelerator

	parts := strings.Split(accel, "+")
	for i, raw := range parts {
		part := strings.TrimSpace(raw)
		if part == "" {
			return Accelerator{}, fmt.Errorf("invalid hotkey %q", accel)
		}

		if i < len(parts)-1 {
			mod, ok := modifierNames[strings.ToLower(part)]
			if !ok {
				return Accelerator{}, fmt.Errorf("unknown modifier %q in hotkey %q", part, accel)
			}
			a.Modifiers |= mod
			continue
		}

		if _, isMod := modifierNames[strings.ToLower(part)]; isMod {
			return Accelerator{}, fmt.Errorf("hotkey %q has no key", accel)
		}
		a.Key = normalizeKey(part)
	}

	return a, nil
}

func normalizeKey(k string) string {
	if len(k) == 1 {
		return strings.ToUpper(k)
	}
	lower := strings.ToLower(k)
	if lower[0] == 'f' && len(lower) <= 3 && strings.Trim(lower[1:], "0123456789") == "" {
		return strings.ToUpper(lower)
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}
