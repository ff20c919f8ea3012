//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework Carbon
#include <Carbon/Carbon.h>

// Forward declaration for Go callback
extern void goHotkeyCallback(int pressed);

static EventHotKeyRef hotKeyRef = NULL;
static int handlerInstalled = 0;

// Event handler for hotkeys
static OSStatus hotkeyHandler(EventHandlerCallRef nextHandler, EventRef theEvent, void* userData) {
    UInt32 eventKind = GetEventKind(theEvent);
    int pressed = (eventKind == kEventHotKeyPressed) ? 1 : 0;

    goHotkeyCallback(pressed);

    return noErr;
}

// Register hotkey with Carbon
static int registerHotkey(UInt32 keyCode, UInt32 modifiers) {
    if (!handlerInstalled) {
        EventTypeSpec eventTypes[2];
        eventTypes[0].eventClass = kEventClassKeyboard;
        eventTypes[0].eventKind = kEventHotKeyPressed;
        eventTypes[1].eventClass = kEventClassKeyboard;
        eventTypes[1].eventKind = kEventHotKeyReleased;

        EventHandlerUPP handlerUPP = NewEventHandlerUPP(hotkeyHandler);
        InstallApplicationEventHandler(handlerUPP, 2, eventTypes, NULL, NULL);
        handlerInstalled = 1;
    }

    EventHotKeyID hotKeyID;
    hotKeyID.signature = 'fsh1';
    hotKeyID.id = 1;

    OSStatus status = RegisterEventHotKey(keyCode, modifiers, hotKeyID, GetApplicationEventTarget(), 0, &hotKeyRef);

    return (status == noErr) ? 1 : 0;
}

static void unregisterHotkey() {
    if (hotKeyRef != NULL) {
        UnregisterEventHotKey(hotKeyRef);
        hotKeyRef = NULL;
    }
}
*/
import "C"

import (
	"fmt"
)

// Carbon virtual key codes (ANSI layout)
var carbonKeyCodes = map[string]uint32{
	"A": 0, "S": 1, "D": 2, "F": 3, "H": 4, "G": 5, "Z": 6, "X": 7, "C": 8, "V": 9,
	"B": 11, "Q": 12, "W": 13, "E": 14, "R": 15, "Y": 16, "T": 17,
	"1": 18, "2": 19, "3": 20, "4": 21, "6": 22, "5": 23, "9": 25, "7": 26, "8": 28, "0": 29,
	"O": 31, "U": 32, "I": 34, "P": 35, "L": 37, "J": 38, "K": 40, "N": 45, "M": 46,
	"Enter": 36, "Space": 49, "Esc": 53, "Escape": 53,
	"F1": 122, "F2": 120, "F3": 99, "F4": 118, "F5": 96, "F6": 97,
	"F7": 98, "F8": 100, "F9": 101, "F10": 109, "F11": 103, "F12": 111,
}

type darwinManager struct {
	callback func(bool)
	accel    string
}

var globalManager *darwinManager

// New creates a new macOS hotkey manager using Carbon
func New() (Manager, error) {
	mgr := &darwinManager{}
	return mgr, nil
}

//export goHotkeyCallback
func goHotkeyCallback(pressed C.int) {
	if globalManager != nil && globalManager.callback != nil {
		globalManager.callback(pressed == 1)
	}
}

func carbonModifiers(mods int) uint32 {
	var mask uint32
	if mods&ModSuper != 0 {
		mask |= 0x100 // cmdKey
	}
	if mods&ModShift != 0 {
		mask |= 0x200 // shiftKey
	}
	if mods&ModAlt != 0 {
		mask |= 0x800 // optionKey
	}
	if mods&ModCtrl != 0 {
		mask |= 0x1000 // controlKey
	}
	return mask
}

// Register supports a single hotkey; registering again replaces it
func (m *darwinManager) Register(accel string, callback func(pressed bool)) error {
	a, err := Parse(accel)
	if err != nil {
		return err
	}
	keyCode, ok := carbonKeyCodes[a.Key]
	if !ok {
		return fmt.Errorf("unsupported key %q in hotkey %q", a.Key, accel)
	}

	C.unregisterHotkey()
	m.callback = callback
	m.accel = accel
	globalManager = m

	ret := C.registerHotkey(C.UInt32(keyCode), C.UInt32(carbonModifiers(a.Modifiers)))
	if ret == 0 {
		return fmt.Errorf("failed to register hotkey %q", accel)
	}

	return nil
}

func (m *darwinManager) Unregister(accel string) error {
	if accel != m.accel {
		return fmt.Errorf("hotkey %q not registered", accel)
	}
	C.unregisterHotkey()
	m.callback = nil
	m.accel = ""
	return nil
}

func (m *darwinManager) Close() error {
	C.unregisterHotkey()
	globalManager = nil
	return nil
}
