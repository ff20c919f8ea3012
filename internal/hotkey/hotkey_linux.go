//go:build linux

package hotkey

/*
#cgo pkg-config: x11
#include <X11/Xlib.h>
#include <X11/keysym.h>
#include <stdlib.h>

Display* displayPtr = NULL;

int openDisplay() {
    if (displayPtr == NULL) {
        displayPtr = XOpenDisplay(NULL);
    }
    return displayPtr != NULL;
}

// Returns the grabbed keycode, or 0 on failure
int grabKey(const char* keysymName, unsigned int modifiers) {
    if (!openDisplay()) return 0;

    KeySym sym = XStringToKeysym(keysymName);
    if (sym == NoSymbol) return 0;
    KeyCode keycode = XKeysymToKeycode(displayPtr, sym);
    if (keycode == 0) return 0;

    Window root = DefaultRootWindow(displayPtr);
    XGrabKey(displayPtr, keycode, modifiers, root, False, GrabModeAsync, GrabModeAsync);
    // Also grab with NumLock (Mod2) so the hotkey works regardless of its state
    XGrabKey(displayPtr, keycode, modifiers | Mod2Mask, root, False, GrabModeAsync, GrabModeAsync);
    XSelectInput(displayPtr, root, KeyPressMask | KeyReleaseMask);
    XSync(displayPtr, False);

    return keycode;
}

void ungrabKey(int keycode, unsigned int modifiers) {
    if (displayPtr == NULL) return;
    Window root = DefaultRootWindow(displayPtr);
    XUngrabKey(displayPtr, keycode, modifiers, root);
    XUngrabKey(displayPtr, keycode, modifiers | Mod2Mask, root);
    XSync(displayPtr, False);
}

int checkEvent(int* keycode, int* pressed) {
    if (displayPtr == NULL) return 0;

    XEvent event;
    if (XPending(displayPtr) > 0) {
        XNextEvent(displayPtr, &event);
        if (event.type == KeyPress || event.type == KeyRelease) {
            *keycode = event.xkey.keycode;
            *pressed = (event.type == KeyPress) ? 1 : 0;
            return 1;
        }
    }
    return 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"time"
	"unsafe"
)

type grab struct {
	keycode   int
	modifiers uint
}

type linuxManager struct {
	mu        sync.Mutex
	callbacks map[int]func(bool)
	grabs     map[string]grab
	stop      chan struct{}
	stopOnce  sync.Once
}

// New creates a new Linux hotkey manager using X11
func New() (Manager, error) {
	if C.openDisplay() == 0 {
		return nil, fmt.Errorf("failed to open X display")
	}

	mgr := &linuxManager{
		callbacks: make(map[int]func(bool)),
		grabs:     make(map[string]grab),
		stop:      make(chan struct{}),
	}

	go mgr.eventLoop()

	return mgr, nil
}

// x11Modifiers maps modifier bits to X11 masks
func x11Modifiers(mods int) uint {
	var mask uint
	if mods&ModShift != 0 {
		mask |= 1 // ShiftMask
	}
	if mods&ModCtrl != 0 {
		mask |= 4 // ControlMask
	}
	if mods&ModAlt != 0 {
		mask |= 8 // Mod1Mask
	}
	if mods&ModSuper != 0 {
		mask |= 64 // Mod4Mask
	}
	return mask
}

// keysymName converts a parsed key into an X keysym name
func keysymName(key string) string {
	switch key {
	case "Space":
		return "space"
	case "Enter":
		return "Return"
	case "Esc":
		return "Escape"
	}
	return key
}

func (m *linuxManager) Register(accel string, callback func(pressed bool)) error {
	a, err := Parse(accel)
	if err != nil {
		return err
	}

	name := C.CString(keysymName(a.Key))
	defer C.free(unsafe.Pointer(name))

	mods := x11Modifiers(a.Modifiers)
	keycode := int(C.grabKey(name, C.uint(mods)))
	if keycode == 0 {
		return fmt.Errorf("failed to grab key %q", accel)
	}

	m.mu.Lock()
	m.callbacks[keycode] = callback
	m.grabs[accel] = grab{keycode: keycode, modifiers: mods}
	m.mu.Unlock()
	return nil
}

func (m *linuxManager) eventLoop() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			var keycode, pressed C.int
			if C.checkEvent(&keycode, &pressed) != 0 {
				m.mu.Lock()
				cb, ok := m.callbacks[int(keycode)]
				m.mu.Unlock()
				if ok {
					cb(pressed == 1)
				}
			}
		}
	}
}

func (m *linuxManager) Unregister(accel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.grabs[accel]
	if !ok {
		return fmt.Errorf("hotkey %q not registered", accel)
	}
	C.ungrabKey(C.int(g.keycode), C.uint(g.modifiers))
	delete(m.grabs, accel)
	delete(m.callbacks, g.keycode)
	return nil
}

func (m *linuxManager) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}
