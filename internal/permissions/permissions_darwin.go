//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation -framework ApplicationServices -framework Cocoa
#import <AVFoundation/AVFoundation.h>
#import <Cocoa/Cocoa.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}

int checkAccessibilityPermission() {
    NSDictionary *options = @{(__bridge id)kAXTrustedCheckOptionPrompt: @YES};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}
*/
import "C"

import (
	"errors"
	"fmt"
)

const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

var (
	ErrMicrophone    = errors.New("audio input permission not granted")
	ErrAccessibility = errors.New("accessibility permission not granted")
)

// EnsurePermissions checks the two grants the bot needs on macOS: audio
// input, since loopback devices such as BlackHole appear as inputs, and
// accessibility, for synthetic clicks and the global hotkey. Missing grants
// trigger the system prompts and are all reported at once.
func EnsurePermissions() error {
	var errs []error

	switch status := int(C.checkMicrophonePermission()); status {
	case PermissionAuthorized:
	case PermissionNotDetermined:
		C.requestMicrophonePermission()
		errs = append(errs, fmt.Errorf("%w: approve the prompt and restart", ErrMicrophone))
	default:
		errs = append(errs, fmt.Errorf("%w: enable it in System Settings > Privacy & Security > Microphone", ErrMicrophone))
	}

	// The check itself shows the prompt when access is missing
	if C.checkAccessibilityPermission() != 1 {
		errs = append(errs, fmt.Errorf("%w: enable it in System Settings > Privacy & Security > Accessibility", ErrAccessibility))
	}

	return errors.Join(errs...)
}
