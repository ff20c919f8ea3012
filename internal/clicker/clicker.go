package clicker

import "context"

// Clicker defines the interface for synthetic mouse input
type Clicker interface {
	// Click presses and releases the left mouse button
	Click(ctx context.Context) error
}
