// Package ids centralizes identifier generation so every session,
// player, and lobby id in the engine comes from one place.
package ids

import "github.com/google/uuid"

// New returns a fresh random identifier suitable for sessions, players,
// and lobbies.
func New() string {
	return uuid.New().String()
}
