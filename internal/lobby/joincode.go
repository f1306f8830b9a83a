package lobby

import (
	"fmt"
	"math/rand"
	"strings"

	"racetrack-engine/internal/ids"
)

var joinCodeAdjectives = []string{
	"swift", "crimson", "turbo", "silent", "rusty", "blazing", "golden",
	"shadow", "electric", "iron", "velvet", "frozen", "neon", "rapid",
}

var joinCodeNouns = []string{
	"falcon", "viper", "comet", "piston", "drift", "circuit", "rocket",
	"panther", "engine", "hornet", "tiger", "storm", "rider", "blaze",
}

const maxJoinCodeAttempts = 10

// generateJoinCode produces a human-memorable ADJECTIVE-NOUN-NN code,
// retrying on collision with the registry's existing codes up to
// maxJoinCodeAttempts times before falling back to an id-derived
// LOBBY-<suffix> code (spec §4.6). Caller must hold m.mu.
func (m *Manager) generateJoinCode() string {
	for attempt := 0; attempt < maxJoinCodeAttempts; attempt++ {
		adj := joinCodeAdjectives[rand.Intn(len(joinCodeAdjectives))]
		noun := joinCodeNouns[rand.Intn(len(joinCodeNouns))]
		code := fmt.Sprintf("%s-%s-%02d", adj, noun, rand.Intn(100))
		if _, collides := m.byCode[code]; !collides {
			return code
		}
	}
	suffix := strings.ToUpper(ids.New())
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return "LOBBY-" + suffix
}
