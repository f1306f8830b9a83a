// Package lobby implements the pre-race lobby lifecycle: members
// joining/leaving, host transfer, settings, and the forward-only status
// machine that hands off to a session engine at race start (spec §4.6).
package lobby

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"racetrack-engine/internal/ids"
	"racetrack-engine/internal/track"
)

// Status is the lobby's forward-only lifecycle state.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusStarting  Status = "starting"
	StatusRacing    Status = "racing"
	StatusFinished  Status = "finished"
	StatusDisbanded Status = "disbanded"
)

// Settings configures the track and race parameters a lobby will use
// when it starts a session.
type Settings struct {
	Difficulty   string
	Seed         *int64
	MaxPlayers   int
	GracePeriod  float64
}

// Member is one participant in a lobby, human or bot.
type Member struct {
	ID       string
	Username string
	IsBot    bool
	BotRef   string
	Ready    bool
}

// Lobby is a single pre-race gathering. All mutation happens under the
// owning Manager's single registry-wide lock; Lobby itself holds no lock.
type Lobby struct {
	ID            string
	JoinCode      string
	Name          string
	HostID        string
	Settings      Settings
	MemberOrder   []string
	Members       map[string]*Member
	Status        Status
	CreatedAt     time.Time
	GameSessionID string
	Track         *track.Track
}

// Snapshot returns an ordered, read-only copy of the lobby's members.
func (l *Lobby) Snapshot() []Member {
	out := make([]Member, 0, len(l.MemberOrder))
	for _, id := range l.MemberOrder {
		if m, ok := l.Members[id]; ok {
			out = append(out, *m)
		}
	}
	return out
}

var (
	// ErrNotFound is returned when a lobby_id has no matching lobby.
	ErrNotFound = fmt.Errorf("lobby: not found")
	// ErrInvalidTransition covers every precondition violation on a
	// lobby operation (wrong status, not host, full, duplicate member).
	ErrInvalidTransition = fmt.Errorf("lobby: invalid transition")
)

// Manager is the process-wide lobby registry, keyed by lobby_id with a
// secondary index by join_code (spec §4.6).
type Manager struct {
	mu        sync.Mutex
	byID      map[string]*Lobby
	byCode    map[string]string
	factory   track.Factory
}

// NewManager returns an empty lobby registry backed by factory for
// track construction at race start.
func NewManager(factory track.Factory) *Manager {
	return &Manager{
		byID:    make(map[string]*Lobby),
		byCode:  make(map[string]string),
		factory: factory,
	}
}

// Create starts a new lobby in Waiting with host as its sole, ready
// member.
func (m *Manager) Create(name, hostID string, settings Settings) *Lobby {
	m.mu.Lock()
	defer m.mu.Unlock()

	if settings.MaxPlayers <= 0 {
		settings.MaxPlayers = 8
	}

	l := &Lobby{
		ID:          ids.New(),
		JoinCode:    m.generateJoinCode(),
		Name:        name,
		HostID:      hostID,
		Settings:    settings,
		MemberOrder: []string{hostID},
		Members:     map[string]*Member{hostID: {ID: hostID, Ready: true}},
		Status:      StatusWaiting,
		CreatedAt:   time.Now(),
	}
	m.byID[l.ID] = l
	m.byCode[l.JoinCode] = l.ID
	return l
}

// Get returns the lobby with id, or ErrNotFound.
func (m *Manager) Get(id string) (*Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return l, nil
}

// GetByCode resolves a human-memorable join code to a lobby.
func (m *Manager) GetByCode(code string) (*Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return m.byID[id], nil
}

// List returns every lobby with the given status (or every lobby if
// status is ""), ordered by created_at descending.
func (m *Manager) List(status Status) []*Lobby {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Lobby, 0, len(m.byID))
	for _, l := range m.byID {
		if status == "" || l.Status == status {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Join adds playerID to the lobby, idempotent if already present.
// Requires the lobby to be Waiting and have room.
func (m *Manager) Join(lobbyID, playerID, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if _, present := l.Members[playerID]; present {
		return nil
	}
	if l.Status != StatusWaiting {
		return ErrInvalidTransition
	}
	if len(l.Members) >= l.Settings.MaxPlayers {
		return ErrInvalidTransition
	}
	l.Members[playerID] = &Member{ID: playerID, Username: username}
	l.MemberOrder = append(l.MemberOrder, playerID)
	return nil
}

// Leave removes playerID. If the host leaves and members remain, the
// first remaining member is promoted; if none remain, the lobby is
// disbanded and removed from the registry (spec §4.6).
func (m *Manager) Leave(lobbyID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if _, present := l.Members[playerID]; !present {
		return nil
	}

	delete(l.Members, playerID)
	l.MemberOrder = removeID(l.MemberOrder, playerID)

	if len(l.MemberOrder) == 0 {
		l.Status = StatusDisbanded
		m.remove(l)
		return nil
	}
	if l.HostID == playerID {
		l.HostID = l.MemberOrder[0]
	}
	return nil
}

// AddBot adds a bot member owned by owner, with id
// "bot-"+owner+"-"+botRef. Requires Waiting status and room; rejects
// duplicates.
func (m *Manager) AddBot(lobbyID, botRef, owner string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[lobbyID]
	if !ok {
		return "", ErrNotFound
	}
	if l.Status != StatusWaiting {
		return "", ErrInvalidTransition
	}
	if len(l.Members) >= l.Settings.MaxPlayers {
		return "", ErrInvalidTransition
	}
	memberID := fmt.Sprintf("bot-%s-%s", owner, botRef)
	if _, present := l.Members[memberID]; present {
		return "", ErrInvalidTransition
	}
	l.Members[memberID] = &Member{ID: memberID, IsBot: true, BotRef: botRef, Ready: true}
	l.MemberOrder = append(l.MemberOrder, memberID)
	return memberID, nil
}

// UpdateSettings requires hostID to be the current host and the lobby
// to be Waiting.
func (m *Manager) UpdateSettings(lobbyID, hostID string, settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if l.Status != StatusWaiting || l.HostID != hostID {
		return ErrInvalidTransition
	}
	l.Settings = settings
	return nil
}

// StartRace requires hostID to be the host, the lobby to be Waiting,
// and at least one member. It builds a track via the configured
// factory, advances the lobby to Starting, and returns the new
// session id and track for the caller to construct a session engine
// with.
func (m *Manager) StartRace(lobbyID, hostID string) (sessionID string, tr *track.Track, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[lobbyID]
	if !ok {
		return "", nil, ErrNotFound
	}
	if l.Status != StatusWaiting || l.HostID != hostID || len(l.Members) == 0 {
		return "", nil, ErrInvalidTransition
	}

	tr, err = m.factory.Build(l.Settings.Difficulty, l.Settings.Seed)
	if err != nil {
		return "", nil, fmt.Errorf("lobby: build track: %w", err)
	}

	l.GameSessionID = ids.New()
	l.Track = tr
	l.Status = StatusStarting
	return l.GameSessionID, tr, nil
}

// TransitionToRacing advances a Starting lobby to Racing once the
// caller has constructed the session engine.
func (m *Manager) TransitionToRacing(lobbyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if l.Status != StatusStarting {
		return ErrInvalidTransition
	}
	l.Status = StatusRacing
	return nil
}

// FinishRace marks a Racing lobby as Finished.
func (m *Manager) FinishRace(lobbyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if l.Status != StatusRacing {
		return ErrInvalidTransition
	}
	l.Status = StatusFinished
	return nil
}

// Reset returns a Finished lobby to Waiting (the one permitted
// backward edge), clearing its race session linkage.
func (m *Manager) Reset(lobbyID, hostID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if l.Status != StatusFinished || l.HostID != hostID {
		return ErrInvalidTransition
	}
	l.Status = StatusWaiting
	l.GameSessionID = ""
	l.Track = nil
	for _, member := range l.Members {
		member.Ready = member.ID == l.HostID
	}
	return nil
}

// Disband requires hostID to be the host and removes the lobby
// unconditionally.
func (m *Manager) Disband(lobbyID, hostID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if l.HostID != hostID {
		return ErrInvalidTransition
	}
	l.Status = StatusDisbanded
	m.remove(l)
	return nil
}

// CleanupStale removes lobbies older than maxAge or already Disbanded.
func (m *Manager) CleanupStale(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, l := range m.byID {
		if l.Status == StatusDisbanded || time.Since(l.CreatedAt) > maxAge {
			m.remove(l)
			removed++
		}
	}
	return removed
}

// remove drops l from both indices. Caller must hold m.mu.
func (m *Manager) remove(l *Lobby) {
	delete(m.byID, l.ID)
	delete(m.byCode, l.JoinCode)
}

func removeID(ids []string, target string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
