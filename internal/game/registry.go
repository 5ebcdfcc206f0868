package game

import (
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry owns the game-id -> Session mapping. Create never fails: a
// requested id that is taken (or absent) is silently replaced with a
// generated one, so callers must use the id of the returned session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	prompts  []string
	gw       Broadcaster
}

func NewRegistry(gw Broadcaster, prompts []string) *Registry {
	if gw == nil {
		gw = NopBroadcaster{}
	}
	if len(prompts) == 0 {
		prompts = Questions
	}
	return &Registry{
		sessions: make(map[string]*Session),
		prompts:  prompts,
		gw:       gw,
	}
}

// SetBroadcaster swaps the gateway used by sessions created from now on.
// Needed because the socket server and the registry reference each other.
func (reg *Registry) SetBroadcaster(gw Broadcaster) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.gw = gw
}

// Create registers a new lobby-phase session. requestedID is honored only
// when free and non-empty; collisions are resolved, not reported.
func (reg *Registry) Create(requestedID string) *Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	id := requestedID
	if id == "" || reg.sessions[id] != nil {
		id = randomCode(5)
		for reg.sessions[id] != nil {
			id = randomCode(5)
		}
	}

	s := newSession(id, reg.prompts, reg.gw)
	reg.sessions[id] = s
	log.Info().Str("code", id).Msg("session created")
	return s
}

func (reg *Registry) Get(id string) (*Session, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	s := reg.sessions[id]
	if s == nil {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// Remove discards a session; idempotent.
func (reg *Registry) Remove(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.sessions, id)
}

// Leave removes the device from the session and destroys the session once
// its roster is empty.
func (reg *Registry) Leave(sessionID, deviceID string) error {
	s, err := reg.Get(sessionID)
	if err != nil {
		return err
	}
	if s.Leave(deviceID) == 0 {
		reg.Remove(sessionID)
		log.Info().Str("code", sessionID).Msg("session emptied, removed")
	}
	return nil
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.sessions)
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
