package game

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrAlreadyStarted = errors.New("game already started")
	ErrNotAPlayer     = errors.New("not a player in this game")
)

// Session is the state machine for a single playthrough. All mutating
// operations take s.mu; operations on different sessions are independent.
type Session struct {
	ID string

	prompts []string
	gw      Broadcaster

	mu        sync.Mutex
	roster    []Player
	admin     string // deviceID of the first admin-flagged joiner, never cleared
	phase     Phase
	roundIx   int
	responses map[int][]Response
	submitted map[string]struct{}
	nextSeat  int
}

func newSession(id string, prompts []string, gw Broadcaster) *Session {
	if gw == nil {
		gw = NopBroadcaster{}
	}
	return &Session{
		ID:        id,
		prompts:   prompts,
		gw:        gw,
		phase:     PhaseLobby,
		responses: make(map[int][]Response),
		submitted: make(map[string]struct{}),
	}
}

// Join adds a new player to the roster and mints its device identifier.
// Only the first joiner asking for admin gets it. Fails once the lobby has
// closed.
func (s *Session) Join(isAdmin bool) (deviceID, prompt string, playerCount int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return "", "", 0, ErrAlreadyStarted
	}

	deviceID = uuid.NewString()
	s.roster = append(s.roster, Player{DeviceID: deviceID, Seat: s.nextSeat, IsAdmin: isAdmin && s.admin == ""})
	s.nextSeat++
	if isAdmin && s.admin == "" {
		s.admin = deviceID
	}

	s.gw.ToRoom(s.ID, "player_update", map[string]any{
		"sessionId":   s.ID,
		"playerCount": len(s.roster),
		"admin":       s.admin,
	})

	log.Info().Str("code", s.ID).Str("deviceId", deviceID).Int("players", len(s.roster)).Msg("player joined")
	return deviceID, s.prompts[s.roundIx], len(s.roster), nil
}

// Start moves the session out of the lobby. Only the admin may start;
// anyone else (or a repeated start) is a silent no-op rather than an
// error, so client retries stay harmless.
func (s *Session) Start(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby || deviceID == "" || deviceID != s.admin {
		return
	}
	s.phase = PhaseInProgress
	s.gw.ToRoom(s.ID, "game_started", map[string]any{"sessionId": s.ID})
	log.Info().Str("code", s.ID).Int("players", len(s.roster)).Msg("game started")
}

// Submit records one answer for the current round. A device that already
// answered this round is a no-op. When the last rostered player answers,
// the barrier trips: either the next prompt goes out, or on the final
// round the decks are rotated and revealed.
func (s *Session) Submit(deviceID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.onRosterLocked(deviceID) {
		return ErrNotAPlayer
	}
	// Answers only count while a round is open. A submit that races the
	// final barrier (or arrives before the start) is dropped, not failed.
	if s.phase != PhaseInProgress {
		return nil
	}
	if _, dup := s.submitted[deviceID]; dup {
		return nil
	}

	s.responses[s.roundIx] = append(s.responses[s.roundIx], Response{DeviceID: deviceID, Text: text})
	s.submitted[deviceID] = struct{}{}

	if !s.barrierLocked() {
		// Everyone who already answered is stuck waiting on the rest.
		for id := range s.submitted {
			s.gw.ToPlayer(id, "waiting", map[string]any{})
		}
	}
	return nil
}

// Leave removes the device from the roster and purges its answers from
// every round, past and future. The departure may complete the current
// round if everyone still rostered has already answered. Admin is never
// reassigned. Returns the remaining player count so the registry can reap
// empty sessions.
func (s *Session) Leave(deviceID string) (remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	roster := s.roster[:0]
	for _, p := range s.roster {
		if p.DeviceID == deviceID {
			found = true
			continue
		}
		roster = append(roster, p)
	}
	s.roster = roster
	if !found {
		return len(s.roster)
	}

	delete(s.submitted, deviceID)
	for r, list := range s.responses {
		kept := list[:0]
		for _, resp := range list {
			if resp.DeviceID != deviceID {
				kept = append(kept, resp)
			}
		}
		s.responses[r] = kept
	}

	s.gw.ToRoom(s.ID, "player_update", map[string]any{
		"sessionId":   s.ID,
		"playerCount": len(s.roster),
		"admin":       s.admin,
	})
	log.Info().Str("code", s.ID).Str("deviceId", deviceID).Int("players", len(s.roster)).Msg("player left")

	if s.phase == PhaseInProgress && len(s.roster) > 0 {
		s.barrierLocked()
	}
	return len(s.roster)
}

// barrierLocked checks whether every rostered player has answered the
// current round and, if so, advances the round or finishes the game.
// Non-blocking test-and-act; reports whether the barrier tripped.
func (s *Session) barrierLocked() bool {
	if len(s.roster) == 0 || len(s.submitted) < len(s.roster) {
		return false
	}
	s.submitted = make(map[string]struct{})

	if s.roundIx+1 < len(s.prompts) {
		s.roundIx++
		s.gw.ToRoom(s.ID, "question_update", map[string]any{"prompt": s.prompts[s.roundIx]})
		log.Info().Str("code", s.ID).Int("round", s.roundIx).Msg("round advanced")
		return true
	}

	s.phase = PhaseFinished
	decks := Rotate(s.responses, s.roster, s.prompts)
	s.gw.ToRoom(s.ID, "game_over", map[string]any{"decks": decks})
	log.Info().Str("code", s.ID).Int("players", len(s.roster)).Msg("game over")
	return true
}

func (s *Session) onRosterLocked(deviceID string) bool {
	for _, p := range s.roster {
		if p.DeviceID == deviceID {
			return true
		}
	}
	return false
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) RoundIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roundIx
}

func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.roster)
}

func (s *Session) Admin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admin
}

// CurrentPrompt returns the prompt for the round in progress.
func (s *Session) CurrentPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[s.roundIx]
}

// Players returns a copy of the roster in join order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Player, len(s.roster))
	copy(out, s.roster)
	return out
}

// SubmittedCount reports how many players have answered the current round.
func (s *Session) SubmittedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submitted)
}

// Responses returns a copy of the recorded answers for one round.
func (s *Session) Responses(round int) []Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Response, len(s.responses[round]))
	copy(out, s.responses[round])
	return out
}
