package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrompts = []string{"Q0", "Q1", "Q2"}

type recordedEvent struct {
	Event   string
	Payload any
}

// mockBroadcaster collects events instead of pushing them over sockets.
type mockBroadcaster struct {
	mu     sync.Mutex
	room   map[string][]recordedEvent
	player map[string][]recordedEvent
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{
		room:   make(map[string][]recordedEvent),
		player: make(map[string][]recordedEvent),
	}
}

func (mb *mockBroadcaster) ToRoom(sessionID, event string, payload any) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.room[sessionID] = append(mb.room[sessionID], recordedEvent{event, payload})
}

func (mb *mockBroadcaster) ToPlayer(deviceID, event string, payload any) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.player[deviceID] = append(mb.player[deviceID], recordedEvent{event, payload})
}

func (mb *mockBroadcaster) roomEvents(sessionID, event string) []recordedEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []recordedEvent
	for _, ev := range mb.room[sessionID] {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

func (mb *mockBroadcaster) playerEvents(deviceID, event string) int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	n := 0
	for _, ev := range mb.player[deviceID] {
		if ev.Event == event {
			n++
		}
	}
	return n
}

func setupSession(t *testing.T, players int) (*Session, []string, *mockBroadcaster) {
	t.Helper()
	mb := newMockBroadcaster()
	s := newSession("TEST1", testPrompts, mb)

	ids := make([]string, players)
	for i := range ids {
		id, prompt, count, err := s.Join(i == 0) // first joiner is admin
		require.NoError(t, err)
		require.Equal(t, testPrompts[0], prompt)
		require.Equal(t, i+1, count)
		ids[i] = id
	}
	return s, ids, mb
}

func TestJoinAssignsSeatsAndAdmin(t *testing.T) {
	s, ids, mb := setupSession(t, 3)

	require.Equal(t, ids[0], s.Admin())
	for i, p := range s.Players() {
		assert.Equal(t, ids[i], p.DeviceID)
		assert.Equal(t, i, p.Seat)
		assert.Equal(t, i == 0, p.IsAdmin)
	}

	updates := mb.roomEvents("TEST1", "player_update")
	require.Len(t, updates, 3)
	last := updates[2].Payload.(map[string]any)
	assert.Equal(t, 3, last["playerCount"])
	assert.Equal(t, ids[0], last["admin"])
}

func TestAdminIsFirstComeOnly(t *testing.T) {
	mb := newMockBroadcaster()
	s := newSession("TEST1", testPrompts, mb)

	first, _, _, err := s.Join(true)
	require.NoError(t, err)
	_, _, _, err = s.Join(true) // second admin request is ignored
	require.NoError(t, err)

	assert.Equal(t, first, s.Admin())
}

func TestJoinAfterStartFails(t *testing.T) {
	s, ids, _ := setupSession(t, 2)
	s.Start(ids[0])

	_, _, _, err := s.Join(false)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Equal(t, 2, s.PlayerCount())
}

func TestStartIsAdminOnly(t *testing.T) {
	s, ids, mb := setupSession(t, 2)

	s.Start(ids[1]) // not the admin: silent no-op
	assert.Equal(t, PhaseLobby, s.Phase())
	assert.Empty(t, mb.roomEvents("TEST1", "game_started"))

	s.Start(ids[0])
	assert.Equal(t, PhaseInProgress, s.Phase())

	s.Start(ids[0]) // repeated start does not re-announce
	assert.Len(t, mb.roomEvents("TEST1", "game_started"), 1)
}

func TestSubmitFromStrangerFails(t *testing.T) {
	s, ids, _ := setupSession(t, 2)
	s.Start(ids[0])

	err := s.Submit("not-a-device", "hello")
	assert.ErrorIs(t, err, ErrNotAPlayer)
	assert.Zero(t, s.SubmittedCount())
}

func TestSubmitIsIdempotent(t *testing.T) {
	s, ids, _ := setupSession(t, 2)
	s.Start(ids[0])

	require.NoError(t, s.Submit(ids[0], "first words"))
	require.NoError(t, s.Submit(ids[0], "second try"))

	resp := s.Responses(0)
	require.Len(t, resp, 1)
	assert.Equal(t, "first words", resp[0].Text)
	assert.Equal(t, 1, s.SubmittedCount())
	assert.Equal(t, 0, s.RoundIndex())
}

func TestSubmitBeforeStartIsDropped(t *testing.T) {
	s, ids, _ := setupSession(t, 2)

	require.NoError(t, s.Submit(ids[0], "too eager"))
	assert.Empty(t, s.Responses(0))
	assert.Zero(t, s.SubmittedCount())
}

func TestSubmitAfterFinishIsDropped(t *testing.T) {
	s, ids, _ := setupSession(t, 1)
	s.Start(ids[0])
	for range testPrompts {
		require.NoError(t, s.Submit(ids[0], "a"))
	}
	require.Equal(t, PhaseFinished, s.Phase())

	require.NoError(t, s.Submit(ids[0], "late retry"))
	assert.Len(t, s.Responses(len(testPrompts)-1), 1)
}

func TestWaitingGoesToThoseWhoAnswered(t *testing.T) {
	s, ids, mb := setupSession(t, 3)
	s.Start(ids[0])

	require.NoError(t, s.Submit(ids[1], "done"))

	assert.Equal(t, 1, mb.playerEvents(ids[1], "waiting"))
	assert.Zero(t, mb.playerEvents(ids[0], "waiting"))
	assert.Zero(t, mb.playerEvents(ids[2], "waiting"))
}

func TestBarrierAdvancesRound(t *testing.T) {
	s, ids, mb := setupSession(t, 2)
	s.Start(ids[0])

	require.NoError(t, s.Submit(ids[0], "a"))
	assert.Equal(t, 0, s.RoundIndex())

	require.NoError(t, s.Submit(ids[1], "b"))
	assert.Equal(t, 1, s.RoundIndex())
	assert.Zero(t, s.SubmittedCount(), "submitted must clear on round transition")

	qs := mb.roomEvents("TEST1", "question_update")
	require.Len(t, qs, 1)
	assert.Equal(t, testPrompts[1], qs[0].Payload.(map[string]any)["prompt"])
}

func TestSubmittedNeverExceedsRoster(t *testing.T) {
	s, ids, _ := setupSession(t, 2)
	s.Start(ids[0])

	for range testPrompts {
		for _, id := range ids {
			require.NoError(t, s.Submit(id, "x"))
			require.LessOrEqual(t, s.SubmittedCount(), s.PlayerCount())
		}
	}
}

func TestFullGameRevealsOnce(t *testing.T) {
	s, ids, mb := setupSession(t, 2)
	s.Start(ids[0])

	for range testPrompts {
		for _, id := range ids {
			require.NoError(t, s.Submit(id, "answer"))
		}
	}

	assert.Equal(t, PhaseFinished, s.Phase())

	overs := mb.roomEvents("TEST1", "game_over")
	require.Len(t, overs, 1, "game_over must fire exactly once")
	decks := overs[0].Payload.(map[string]any)["decks"].(map[string][]DeckEntry)
	require.Len(t, decks, 2)
	for _, id := range ids {
		assert.Len(t, decks[id], len(testPrompts))
	}

	// Rounds 1 and 2 announce new prompts; nothing after the last round.
	assert.Len(t, mb.roomEvents("TEST1", "question_update"), len(testPrompts)-1)
}

func TestLeavePurgesAllResponses(t *testing.T) {
	s, ids, mb := setupSession(t, 3)
	s.Start(ids[0])

	for _, id := range ids {
		require.NoError(t, s.Submit(id, "r0"))
	}
	require.NoError(t, s.Submit(ids[2], "r1"))

	remaining := s.Leave(ids[2])
	assert.Equal(t, 2, remaining)

	for round := range testPrompts {
		for _, resp := range s.Responses(round) {
			assert.NotEqual(t, ids[2], resp.DeviceID)
		}
	}

	// Roster change is announced; admin is untouched.
	updates := mb.roomEvents("TEST1", "player_update")
	last := updates[len(updates)-1].Payload.(map[string]any)
	assert.Equal(t, 2, last["playerCount"])
	assert.Equal(t, ids[0], s.Admin())
}

func TestAdminLeavingKeepsAdmin(t *testing.T) {
	s, ids, _ := setupSession(t, 2)

	s.Leave(ids[0])
	// Stale by design: the slot is never reassigned.
	assert.Equal(t, ids[0], s.Admin())
}

func TestLeaveOfStragglerCompletesRound(t *testing.T) {
	s, ids, mb := setupSession(t, 3)
	s.Start(ids[0])

	require.NoError(t, s.Submit(ids[0], "a"))
	require.NoError(t, s.Submit(ids[1], "b"))
	assert.Equal(t, 0, s.RoundIndex())

	// The only player yet to answer walks away; the rest were done.
	s.Leave(ids[2])
	assert.Equal(t, 1, s.RoundIndex())
	assert.Len(t, mb.roomEvents("TEST1", "question_update"), 1)
}

func TestLeaveUnknownDeviceIsNoop(t *testing.T) {
	s, _, mb := setupSession(t, 2)

	before := len(mb.roomEvents("TEST1", "player_update"))
	assert.Equal(t, 2, s.Leave("nobody"))
	assert.Len(t, mb.roomEvents("TEST1", "player_update"), before)
}

func TestSinglePlayerGame(t *testing.T) {
	s, ids, mb := setupSession(t, 1)
	s.Start(ids[0])

	for i := range testPrompts {
		require.NoError(t, s.Submit(ids[0], testPrompts[i]+" answer"))
	}

	overs := mb.roomEvents("TEST1", "game_over")
	require.Len(t, overs, 1)
	decks := overs[0].Payload.(map[string]any)["decks"].(map[string][]DeckEntry)
	deck := decks[ids[0]]
	require.Len(t, deck, len(testPrompts))
	for i, e := range deck {
		// With one seat every offset maps back to the author.
		assert.Equal(t, testPrompts[i]+" answer", e.Answer)
	}
}

func TestConcurrentSubmitsStayConsistent(t *testing.T) {
	s, ids, mb := setupSession(t, 4)
	s.Start(ids[0])

	for range testPrompts {
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				// Retries from flaky clients arrive as duplicates.
				_ = s.Submit(id, "answer from "+id)
				_ = s.Submit(id, "retry from "+id)
			}(id)
		}
		wg.Wait()
	}

	assert.Equal(t, PhaseFinished, s.Phase())
	assert.Len(t, mb.roomEvents("TEST1", "game_over"), 1)
}
