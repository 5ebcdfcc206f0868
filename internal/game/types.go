package game

type Phase string

const (
	PhaseLobby      Phase = "Lobby"
	PhaseInProgress Phase = "InProgress"
	PhaseFinished   Phase = "Finished"
)

// Questions is the fixed prompt sequence, shared by every session in the
// process. The round index is an index into this slice.
var Questions = []string{
	"Jaký?", "Kdo?", "S kým?", "Kdy?", "Kde?", "Co dělali?", "Proč?",
}

// Player is one roster entry. Seat is the 0-based join-order position and
// never changes for the lifetime of the session; the rotation engine keys
// off it.
type Player struct {
	DeviceID string `json:"deviceId"`
	Seat     int    `json:"seat"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Response is a single recorded answer for one round.
type Response struct {
	DeviceID string `json:"deviceId"`
	Text     string `json:"text"`
}

// DeckEntry pairs a prompt with the answer assigned to a player at reveal.
type DeckEntry struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// Broadcaster is the push transport the core emits events through. The
// core only calls it; delivery is fire-and-forget and failures never feed
// back into session state.
type Broadcaster interface {
	ToRoom(sessionID, event string, payload any)
	ToPlayer(deviceID, event string, payload any)
}

// NopBroadcaster discards every event.
type NopBroadcaster struct{}

func (NopBroadcaster) ToRoom(string, string, any)   {}
func (NopBroadcaster) ToPlayer(string, string, any) {}
