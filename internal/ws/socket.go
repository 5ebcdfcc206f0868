package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/pholanek/paperbend/internal/game"
)

// ConnCtx is what we remember about a socket once it has joined a room.
type ConnCtx struct {
	SessionID string
	DeviceID  string
}

// Server is the socket.io side of the game: it owns room membership, maps
// device ids to live connections, and implements game.Broadcaster so the
// core can push events without knowing the transport.
type Server struct {
	reg *game.Registry
	io  *socketio.Server

	mu       sync.RWMutex
	rooms    map[string]map[string]socketio.Conn // sessionID -> socketID -> conn
	byDevice map[string]socketio.Conn
}

func New() *Server {
	return &Server{
		rooms:    make(map[string]map[string]socketio.Conn),
		byDevice: make(map[string]socketio.Conn),
	}
}

// SetRegistry wires the core in; required before Mount so that abrupt
// disconnects can be turned into leaves.
func (srv *Server) SetRegistry(reg *game.Registry) { srv.reg = reg }

// Mount attaches the Socket.IO server with its handlers to the given Gin
// engine and returns it so the caller can Close on shutdown.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.io = io

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// A client announces which game and device it is after the REST join
	// handed it a device id.
	io.OnEvent("/", "join", func(s socketio.Conn, payload struct {
		GameID   string `json:"game_id"`
		DeviceID string `json:"device_id"`
	}) {
		if payload.GameID == "" || payload.DeviceID == "" {
			return
		}
		s.SetContext(&ConnCtx{SessionID: payload.GameID, DeviceID: payload.DeviceID})
		s.Join(payload.GameID)
		srv.track(payload.GameID, payload.DeviceID, s)
		log.Info().Str("sid", s.ID()).Str("code", payload.GameID).Str("deviceId", payload.DeviceID).Msg("joined room")
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		ctx, _ := s.Context().(*ConnCtx)
		if ctx != nil && ctx.SessionID != "" {
			srv.untrack(ctx.SessionID, ctx.DeviceID, s)
			// A dropped connection counts as leaving the game.
			if srv.reg != nil {
				_ = srv.reg.Leave(ctx.SessionID, ctx.DeviceID)
			}
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// ToRoom implements game.Broadcaster.
func (srv *Server) ToRoom(sessionID, event string, payload any) {
	if srv.io == nil {
		return
	}
	srv.io.BroadcastToRoom("/", sessionID, event, payload)
}

// ToPlayer implements game.Broadcaster.
func (srv *Server) ToPlayer(deviceID, event string, payload any) {
	srv.mu.RLock()
	c := srv.byDevice[deviceID]
	srv.mu.RUnlock()
	if c != nil {
		c.Emit(event, payload)
	}
}

func (srv *Server) track(sessionID, deviceID string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.rooms[sessionID] == nil {
		srv.rooms[sessionID] = make(map[string]socketio.Conn)
	}
	srv.rooms[sessionID][c.ID()] = c
	srv.byDevice[deviceID] = c
}

func (srv *Server) untrack(sessionID, deviceID string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.rooms[sessionID]; m != nil {
		delete(m, c.ID())
		if len(m) == 0 {
			delete(srv.rooms, sessionID)
		}
	}
	if cur := srv.byDevice[deviceID]; cur != nil && cur.ID() == c.ID() {
		delete(srv.byDevice, deviceID)
	}
}
