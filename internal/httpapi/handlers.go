package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/pholanek/paperbend/internal/config"
	"github.com/pholanek/paperbend/internal/game"
	"github.com/pholanek/paperbend/internal/netutil"
)

type API struct {
	reg *game.Registry
	cfg config.Config
}

func New(reg *game.Registry, cfg config.Config) *API {
	return &API{reg: reg, cfg: cfg}
}

func (a *API) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/", a.index)

	r.POST("/api/games", a.createGame)
	r.POST("/api/games/:id/join", a.joinGame)
	r.POST("/api/games/:id/start", a.startGame)
	r.POST("/api/games/:id/answers", a.submitAnswer)
	r.POST("/api/games/:id/leave", a.leaveGame)
	r.GET("/api/games/:id/qr", a.joinQR)
}

func (a *API) createGame(c *gin.Context) {
	var req struct {
		GameID string `json:"gameId"`
	}
	_ = c.ShouldBindJSON(&req) // empty body means a generated id

	s := a.reg.Create(req.GameID)
	c.JSON(http.StatusCreated, gin.H{"gameId": s.ID})
}

func (a *API) joinGame(c *gin.Context) {
	var req struct {
		IsAdmin bool `json:"isAdmin"`
	}
	_ = c.ShouldBindJSON(&req)

	s, err := a.reg.Get(c.Param("id"))
	if err != nil {
		abortGameErr(c, err)
		return
	}
	deviceID, prompt, count, err := s.Join(req.IsAdmin)
	if err != nil {
		abortGameErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deviceId":        deviceID,
		"currentQuestion": prompt,
		"playerCount":     count,
	})
}

func (a *API) startGame(c *gin.Context) {
	var req struct {
		DeviceID string `json:"deviceId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}
	s, err := a.reg.Get(c.Param("id"))
	if err != nil {
		abortGameErr(c, err)
		return
	}
	// Non-admin starts are deliberately not an error.
	s.Start(req.DeviceID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) submitAnswer(c *gin.Context) {
	var req struct {
		DeviceID string `json:"deviceId"`
		Response string `json:"response"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}
	s, err := a.reg.Get(c.Param("id"))
	if err != nil {
		abortGameErr(c, err)
		return
	}
	if err := s.Submit(req.DeviceID, req.Response); err != nil {
		abortGameErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) leaveGame(c *gin.Context) {
	var req struct {
		DeviceID string `json:"deviceId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}
	// Leaving a game that is already gone is fine.
	_ = a.reg.Leave(c.Param("id"), req.DeviceID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) joinQR(c *gin.Context) {
	id := c.Param("id")
	if _, err := a.reg.Get(id); err != nil {
		abortGameErr(c, err)
		return
	}
	png, err := qrcode.Encode(a.joinURL(id), qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr_failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (a *API) baseURL() string {
	if a.cfg.PublicURL != "" {
		return a.cfg.PublicURL
	}
	return fmt.Sprintf("http://%s:%s", netutil.LocalIP(), a.cfg.Port)
}

func (a *API) joinURL(gameID string) string {
	return a.baseURL() + "/?game=" + gameID
}

func abortGameErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrUnknownSession):
		c.JSON(http.StatusNotFound, gin.H{"error": "game_not_found"})
	case errors.Is(err, game.ErrAlreadyStarted):
		c.JSON(http.StatusConflict, gin.H{"error": "already_started"})
	case errors.Is(err, game.ErrNotAPlayer):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_a_player"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
