// Package api exposes the CRUD surface around the game core: games
// and templates by id, join-by-access-code lookup, and media uploads.
// The realtime surface lives in internal/ws.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizboard/internal/config"
	"quizboard/internal/game"
)

type Handler struct {
	mgr    *game.Manager
	config config.Config
}

func New(mgr *game.Manager, cfg config.Config) *Handler {
	return &Handler{mgr: mgr, config: cfg}
}

// Register mounts all REST routes. When admin credentials are
// configured, mutating routes sit behind basic auth.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/games", h.listGames)
	api.GET("/games/join", h.joinByCode)
	api.GET("/games/:id", h.getGame)
	api.GET("/templates", h.listTemplates)
	api.GET("/templates/:id", h.getTemplate)

	admin := api.Group("")
	if h.config.AdminUser != "" && h.config.AdminPass != "" {
		admin.Use(gin.BasicAuth(gin.Accounts{h.config.AdminUser: h.config.AdminPass}))
	}
	admin.POST("/games", h.createGame)
	admin.PUT("/games/:id", h.updateGame)
	admin.DELETE("/games/:id", h.deleteGame)
	admin.POST("/games/:id/template", h.saveTemplate)
	admin.POST("/templates", h.createTemplate)
	admin.PUT("/templates/:id", h.updateTemplate)
	admin.DELETE("/templates/:id", h.deleteTemplate)
	admin.POST("/upload", h.upload)
	admin.DELETE("/upload", h.deleteUpload)
}

func (h *Handler) listGames(c *gin.Context) {
	c.JSON(http.StatusOK, h.mgr.Games())
}

type createGameReq struct {
	Name       string         `json:"name"`
	TemplateID string         `json:"templateId"`
	Settings   *game.Settings `json:"settings"`
}

func (h *Handler) createGame(c *gin.Context) {
	var req createGameReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	g, err := h.mgr.CreateGame(req.Name, req.TemplateID, req.Settings)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) getGame(c *gin.Context) {
	g, err := h.mgr.Game(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) updateGame(c *gin.Context) {
	var upd game.GameUpdate
	if err := c.BindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	g, err := h.mgr.UpdateGame(c.Param("id"), upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) deleteGame(c *gin.Context) {
	if err := h.mgr.DeleteGame(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// joinByCode resolves an access code to a game id. The access code is
// the only thing players type in, so this is the one NotFound that is
// surfaced as a user-visible error.
func (h *Handler) joinByCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Access code required"})
		return
	}
	g, err := h.mgr.GameByCode(code)
	if errors.Is(err, game.ErrGameEnded) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game has ended"})
		return
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"gameId": g.ID})
}

func (h *Handler) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, h.mgr.Templates())
}

type createTemplateReq struct {
	Name       string           `json:"name"`
	Categories []*game.Category `json:"categories"`
}

func (h *Handler) createTemplate(c *gin.Context) {
	var req createTemplateReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	t, err := h.mgr.CreateTemplate(req.Name, req.Categories)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) getTemplate(c *gin.Context) {
	t, err := h.mgr.GetTemplate(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) updateTemplate(c *gin.Context) {
	var upd game.TemplateUpdate
	if err := c.BindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	t, err := h.mgr.UpdateTemplate(c.Param("id"), upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) deleteTemplate(c *gin.Context) {
	if err := h.mgr.DeleteTemplate(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type saveTemplateReq struct {
	Name string `json:"name"`
}

func (h *Handler) saveTemplate(c *gin.Context) {
	var req saveTemplateReq
	_ = c.BindJSON(&req)
	t, err := h.mgr.SaveTemplateFromGame(c.Param("id"), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
	case errors.Is(err, game.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
	case errors.Is(err, game.ErrTooManyCategories):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many categories"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
