package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/requestdata"
	"github.com/fitlio/coach-backend/internal/services"
)

// CoachHandler is the HTTP boundary of the conversation pipeline.
type CoachHandler struct {
	log     *logger.Logger
	turns   services.TurnService
	names   services.NameService
	catalog *services.CoachCatalog
}

func NewCoachHandler(log *logger.Logger, turns services.TurnService, names services.NameService, catalog *services.CoachCatalog) *CoachHandler {
	return &CoachHandler{
		log:     log.With("handler", "CoachHandler"),
		turns:   turns,
		names:   names,
		catalog: catalog,
	}
}

type coachEventRequest struct {
	CoachID string      `json:"coach_id"`
	Event   types.Event `json:"event"`
}

// HandleEvent runs one conversation turn. The reply also goes out over the
// realtime stream; the HTTP response is for clients that prefer polling.
func (h *CoachHandler) HandleEvent(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req coachEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	coachID := strings.TrimSpace(req.CoachID)
	if coachID == "" {
		coachID = rd.CoachID
	}
	if req.Event.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event type required"})
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context(), Tx: rd.Conn}
	result, err := h.turns.HandleEvent(dbc, rd.UserID, coachID, req.Event)
	if err != nil {
		h.log.Error("turn failed", "user_id", rd.UserID, "coach_id", coachID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "coach is unavailable, try again"})
		return
	}
	c.JSON(http.StatusOK, result)
}

type setNameRequest struct {
	CoachID string `json:"coach_id"`
	Name    string `json:"name"`
}

// SetName stores the user's answer to the name prompt.
func (h *CoachHandler) SetName(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req setNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	coachID := strings.TrimSpace(req.CoachID)
	if coachID == "" {
		coachID = rd.CoachID
	}

	dbc := dbctx.Context{Ctx: c.Request.Context(), Tx: rd.Conn}
	h.names.PersistName(dbc, rd.UserID, coachID, name)
	c.JSON(http.StatusOK, gin.H{"name": name})
}

// ListCoaches exposes the configured personas.
func (h *CoachHandler) ListCoaches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"coaches": h.catalog.List()})
}
