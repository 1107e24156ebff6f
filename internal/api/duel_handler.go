package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirevald/backend/internal/constants"
	"github.com/mirevald/backend/internal/game"
	"github.com/mirevald/backend/internal/logging"
	"github.com/mirevald/backend/internal/service"
)

// ChallengeDuel opens a duel waiting for an opponent.
func (h *GameHandler) ChallengeDuel(c *gin.Context) {
	d, err := service.ChallengeDuel(h.repo, currentTelegramID(c), h.now())
	if err != nil {
		h.writeDuelError(c, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyOK: true, constants.JSONKeyID: d.ID})
}

type duelJoinRequest struct {
	ID string `json:"id"`
}

// AcceptDuel joins a waiting duel.
func (h *GameHandler) AcceptDuel(c *gin.Context) {
	var req duelJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMissingDuelID})
		return
	}
	d, err := service.AcceptDuel(h.repo, h.duelLocks, h.rng, req.ID, currentTelegramID(c), h.now())
	if err != nil {
		h.writeDuelError(c, req.ID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyOK: true, constants.JSONKeyID: d.ID})
}

// GetDuel returns the duel state by id. Any authenticated player may
// watch a duel.
func (h *GameHandler) GetDuel(c *gin.Context) {
	id := c.Param("duelID")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMissingDuelID})
		return
	}
	d, err := h.repo.GetDuelByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrDuelNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyOK: true, constants.JSONKeyData: d})
}

type duelActRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// ActDuel applies one duel move for the caller.
func (h *GameHandler) ActDuel(c *gin.Context) {
	var req duelActRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMissingDuelID})
		return
	}
	d, err := service.ActDuel(h.repo, h.duelLocks, h.rng, req.ID, currentTelegramID(c), game.DuelAction(req.Action), h.now())
	if err != nil {
		h.writeDuelError(c, req.ID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyOK: true, constants.JSONKeyData: d})
}

func (h *GameHandler) writeDuelError(c *gin.Context, duelID string, err error) {
	switch err {
	case service.ErrPlayerNotFound:
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrPlayerNotFound})
	case service.ErrDuelNotFound:
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrDuelNotFound})
	case service.ErrDuelStarted:
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrDuelStarted})
	case service.ErrOwnDuel:
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrOwnDuel})
	case service.ErrDuelNotActive:
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrDuelNotActive})
	case service.ErrNoOpponent:
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrNoOpponent})
	case service.ErrNotYourTurn:
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrNotYourTurn})
	default:
		logging.Error("failed to update duel", err, logging.Fields{
			constants.LogFieldPlayerID: currentTelegramID(c),
			constants.LogFieldDuelID:   duelID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedDuelSave})
	}
}
