package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirevald/backend/internal/constants"
	"github.com/mirevald/backend/internal/dedupe"
	"github.com/mirevald/backend/internal/service"
)

// GetMe returns the caller's profile with lazily regenerated energy.
func (h *GameHandler) GetMe(c *gin.Context) {
	p, err := service.GetProfile(h.repo, h.cfg.Energy, currentTelegramID(c), h.now())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrPlayerNotFound})
		return
	}
	c.JSON(http.StatusOK, p)
}

type renameRequest struct {
	Name string `json:"name"`
}

// UpdatePlayerName sets the caller's in-game display name.
func (h *GameHandler) UpdatePlayerName(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	p, err := service.RenamePlayer(h.repo, currentTelegramID(c), req.Name)
	if err != nil {
		switch err {
		case service.ErrInvalidName:
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidName})
		case service.ErrPlayerNotFound:
			c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrPlayerNotFound})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchPlayer})
		}
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListMonsters serves the hunt catalog from the loaded configuration.
func (h *GameHandler) ListMonsters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyData: h.cfg.Monsters})
}

// ListArenaOpponents serves the arena catalog from the loaded configuration.
func (h *GameHandler) ListArenaOpponents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyData: h.cfg.ArenaOpponents})
}

// ListLeaderboard returns the top players by level. Concurrent requests
// for the same limit collapse into a single query.
func (h *GameHandler) ListLeaderboard(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	key := fmt.Sprintf("players:%d", limit)
	res, err, _ := dedupe.LeaderboardGroup.Do(key, func() (interface{}, error) {
		return h.repo.GetTopPlayers(limit)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchLeaderboard})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyData: res})
}
