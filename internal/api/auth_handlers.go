package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/mirevald/backend/internal/constants"
	"github.com/mirevald/backend/internal/logging"
	"github.com/mirevald/backend/internal/service"
	"github.com/mirevald/backend/internal/telegram"
)

type verifyRequest struct {
	InitData string `json:"init_data"`
}

// VerifyAuth exchanges Telegram init data for a session token. The
// client then sends the token as a Bearer header instead of re-signing
// every request through Telegram.
func (h *GameHandler) VerifyAuth(c *gin.Context) {
	initData := c.GetHeader(constants.HeaderTelegramInit)
	if initData == "" {
		var req verifyRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			initData = req.InitData
		}
	}
	if initData == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMissingInit})
		return
	}

	botToken := os.Getenv(constants.EnvTelegramBotToken)
	if botToken == "" {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrServerConfig})
		return
	}
	u, err := telegram.VerifyInitData(initData, botToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrBadSignature})
		return
	}

	p, err := service.EnsurePlayer(h.repo, h.cfg.Energy, u.TelegramID(), u.DisplayName(), h.now())
	if err != nil {
		logging.Error("failed to upsert player on auth", err, logging.Fields{constants.LogFieldPlayerID: u.TelegramID()})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchPlayer})
		return
	}

	token, err := createSessionToken(p.TelegramID, p.Name, sessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrServerConfig})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "player": p})
}
