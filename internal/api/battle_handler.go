package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mirevald/backend/internal/battle"
	"github.com/mirevald/backend/internal/constants"
	"github.com/mirevald/backend/internal/game"
	"github.com/mirevald/backend/internal/logging"
	"github.com/mirevald/backend/internal/service"
)

type battleRequest struct {
	OpponentID string `json:"opponent_id"`
}

type dmgTaken struct {
	Player   int `json:"player"`
	Opponent int `json:"opponent"`
}

// battleResponse is the payload shape the Mini App renders after a hunt
// or arena fight.
type battleResponse struct {
	WinnerPlayerID      string         `json:"winnerPlayerId"`
	LoserPlayerID       string         `json:"loserPlayerId"`
	Turns               int            `json:"turns"`
	DamageDealtByWinner int            `json:"damageDealtByWinner"`
	LootGold            int            `json:"lootGold"`
	EndedAt             time.Time      `json:"endedAt"`
	Log                 []string       `json:"log"`
	DmgTaken            dmgTaken       `json:"dmgTaken"`
	Rewards             battle.Rewards `json:"rewards"`
	Player              *game.Player   `json:"player"`
	LevelsGained        int            `json:"levels_gained"`
}

func buildBattleResponse(out *service.HuntOutcome, endedAt time.Time) battleResponse {
	res := out.Result
	winnerID, loserID := out.Player.TelegramID, out.OpponentID
	dealtByWinner := res.PlayerStats.DmgDealt
	if res.Winner == battle.WinnerOpponent {
		winnerID, loserID = out.OpponentID, out.Player.TelegramID
		dealtByWinner = res.OpponentStats.DmgDealt
	}
	return battleResponse{
		WinnerPlayerID:      winnerID,
		LoserPlayerID:       loserID,
		Turns:               res.Turns,
		DamageDealtByWinner: dealtByWinner,
		LootGold:            res.Rewards.Gold,
		EndedAt:             endedAt,
		Log:                 res.Log,
		DmgTaken:            dmgTaken{Player: res.PlayerStats.DmgTaken, Opponent: res.OpponentStats.DmgTaken},
		Rewards:             res.Rewards,
		Player:              out.Player,
		LevelsGained:        out.LevelsGained,
	}
}

// ResolveBattle runs one monster hunt and returns the battle payload
// together with the updated player.
func (h *GameHandler) ResolveBattle(c *gin.Context) {
	var req battleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OpponentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	now := h.now()
	out, err := service.ResolveHunt(h.repo, h.sim, h.cfg, currentTelegramID(c), req.OpponentID, now)
	if err != nil {
		h.writeBattleError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildBattleResponse(out, now))
}

// ArenaFight runs one arena fight against a configured opponent.
func (h *GameHandler) ArenaFight(c *gin.Context) {
	var req battleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OpponentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	now := h.now()
	out, err := service.ResolveArenaFight(h.repo, h.sim, h.cfg, currentTelegramID(c), req.OpponentID, now)
	if err != nil {
		h.writeBattleError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildBattleResponse(out, now))
}

func (h *GameHandler) writeBattleError(c *gin.Context, err error) {
	switch err {
	case service.ErrPlayerNotFound:
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrPlayerNotFound})
	case service.ErrMonsterNotFound:
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrMonsterNotFound})
	case service.ErrOpponentNotFound:
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrOpponentNotFound})
	case service.ErrNotEnoughEnergy:
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrNotEnoughEnergy})
	default:
		logging.Error("battle resolution failed", err, logging.Fields{constants.LogFieldPlayerID: currentTelegramID(c)})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedResolve})
	}
}
