package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirevald/backend/internal/constants"
	"github.com/mirevald/backend/internal/dedupe"
	"github.com/mirevald/backend/internal/logging"
	"github.com/mirevald/backend/internal/period"
	"github.com/mirevald/backend/internal/service"
)

type clanCreateRequest struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

// CreateClan founds a clan with the caller as leader.
func (h *GameHandler) CreateClan(c *gin.Context) {
	var req clanCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	clan, err := service.CreateClan(h.repo, currentTelegramID(c), req.Name, req.Tag, h.now())
	if err != nil {
		h.writeClanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyOK: true, constants.JSONKeyData: clan})
}

type clanJoinRequest struct {
	Tag string `json:"tag"`
}

// JoinClan enrolls the caller into the clan with the given tag.
func (h *GameHandler) JoinClan(c *gin.Context) {
	var req clanJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	clan, err := service.JoinClanByTag(h.repo, currentTelegramID(c), req.Tag, h.now())
	if err != nil {
		h.writeClanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyOK: true, constants.JSONKeyData: clan})
}

// LeaveClan removes the caller from their clan.
func (h *GameHandler) LeaveClan(c *gin.Context) {
	if err := service.LeaveClan(h.repo, currentTelegramID(c)); err != nil {
		h.writeClanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyOK: true})
}

type clanContributeRequest struct {
	Amount int `json:"amount"`
}

// ContributeToClan moves gold from the caller into the clan ledger.
func (h *GameHandler) ContributeToClan(c *gin.Context) {
	var req clanContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	bank, err := service.Contribute(h.repo, currentTelegramID(c), req.Amount, h.now())
	if err != nil {
		switch err {
		case service.ErrAmountPositive, service.ErrNotEnoughGold, service.ErrNotInClan, service.ErrPlayerNotFound:
			h.writeClanError(c, err)
		default:
			logging.Error("contribution failed", err, logging.Fields{constants.LogFieldPlayerID: currentTelegramID(c)})
			c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyOK: false, constants.JSONKeyError: constants.ErrFailedContribute})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyOK: true, constants.JSONKeyData: gin.H{constants.JSONKeyBank: bank}})
}

type clanRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// SetClanRole changes a member's role. Leader only.
func (h *GameHandler) SetClanRole(c *gin.Context) {
	var req clanRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if err := service.SetRole(h.repo, currentTelegramID(c), req.UserID, req.Role); err != nil {
		h.writeClanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyOK: true})
}

type clanKickRequest struct {
	UserID string `json:"user_id"`
}

// KickFromClan removes a member from the caller's clan. Leader only.
func (h *GameHandler) KickFromClan(c *gin.Context) {
	var req clanKickRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if err := service.KickMember(h.repo, currentTelegramID(c), req.UserID); err != nil {
		h.writeClanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyOK: true})
}

// GetMyClan returns the caller's clan screen aggregate.
func (h *GameHandler) GetMyClan(c *gin.Context) {
	ov, err := service.GetClanOverview(h.repo, currentTelegramID(c), h.now())
	if err != nil {
		h.writeClanError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// ListClanMembers returns the roster of the caller's clan.
func (h *GameHandler) ListClanMembers(c *gin.Context) {
	m, err := h.repo.GetMembership(currentTelegramID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrNotInClan})
		return
	}
	members, err := service.ListClanMembers(h.repo, m.ClanID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchClan})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyData: members})
}

// SearchClans lists clans matching the q query parameter.
func (h *GameHandler) SearchClans(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	clans, err := service.SearchClans(h.repo, c.Query("q"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchClan})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyData: clans})
}

// WeeklyTopClans returns the weekly clan standings. Concurrent requests
// within the same ISO week collapse into a single query.
func (h *GameHandler) WeeklyTopClans(c *gin.Context) {
	now := h.now()
	key := "clans:" + period.WeekKey(now)
	res, err, _ := dedupe.WeeklyTopGroup.Do(key, func() (interface{}, error) {
		return service.WeeklyTopClans(h.repo, 10, now)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchClan})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyData: res})
}

func (h *GameHandler) writeClanError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := constants.ErrFailedFetchClan
	switch err {
	case service.ErrPlayerNotFound:
		status, msg = http.StatusNotFound, constants.ErrPlayerNotFound
	case service.ErrInvalidName:
		status, msg = http.StatusBadRequest, constants.ErrInvalidName
	case service.ErrInvalidTag:
		status, msg = http.StatusBadRequest, constants.ErrInvalidTag
	case service.ErrInvalidRole:
		status, msg = http.StatusBadRequest, constants.ErrBadPayload
	case service.ErrAmountPositive:
		status, msg = http.StatusBadRequest, constants.ErrAmountPositive
	case service.ErrNameTaken:
		status, msg = http.StatusConflict, constants.ErrNameTaken
	case service.ErrTagTaken:
		status, msg = http.StatusConflict, constants.ErrTagTaken
	case service.ErrNotEnoughGold:
		status, msg = http.StatusConflict, constants.ErrNotEnoughGold
	case service.ErrClanNotFound:
		status, msg = http.StatusNotFound, constants.ErrClanNotFound
	case service.ErrNotInClan:
		status, msg = http.StatusNotFound, constants.ErrNotInClan
	case service.ErrForbidden:
		status, msg = http.StatusForbidden, constants.ErrForbidden
	default:
		logging.Error("clan operation failed", err, logging.Fields{constants.LogFieldPlayerID: currentTelegramID(c)})
	}
	c.JSON(status, gin.H{constants.JSONKeyOK: false, constants.JSONKeyError: msg})
}
