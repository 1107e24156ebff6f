package service

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/mirevald/backend/internal/config"
	"github.com/mirevald/backend/internal/game"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidName    = errors.New("invalid name")
)

var playerNameRe = regexp.MustCompile(`^[A-Za-z0-9 _-]{3,24}$`)

// PlayerRepo is the minimal repository interface required by the player
// profile operations.
type PlayerRepo interface {
	GetPlayerByTelegramID(telegramID string) (*game.Player, error)
	SavePlayer(p *game.Player) error
}

// EnsurePlayer loads the player for telegramID, creating a fresh profile
// on first contact. The display name is refreshed from Telegram on every
// call so renames propagate without an explicit sync.
func EnsurePlayer(repo PlayerRepo, cfg config.EnergyConfig, telegramID, name string, now time.Time) (*game.Player, error) {
	p, err := repo.GetPlayerByTelegramID(telegramID)
	if err != nil {
		p = &game.Player{
			TelegramID:   telegramID,
			Name:         name,
			Class:        "warrior",
			Level:        1,
			Gold:         50,
			Power:        10,
			Defense:      0.1,
			Energy:       cfg.Max,
			EnergyMax:    cfg.Max,
			LastEnergyAt: now,
		}
		if err := repo.SavePlayer(p); err != nil {
			return nil, err
		}
		return p, nil
	}
	if name != "" && p.Name != name {
		p.Name = name
		if err := repo.SavePlayer(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// GetProfile returns the player with lazily regenerated energy. A regen
// tick is persisted so repeated reads do not recompute from a stale
// timestamp.
func GetProfile(repo PlayerRepo, cfg config.EnergyConfig, telegramID string, now time.Time) (*game.Player, error) {
	p, err := repo.GetPlayerByTelegramID(telegramID)
	if err != nil {
		return nil, ErrPlayerNotFound
	}
	if applyEnergyRegen(p, cfg, now) {
		if err := repo.SavePlayer(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// RenamePlayer sets a custom display name chosen in-game.
func RenamePlayer(repo PlayerRepo, telegramID, name string) (*game.Player, error) {
	name = strings.TrimSpace(name)
	if !playerNameRe.MatchString(name) {
		return nil, ErrInvalidName
	}
	p, err := repo.GetPlayerByTelegramID(telegramID)
	if err != nil {
		return nil, ErrPlayerNotFound
	}
	p.Name = name
	if err := repo.SavePlayer(p); err != nil {
		return nil, err
	}
	return p, nil
}

// applyEnergyRegen advances the player's energy by one point per regen
// interval elapsed since LastEnergyAt, capped at EnergyMax. It reports
// whether the record changed. The timestamp advances by whole intervals
// so the fractional remainder keeps counting toward the next point.
func applyEnergyRegen(p *game.Player, cfg config.EnergyConfig, now time.Time) bool {
	changed := false
	if p.EnergyMax == 0 {
		p.EnergyMax = cfg.Max
		changed = true
	}
	if p.LastEnergyAt.IsZero() {
		p.LastEnergyAt = now
		return true
	}
	if p.Energy >= p.EnergyMax {
		if !p.LastEnergyAt.Equal(now) {
			p.LastEnergyAt = now
			changed = true
		}
		return changed
	}
	interval := time.Duration(cfg.RegenSeconds) * time.Second
	if interval <= 0 {
		return changed
	}
	ticks := int(now.Sub(p.LastEnergyAt) / interval)
	if ticks <= 0 {
		return changed
	}
	if p.Energy+ticks >= p.EnergyMax {
		p.Energy = p.EnergyMax
		p.LastEnergyAt = now
	} else {
		p.Energy += ticks
		p.LastEnergyAt = p.LastEnergyAt.Add(time.Duration(ticks) * interval)
	}
	return true
}

// xpToNext is the experience needed to clear the given level.
func xpToNext(level int) int { return 100 + (level-1)*50 }

// applyExp adds exp and processes level-ups, returning the number of
// levels gained. Each level grants one point of power.
func applyExp(p *game.Player, exp int) int {
	p.XP += exp
	gained := 0
	for p.XP >= xpToNext(p.Level) {
		p.XP -= xpToNext(p.Level)
		p.Level++
		p.Power++
		gained++
	}
	return gained
}
