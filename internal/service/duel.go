package service

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mirevald/backend/internal/game"
	"github.com/mirevald/backend/internal/storage"
)

var (
	ErrDuelNotFound  = errors.New("duel not found")
	ErrDuelStarted   = errors.New("duel already started")
	ErrOwnDuel       = errors.New("cannot join own duel")
	ErrDuelNotActive = errors.New("duel not active")
	ErrNoOpponent    = errors.New("duel has no opponent")
	ErrNotYourTurn   = errors.New("not your turn")
)

// duelRetries bounds the optimistic-update retry loop. With the per-duel
// lock held a conflict means another process wrote the row.
const duelRetries = 3

const duelStartHP = 100

// DuelRepo is the minimal repository interface required by the duel
// state machine.
type DuelRepo interface {
	GetPlayerByTelegramID(telegramID string) (*game.Player, error)
	CreateDuel(d *game.Duel) error
	GetDuelByID(id string) (*game.Duel, error)
	UpdateDuelVersioned(d *game.Duel) error
}

// ChallengeDuel opens a duel waiting for an opponent. The challenger
// always occupies side A.
func ChallengeDuel(repo DuelRepo, telegramID string, now time.Time) (*game.Duel, error) {
	p, err := repo.GetPlayerByTelegramID(telegramID)
	if err != nil {
		return nil, ErrPlayerNotFound
	}
	d := &game.Duel{
		ID:        uuid.NewString(),
		Status:    game.DuelStatusWaiting,
		AID:       p.TelegramID,
		AName:     p.Name,
		AHP:       duelStartHP,
		AMaxHP:    duelStartHP,
		Log:       []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateDuel(d); err != nil {
		return nil, err
	}
	return d, nil
}

// AcceptDuel joins a waiting duel as side B and activates it. The
// opening turn is assigned by coin flip.
func AcceptDuel(repo DuelRepo, locks *KeyedLocks, rng *rand.Rand, duelID, telegramID string, now time.Time) (*game.Duel, error) {
	p, err := repo.GetPlayerByTelegramID(telegramID)
	if err != nil {
		return nil, ErrPlayerNotFound
	}

	unlock := locks.Lock(duelID)
	defer unlock()

	for attempt := 0; attempt < duelRetries; attempt++ {
		d, err := repo.GetDuelByID(duelID)
		if err != nil {
			return nil, ErrDuelNotFound
		}
		if d.Status != game.DuelStatusWaiting {
			return nil, ErrDuelStarted
		}
		if d.AID == telegramID {
			return nil, ErrOwnDuel
		}

		d.BID = p.TelegramID
		d.BName = p.Name
		d.BHP = duelStartHP
		d.BMaxHP = duelStartHP
		d.Status = game.DuelStatusActive
		d.Current = game.SideA
		if rng.Intn(2) == 1 {
			d.Current = game.SideB
		}
		d.Log = append(d.Log, fmt.Sprintf("%s joined the duel.", p.Name))
		d.UpdatedAt = now

		err = repo.UpdateDuelVersioned(d)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, storage.ErrVersionConflict
}

// ActDuel applies one move for the caller and either flips the turn or
// finishes the duel. Unknown actions fall back to a plain attack.
func ActDuel(repo DuelRepo, locks *KeyedLocks, rng *rand.Rand, duelID, telegramID string, action game.DuelAction, now time.Time) (*game.Duel, error) {
	unlock := locks.Lock(duelID)
	defer unlock()

	for attempt := 0; attempt < duelRetries; attempt++ {
		d, err := repo.GetDuelByID(duelID)
		if err != nil {
			return nil, ErrDuelNotFound
		}
		if d.Status != game.DuelStatusActive {
			return nil, ErrDuelNotActive
		}
		if !d.HasOpponent() {
			return nil, ErrNoOpponent
		}

		var side string
		switch telegramID {
		case d.AID:
			side = game.SideA
		case d.BID:
			side = game.SideB
		default:
			return nil, ErrNotYourTurn
		}
		if d.Current != side {
			return nil, ErrNotYourTurn
		}

		applyDuelAction(d, side, action, rng)
		d.UpdatedAt = now

		err = repo.UpdateDuelVersioned(d)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, storage.ErrVersionConflict
}

func applyDuelAction(d *game.Duel, side string, action game.DuelAction, rng *rand.Rand) {
	actorName, defenderName := d.AName, d.BName
	if side == game.SideB {
		actorName, defenderName = d.BName, d.AName
	}

	dmg := 0
	note := "attacks"
	switch action {
	case game.DuelActionDefend:
		note = "defends (+3 hp)"
		if side == game.SideA {
			d.AHP = min(d.AMaxHP, d.AHP+3)
		} else {
			d.BHP = min(d.BMaxHP, d.BHP+3)
		}
	case game.DuelActionSkill:
		note = "uses a skill"
		dmg = 8 + rng.Intn(11)
	default:
		dmg = 5 + rng.Intn(11)
	}

	defenderHP := 0
	if side == game.SideA {
		d.BHP -= dmg
		if d.BHP < 0 {
			d.BHP = 0
		}
		defenderHP = d.BHP
	} else {
		d.AHP -= dmg
		if d.AHP < 0 {
			d.AHP = 0
		}
		defenderHP = d.AHP
	}
	if dmg > 0 {
		d.Log = append(d.Log, fmt.Sprintf("%s %s for %d. %s hp=%d", actorName, note, dmg, defenderName, defenderHP))
	} else {
		d.Log = append(d.Log, fmt.Sprintf("%s %s. %s hp=%d", actorName, note, defenderName, defenderHP))
	}

	if defenderHP <= 0 {
		d.Status = game.DuelStatusFinished
		d.Winner = side
		d.Log = append(d.Log, fmt.Sprintf("%s wins!", actorName))
		return
	}

	if d.Current == game.SideA {
		d.Current = game.SideB
	} else {
		d.Current = game.SideA
	}
}
