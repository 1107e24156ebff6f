package api

import (
	"math/rand"
	"time"

	"github.com/mirevald/backend/internal/battle"
	"github.com/mirevald/backend/internal/config"
	"github.com/mirevald/backend/internal/service"
	"github.com/mirevald/backend/internal/storage"
)

// GameHandler groups all HTTP handlers of the game backend.
type GameHandler struct {
	repo      storage.Repository
	cfg       *config.LoadedConfig
	sim       *battle.Simulator
	rng       *rand.Rand
	duelLocks *service.KeyedLocks
	now       func() time.Time
}

// NewGameHandler creates a GameHandler with the given repository, loaded
// configuration and random source. The same source feeds the battle
// simulator and the duel rolls, so it must be safe for concurrent use
// (see battle.NewSeededRand).
func NewGameHandler(repo storage.Repository, cfg *config.LoadedConfig, rng *rand.Rand) *GameHandler {
	return &GameHandler{
		repo:      repo,
		cfg:       cfg,
		sim:       battle.NewSimulator(rng),
		rng:       rng,
		duelLocks: service.NewKeyedLocks(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}
