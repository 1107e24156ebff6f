package service

import (
	"errors"
	"time"

	"github.com/mirevald/backend/internal/battle"
	"github.com/mirevald/backend/internal/config"
	"github.com/mirevald/backend/internal/game"
	"github.com/mirevald/backend/internal/period"
)

var (
	ErrMonsterNotFound  = errors.New("monster not found")
	ErrOpponentNotFound = errors.New("opponent not found")
	ErrNotEnoughEnergy  = errors.New("not enough energy")
)

// HuntRepo is the minimal repository interface required by hunt and
// arena resolution.
type HuntRepo interface {
	GetPlayerByTelegramID(telegramID string) (*game.Player, error)
	SavePlayer(p *game.Player) error
	GetMembership(userID string) (*game.ClanMember, error)
	ApplyBattleOutcome(p *game.Player, clanID, dayKey, weekKey string, scoreDelta int) error
}

// HuntOutcome bundles the simulation with the updated player snapshot so
// the client can render both without a second request.
type HuntOutcome struct {
	Result       *battle.SimulationResult `json:"result"`
	OpponentID   string                   `json:"opponent_id"`
	Player       *game.Player             `json:"player"`
	LevelsGained int                      `json:"levels_gained"`
}

// ResolveHunt runs one monster hunt for the player: it charges energy,
// simulates the battle and applies rewards in a single transaction. A
// win also credits the player's clan on the weekly board with the
// experience earned.
func ResolveHunt(repo HuntRepo, sim *battle.Simulator, cfg *config.LoadedConfig, telegramID, monsterID string, now time.Time) (*HuntOutcome, error) {
	monster, ok := cfg.Monster(monsterID)
	if !ok {
		return nil, ErrMonsterNotFound
	}
	opponent := battle.Fighter{
		ID:      monster.ID,
		Name:    monster.Name,
		Level:   monster.Level,
		Power:   float64(monster.Power),
		Defense: monster.Defense,
		Class:   battle.ToBattleClass(monster.Class),
	}
	return resolveFight(repo, sim, cfg, telegramID, opponent, cfg.Energy.HuntCost, now)
}

// ResolveArenaFight runs one PvE arena fight. Arena templates carry no
// class of their own; it is derived from the opponent id.
func ResolveArenaFight(repo HuntRepo, sim *battle.Simulator, cfg *config.LoadedConfig, telegramID, opponentID string, now time.Time) (*HuntOutcome, error) {
	tpl, ok := cfg.ArenaOpponent(opponentID)
	if !ok {
		return nil, ErrOpponentNotFound
	}
	opponent := battle.Fighter{
		ID:      tpl.ID,
		Name:    tpl.Name,
		Level:   tpl.Level,
		Power:   float64(tpl.Power),
		Defense: tpl.Defense,
		Class:   battle.ToBattleClass(tpl.ID),
	}
	return resolveFight(repo, sim, cfg, telegramID, opponent, cfg.Energy.ArenaCost, now)
}

func resolveFight(repo HuntRepo, sim *battle.Simulator, cfg *config.LoadedConfig, telegramID string, opponent battle.Fighter, energyCost int, now time.Time) (*HuntOutcome, error) {
	p, err := repo.GetPlayerByTelegramID(telegramID)
	if err != nil {
		return nil, ErrPlayerNotFound
	}

	if applyEnergyRegen(p, cfg.Energy, now) && p.Energy < energyCost {
		// Persist the regen tick even when the fight is refused so the
		// client sees the fresher counter.
		_ = repo.SavePlayer(p)
	}
	if p.Energy < energyCost {
		return nil, ErrNotEnoughEnergy
	}

	fighter := battle.Fighter{
		ID:      p.TelegramID,
		Name:    p.Name,
		Level:   p.Level,
		Power:   float64(p.Power),
		Defense: p.Defense,
		Class:   battle.ToBattleClass(p.Class),
	}
	res := sim.Simulate(fighter, opponent)

	p.Energy -= energyCost
	p.Gold += res.Rewards.Gold
	levels := applyExp(p, res.Rewards.Exp)

	clanID := ""
	scoreDelta := 0
	if res.Winner == battle.WinnerPlayer {
		p.Wins++
		if m, err := repo.GetMembership(telegramID); err == nil {
			clanID = m.ClanID
			scoreDelta = res.Rewards.Exp
		}
	} else {
		p.Losses++
	}

	if err := repo.ApplyBattleOutcome(p, clanID, period.DayKey(now), period.WeekKey(now), scoreDelta); err != nil {
		return nil, err
	}
	return &HuntOutcome{Result: &res, OpponentID: opponent.ID, Player: p, LevelsGained: levels}, nil
}
