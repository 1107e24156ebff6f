package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mirevald/backend/internal/game"
)

type monsterEntry struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Level   int     `json:"level"`
	Power   int     `json:"power"`
	Defense float64 `json:"defense"`
	Class   string  `json:"class"`
}

type arenaEntry struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Level   int     `json:"level"`
	Power   int     `json:"power"`
	Defense float64 `json:"defense"`
}

type questEntry struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Target     int    `json:"target"`
	Period     string `json:"period"`
	RewardGold int    `json:"reward_gold"`
	RewardXP   int    `json:"reward_xp"`
}

type rawConfig struct {
	MonsterList    []monsterEntry `json:"monster_list"`
	ArenaOpponents []arenaEntry   `json:"arena_opponents"`
	ClanQuestList  []questEntry   `json:"clan_quest_list"`
	Server         *struct {
		Address string `json:"address"`
	} `json:"server"`
	Energy *struct {
		Max          int `json:"max"`
		RegenSeconds int `json:"regen_seconds"`
		HuntCost     int `json:"hunt_cost"`
		ArenaCost    int `json:"arena_cost"`
	} `json:"energy"`
}

// EnergyConfig tunes the lazy energy regeneration and per-action costs.
type EnergyConfig struct {
	Max          int
	RegenSeconds int
	HuntCost     int
	ArenaCost    int
}

// LoadedConfig contains the static catalogs, the energy tuning and the
// server address to bind to.
type LoadedConfig struct {
	Monsters       []game.Monster
	ArenaOpponents []game.ArenaOpponent
	ClanQuests     []game.ClanQuest
	Energy         EnergyConfig
	ServerAddress  string
}

// Monster looks up a hunt template by id.
func (c *LoadedConfig) Monster(id string) (game.Monster, bool) {
	for _, m := range c.Monsters {
		if m.ID == id {
			return m, true
		}
	}
	return game.Monster{}, false
}

// ArenaOpponent looks up an arena template by id.
func (c *LoadedConfig) ArenaOpponent(id string) (game.ArenaOpponent, bool) {
	for _, o := range c.ArenaOpponents {
		if o.ID == id {
			return o, true
		}
	}
	return game.ArenaOpponent{}, false
}

// LoadConfig reads the configuration file at path. It requires the keys
// `monster_list` and `clan_quest_list` (snake_case) and validates that
// catalog ids are unique.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(rc.MonsterList) == 0 {
		return nil, fmt.Errorf("config file %s: monster_list is empty (provide 'monster_list' array)", path)
	}
	if len(rc.ClanQuestList) == 0 {
		return nil, fmt.Errorf("config file %s: clan_quest_list is empty (provide 'clan_quest_list' array)", path)
	}

	monsters := make([]game.Monster, 0, len(rc.MonsterList))
	monsterIDs := make(map[string]struct{}, len(rc.MonsterList))
	for _, m := range rc.MonsterList {
		if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("config file %s: monster entry missing 'id' or 'name'", path)
		}
		if _, exists := monsterIDs[m.ID]; exists {
			return nil, fmt.Errorf("config file %s: duplicate monster id '%s'", path, m.ID)
		}
		monsterIDs[m.ID] = struct{}{}
		if m.Level < 1 || m.Power < 0 || m.Defense < 0 || m.Defense > 1 {
			return nil, fmt.Errorf("config file %s: monster '%s' has invalid stats", path, m.ID)
		}
		monsters = append(monsters, game.Monster{
			ID:      m.ID,
			Name:    m.Name,
			Level:   m.Level,
			Power:   m.Power,
			Defense: m.Defense,
			Class:   m.Class,
		})
	}

	opponents := make([]game.ArenaOpponent, 0, len(rc.ArenaOpponents))
	opponentIDs := make(map[string]struct{}, len(rc.ArenaOpponents))
	for _, o := range rc.ArenaOpponents {
		if strings.TrimSpace(o.ID) == "" || strings.TrimSpace(o.Name) == "" {
			return nil, fmt.Errorf("config file %s: arena entry missing 'id' or 'name'", path)
		}
		if _, exists := opponentIDs[o.ID]; exists {
			return nil, fmt.Errorf("config file %s: duplicate arena opponent id '%s'", path, o.ID)
		}
		opponentIDs[o.ID] = struct{}{}
		opponents = append(opponents, game.ArenaOpponent{
			ID:      o.ID,
			Name:    o.Name,
			Level:   o.Level,
			Power:   o.Power,
			Defense: o.Defense,
		})
	}

	quests := make([]game.ClanQuest, 0, len(rc.ClanQuestList))
	questIDs := make(map[string]struct{}, len(rc.ClanQuestList))
	for _, q := range rc.ClanQuestList {
		if strings.TrimSpace(q.ID) == "" || strings.TrimSpace(q.Title) == "" {
			return nil, fmt.Errorf("config file %s: quest entry missing 'id' or 'title'", path)
		}
		if _, exists := questIDs[q.ID]; exists {
			return nil, fmt.Errorf("config file %s: duplicate quest id '%s'", path, q.ID)
		}
		questIDs[q.ID] = struct{}{}
		if q.Period != game.PeriodDaily && q.Period != game.PeriodWeekly {
			return nil, fmt.Errorf("config file %s: quest '%s' has invalid period '%s' (use 'daily' or 'weekly')", path, q.ID, q.Period)
		}
		if q.Target <= 0 {
			return nil, fmt.Errorf("config file %s: quest '%s' must have target > 0", path, q.ID)
		}
		quests = append(quests, game.ClanQuest{
			ID:         q.ID,
			Title:      q.Title,
			Target:     q.Target,
			Period:     q.Period,
			RewardGold: q.RewardGold,
			RewardXP:   q.RewardXP,
		})
	}

	energy := EnergyConfig{Max: 10, RegenSeconds: 300, HuntCost: 1, ArenaCost: 2}
	if rc.Energy != nil {
		if rc.Energy.Max > 0 {
			energy.Max = rc.Energy.Max
		}
		if rc.Energy.RegenSeconds > 0 {
			energy.RegenSeconds = rc.Energy.RegenSeconds
		}
		if rc.Energy.HuntCost > 0 {
			energy.HuntCost = rc.Energy.HuntCost
		}
		if rc.Energy.ArenaCost > 0 {
			energy.ArenaCost = rc.Energy.ArenaCost
		}
	}

	addr := ":8080"
	if rc.Server != nil && rc.Server.Address != "" {
		addr = rc.Server.Address
	}

	return &LoadedConfig{
		Monsters:       monsters,
		ArenaOpponents: opponents,
		ClanQuests:     quests,
		Energy:         energy,
		ServerAddress:  addr,
	}, nil
}
