package battle

import (
	"fmt"
	"math"
	"math/rand"
)

// Winner side labels as seen by the caller of Simulate.
const (
	WinnerPlayer   = "player"
	WinnerOpponent = "opponent"
)

// SideStats aggregates one side's damage totals over a simulation.
type SideStats struct {
	DmgTaken int `json:"dmgTaken"`
	DmgDealt int `json:"dmgDealt"`
}

// Rewards holds the gold/exp draw granted for a battle outcome.
type Rewards struct {
	Gold int `json:"gold"`
	Exp  int `json:"exp"`
}

// SimulationResult is produced once per battle and consumed immediately
// by the caller; it is never stored.
type SimulationResult struct {
	Winner        string    `json:"winner"` // "player" or "opponent"
	Turns         int       `json:"turns"`
	Log           []string  `json:"log"`
	PlayerStats   SideStats `json:"playerStats"`
	OpponentStats SideStats `json:"opponentStats"`
	Rewards       Rewards   `json:"rewards"`
}

// Simulator runs round-based battles. The random source is injected so
// tests can seed it and replay exact battles; production seeds one
// source per process at startup.
type Simulator struct {
	rng *rand.Rand
}

func NewSimulator(rng *rand.Rand) *Simulator {
	return &Simulator{rng: rng}
}

// uniform draws from [min, max).
func (s *Simulator) uniform(min, max float64) float64 {
	return s.rng.Float64()*(max-min) + min
}

func clamp(n, min, max float64) float64 {
	return math.Max(min, math.Min(max, n))
}

// calcDamage computes one attack's final damage after class perks and
// defender mitigation.
func (s *Simulator) calcDamage(attacker, defender Fighter) float64 {
	dmg := attacker.Power*s.uniform(0.85, 1.15) + s.uniform(-5, 5)

	switch attacker.Class {
	case ClassVolkhv:
		dmg *= 1.15 // bonus magic damage
	case ClassBerserk:
		dmg *= 1.2 // rage
	}

	mitigation := 1 - clamp(defender.Defense, 0, 0.8)
	if defender.Class == ClassBerserk {
		// Kept as-is from the original formula even though the factor
		// numerically lowers incoming damage; see DESIGN.md.
		mitigation *= 1.1
	}
	if defender.Class == ClassWarrior && s.rng.Float64() < 0.2 {
		mitigation *= 0.5 // block
	}

	return math.Max(0, dmg*mitigation)
}

type logEntry struct {
	round       int
	text        string
	playerSwing bool
}

// Simulate runs a full battle between player and opponent and returns
// the outcome. It has no side effects; reward application is the
// caller's job.
func (s *Simulator) Simulate(player, opponent Fighter) SimulationResult {
	rounds := int(math.Round(s.uniform(3, 5.49)))
	log := make([]logEntry, 0, 16)

	hpPlayer := player.MaxHP()
	hpOpponent := opponent.MaxHP()

	// Stacking, non-decaying damage-over-time applied by hunters.
	bleedOnOpponent := 0.0
	bleedOnPlayer := 0.0

	dealtByPlayer := 0.0
	dealtByOpponent := 0.0

loop:
	for r := 1; r <= rounds; r++ {
		// Player attacks first each round.
		dmg := s.calcDamage(player, opponent)
		if player.Class == ClassHunter {
			bleedOnOpponent += 4
			log = append(log, logEntry{r, fmt.Sprintf("Player deals %.0f damage. Bleed +4.", dmg), true})
		} else {
			log = append(log, logEntry{r, fmt.Sprintf("Player deals %.0f damage.", dmg), true})
		}
		hpOpponent -= dmg
		dealtByPlayer += dmg
		if hpOpponent <= 0 {
			break loop
		}

		if bleedOnOpponent > 0 {
			hpOpponent -= bleedOnOpponent
			dealtByPlayer += bleedOnOpponent
			log = append(log, logEntry{r, fmt.Sprintf("Bleed on opponent: %.0f.", bleedOnOpponent), false})
			if hpOpponent <= 0 {
				break loop
			}
		}

		dmg = s.calcDamage(opponent, player)
		if opponent.Class == ClassHunter {
			bleedOnPlayer += 4
			log = append(log, logEntry{r, fmt.Sprintf("Opponent deals %.0f damage. Bleed +4.", dmg), false})
		} else {
			log = append(log, logEntry{r, fmt.Sprintf("Opponent deals %.0f damage.", dmg), false})
		}
		hpPlayer -= dmg
		dealtByOpponent += dmg
		if hpPlayer <= 0 {
			break loop
		}

		if bleedOnPlayer > 0 {
			hpPlayer -= bleedOnPlayer
			dealtByOpponent += bleedOnPlayer
			log = append(log, logEntry{r, fmt.Sprintf("Bleed on player: %.0f.", bleedOnPlayer), false})
			if hpPlayer <= 0 {
				break loop
			}
		}
	}

	winner := WinnerOpponent
	switch {
	case hpOpponent <= 0:
		winner = WinnerPlayer
	case hpPlayer <= 0:
		winner = WinnerOpponent
	case dealtByPlayer >= dealtByOpponent:
		winner = WinnerPlayer
	}

	// Displayed turn count is the number of player swings, clamped to the
	// log window.
	turns := 0
	for _, e := range log {
		if e.playerSwing {
			turns++
		}
	}
	if turns < 1 {
		turns = 1
	}
	if turns > 5 {
		turns = 5
	}

	var rewards Rewards
	if winner == WinnerPlayer {
		rewards = Rewards{
			Gold: int(math.Round(s.uniform(8, 20))),
			Exp:  int(math.Round(s.uniform(5, 15))),
		}
	} else {
		rewards = Rewards{
			Gold: int(math.Round(s.uniform(1, 5))),
			Exp:  int(math.Round(s.uniform(1, 4))),
		}
	}

	short := make([]string, 0, 5)
	for i := 0; i < len(log) && i < 5; i++ {
		short = append(short, fmt.Sprintf("Round %d: %s", log[i].round, log[i].text))
	}

	return SimulationResult{
		Winner: winner,
		Turns:  turns,
		Log:    short,
		PlayerStats: SideStats{
			DmgTaken: int(math.Max(0, math.Round(player.MaxHP()-hpPlayer))),
			DmgDealt: int(math.Round(dealtByPlayer)),
		},
		OpponentStats: SideStats{
			DmgTaken: int(math.Max(0, math.Round(opponent.MaxHP()-hpOpponent))),
			DmgDealt: int(math.Round(dealtByOpponent)),
		},
		Rewards: rewards,
	}
}
