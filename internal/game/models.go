package game

import (
	"time"

	"gorm.io/gorm"
)

// Player stores a Telegram user's persistent character state. The
// TelegramID is the numeric Telegram user id rendered as a string; it is
// the identity every authenticated request resolves to.
type Player struct {
	gorm.Model
	TelegramID string `json:"telegram_id" gorm:"uniqueIndex"`
	Name       string `json:"name"`
	Class      string `json:"class"`
	Level      int    `json:"level"`
	XP         int    `json:"xp"`
	Gold       int    `json:"gold"`
	// Power and Defense feed the battle simulator directly. Defense is a
	// 0..1 mitigation scalar; equipment bonuses are folded in by the
	// presentation layer before they reach this record.
	Power   int     `json:"power"`
	Defense float64 `json:"defense"`

	Energy       int       `json:"energy"`
	EnergyMax    int       `json:"energy_max"`
	LastEnergyAt time.Time `json:"last_energy_at"`

	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

func (Player) TableName() string { return "players" }

// Duel statuses.
const (
	DuelStatusWaiting  = "waiting"
	DuelStatusActive   = "active"
	DuelStatusFinished = "finished"
)

// Duel sides.
const (
	SideA = "A"
	SideB = "B"
)

// DuelAction is a string alias representing a duel move. Using a
// dedicated type instead of plain string makes code safer and
// self-documenting.
type DuelAction string

const (
	DuelActionAttack DuelAction = "attack"
	DuelActionDefend DuelAction = "defend"
	DuelActionSkill  DuelAction = "skill"
)

// Duel is a persisted two-player turn-based fight. The original service
// kept the fighters inside an opaque JSON blob; here each side has
// explicit columns so the state machine is checked by the compiler.
// Version is an optimistic-concurrency counter: every successful update
// increments it, and stale writers are rejected (see
// storage.UpdateDuelVersioned).
type Duel struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Status    string    `json:"status"`
	Current   string    `json:"current"` // "A" or "B"; meaningful while active
	AID       string    `json:"a_id" gorm:"index"`
	AName     string    `json:"a_name"`
	AHP       int       `json:"a_hp"`
	AMaxHP    int       `json:"a_max_hp"`
	BID       string    `json:"b_id" gorm:"index"`
	BName     string    `json:"b_name"`
	BHP       int       `json:"b_hp"`
	BMaxHP    int       `json:"b_max_hp"`
	Winner    string    `json:"winner"` // "", "A" or "B"
	Log       []string  `json:"log" gorm:"serializer:json"`
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Duel) TableName() string { return "duels" }

// HasOpponent reports whether side B has been populated.
func (d *Duel) HasOpponent() bool { return d.BID != "" }

// ClanRole values. Exactly one member per clan holds RoleLeader.
const (
	RoleLeader = "leader"
	RoleNovice = "novice"
	RoleWarden = "warden"
	RoleSeer   = "seer"
)

// ValidRole reports whether s is one of the assignable clan roles.
func ValidRole(s string) bool {
	switch s {
	case RoleLeader, RoleNovice, RoleWarden, RoleSeer:
		return true
	}
	return false
}

type Clan struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex"`
	Tag       string    `json:"tag" gorm:"uniqueIndex"`
	Bank      int       `json:"bank"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Clan) TableName() string { return "clans" }

// ClanMember links a user to a clan. A user belongs to at most one clan:
// joining or founding a clan first deletes any prior membership row.
type ClanMember struct {
	ClanID   string    `json:"clan_id" gorm:"primaryKey"`
	UserID   string    `json:"user_id" gorm:"primaryKey;index"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func (ClanMember) TableName() string { return "clan_members" }

// Monster is a static hunt target template loaded from the server
// config. Monsters are never persisted; the catalog is read-only.
type Monster struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Level   int     `json:"level"`
	Power   int     `json:"power"`
	Defense float64 `json:"defense"`
	Class   string  `json:"class"`
}

// ArenaOpponent is a static PvE arena template loaded from the server
// config. Its battle class is derived from the id at fight time.
type ArenaOpponent struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Level   int     `json:"level"`
	Power   int     `json:"power"`
	Defense float64 `json:"defense"`
}

// Quest periods.
const (
	PeriodDaily  = "daily"
	PeriodWeekly = "weekly"
)

// ClanQuest is a static catalog entry seeded from the server config.
type ClanQuest struct {
	ID         string `json:"id" gorm:"primaryKey"`
	Title      string `json:"title"`
	Target     int    `json:"target"`
	Period     string `json:"period"`
	RewardGold int    `json:"reward_gold"`
	RewardXP   int    `json:"reward_xp"`
}

func (ClanQuest) TableName() string { return "clan_quests" }

// ClanQuestState tracks a clan's progress on one quest within one period.
// A lookup under a fresh period key simply finds no row, which reads as
// zero progress — periods roll over without an expiry job.
type ClanQuestState struct {
	ClanID    string `json:"clan_id" gorm:"primaryKey"`
	QuestID   string `json:"quest_id" gorm:"primaryKey"`
	PeriodKey string `json:"period_key" gorm:"primaryKey"`
	Progress  int    `json:"progress"`
	Completed bool   `json:"completed"`
}

func (ClanQuestState) TableName() string { return "clan_quest_states" }

// ClanScoreWeekly accumulates a clan's contribution points for the
// weekly leaderboard, bucketed by ISO week key.
type ClanScoreWeekly struct {
	ClanID  string `json:"clan_id" gorm:"primaryKey"`
	WeekKey string `json:"week_key" gorm:"primaryKey"`
	Score   int    `json:"score"`
}

func (ClanScoreWeekly) TableName() string { return "clan_scores_weekly" }
