package storage

import (
	"errors"

	"github.com/mirevald/backend/internal/game"
)

// ErrVersionConflict is returned by UpdateDuelVersioned when the duel row
// changed since it was read. Callers re-read and retry.
var ErrVersionConflict = errors.New("storage: stale duel version")

// WeeklyTopEntry is one row of the weekly clan leaderboard.
type WeeklyTopEntry struct {
	ClanID string `json:"clan_id"`
	Name   string `json:"name"`
	Tag    string `json:"tag"`
	Score  int    `json:"score"`
}

type Repository interface {
	// Players
	GetPlayerByTelegramID(telegramID string) (*game.Player, error)
	GetPlayersByTelegramIDs(ids []string) ([]game.Player, error)
	SavePlayer(p *game.Player) error
	// TrySpendGold atomically deducts amount from the player's gold and
	// reports whether the balance was sufficient.
	TrySpendGold(telegramID string, amount int) (bool, error)
	GetTopPlayers(limit int) ([]game.Player, error)
	// ApplyBattleOutcome persists the fighter's post-battle state and,
	// when scoreDelta > 0, advances the clan's active quest and weekly
	// score in the same transaction. The clan bank moves only through
	// ApplyContribution.
	ApplyBattleOutcome(p *game.Player, clanID, dayKey, weekKey string, scoreDelta int) error

	// Duels
	CreateDuel(d *game.Duel) error
	GetDuelByID(id string) (*game.Duel, error)
	// UpdateDuelVersioned persists d only if its Version still matches the
	// stored row, then increments it. Returns ErrVersionConflict otherwise.
	UpdateDuelVersioned(d *game.Duel) error

	// Clans
	CreateClan(c *game.Clan, founder *game.ClanMember) error
	GetClanByID(id string) (*game.Clan, error)
	GetClanByTag(tag string) (*game.Clan, error)
	ClanNameOrTagExists(name, tag string) (nameTaken, tagTaken bool, err error)
	SearchClans(query string, limit int) ([]game.Clan, error)
	DeleteClan(clanID string) error

	// Memberships. A user belongs to at most one clan; AddMember removes
	// any prior membership in the same transaction.
	GetMembership(userID string) (*game.ClanMember, error)
	ListMembers(clanID string) ([]game.ClanMember, error)
	AddMember(m *game.ClanMember) error
	UpdateMemberRole(clanID, userID, role string) error
	RemoveMember(clanID, userID string) error
	// TransferLeadership promotes toUserID to leader, demotes fromUserID
	// to warden and moves clan ownership, all in one transaction.
	TransferLeadership(clanID, fromUserID, toUserID string) error

	// Ledger
	// ApplyContribution adds amount to the clan bank, advances the active
	// quest for the current period keys and bumps the weekly score, all in
	// one transaction.
	ApplyContribution(clanID string, amount int, dayKey, weekKey string) error
	AddWeeklyScore(clanID, weekKey string, delta int) error
	WeeklyTop(weekKey string, limit int) ([]WeeklyTopEntry, error)
	GetQuests() ([]game.ClanQuest, error)
	GetQuestStates(clanID string, periodKeys []string) ([]game.ClanQuestState, error)
}
