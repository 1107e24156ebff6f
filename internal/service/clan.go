package service

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mirevald/backend/internal/game"
	"github.com/mirevald/backend/internal/period"
	"github.com/mirevald/backend/internal/storage"
)

var (
	ErrInvalidTag     = errors.New("invalid tag")
	ErrNameTaken      = errors.New("name taken")
	ErrTagTaken       = errors.New("tag taken")
	ErrClanNotFound   = errors.New("clan not found")
	ErrNotInClan      = errors.New("not in clan")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRole    = errors.New("invalid role")
	ErrAmountPositive = errors.New("amount must be positive")
	ErrNotEnoughGold  = errors.New("not enough gold")
)

var (
	clanTagRe  = regexp.MustCompile(`^[A-Z]{2,5}$`)
	clanNameRe = regexp.MustCompile(`^[A-Za-z0-9 _-]{3,24}$`)
)

// ClanRepo is the repository surface used by the clan operations.
type ClanRepo interface {
	GetPlayerByTelegramID(telegramID string) (*game.Player, error)
	GetPlayersByTelegramIDs(ids []string) ([]game.Player, error)
	TrySpendGold(telegramID string, amount int) (bool, error)

	CreateClan(c *game.Clan, founder *game.ClanMember) error
	GetClanByID(id string) (*game.Clan, error)
	GetClanByTag(tag string) (*game.Clan, error)
	ClanNameOrTagExists(name, tag string) (bool, bool, error)
	SearchClans(query string, limit int) ([]game.Clan, error)
	DeleteClan(clanID string) error

	GetMembership(userID string) (*game.ClanMember, error)
	ListMembers(clanID string) ([]game.ClanMember, error)
	AddMember(m *game.ClanMember) error
	UpdateMemberRole(clanID, userID, role string) error
	RemoveMember(clanID, userID string) error
	TransferLeadership(clanID, fromUserID, toUserID string) error

	ApplyContribution(clanID string, amount int, dayKey, weekKey string) error
	WeeklyTop(weekKey string, limit int) ([]storage.WeeklyTopEntry, error)
	GetQuests() ([]game.ClanQuest, error)
	GetQuestStates(clanID string, periodKeys []string) ([]game.ClanQuestState, error)
}

// MemberView decorates a membership row with the player's profile bits
// the clan screen renders.
type MemberView struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Level    int       `json:"level"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// QuestView is one quest with the clan's progress for the current period.
type QuestView struct {
	Quest     game.ClanQuest `json:"quest"`
	PeriodKey string         `json:"period_key"`
	Progress  int            `json:"progress"`
	Completed bool           `json:"completed"`
}

// ClanOverview is the aggregate the clan screen fetches in one request.
type ClanOverview struct {
	Clan    *game.Clan   `json:"clan"`
	Role    string       `json:"role"`
	Members []MemberView `json:"members"`
	Quests  []QuestView  `json:"quests"`
}

// CreateClan founds a clan with the caller as leader. Founding silently
// abandons any prior clan membership.
func CreateClan(repo ClanRepo, telegramID, name, tag string, now time.Time) (*game.Clan, error) {
	name = strings.TrimSpace(name)
	if !clanNameRe.MatchString(name) {
		return nil, ErrInvalidName
	}
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if !clanTagRe.MatchString(tag) {
		return nil, ErrInvalidTag
	}
	if _, err := repo.GetPlayerByTelegramID(telegramID); err != nil {
		return nil, ErrPlayerNotFound
	}
	nameTaken, tagTaken, err := repo.ClanNameOrTagExists(name, tag)
	if err != nil {
		return nil, err
	}
	if nameTaken {
		return nil, ErrNameTaken
	}
	if tagTaken {
		return nil, ErrTagTaken
	}

	c := &game.Clan{
		ID:        uuid.NewString(),
		Name:      name,
		Tag:       tag,
		OwnerID:   telegramID,
		CreatedAt: now,
	}
	founder := &game.ClanMember{
		ClanID:   c.ID,
		UserID:   telegramID,
		Role:     game.RoleLeader,
		JoinedAt: now,
	}
	if err := repo.CreateClan(c, founder); err != nil {
		return nil, err
	}
	return c, nil
}

// JoinClanByTag enrolls the caller as a novice in the clan with the
// given tag. Any prior membership is silently abandoned.
func JoinClanByTag(repo ClanRepo, telegramID, tag string, now time.Time) (*game.Clan, error) {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if !clanTagRe.MatchString(tag) {
		return nil, ErrInvalidTag
	}
	if _, err := repo.GetPlayerByTelegramID(telegramID); err != nil {
		return nil, ErrPlayerNotFound
	}
	c, err := repo.GetClanByTag(tag)
	if err != nil {
		return nil, ErrClanNotFound
	}
	if m, err := repo.GetMembership(telegramID); err == nil && m.ClanID == c.ID {
		return c, nil
	}
	m := &game.ClanMember{
		ClanID:   c.ID,
		UserID:   telegramID,
		Role:     game.RoleNovice,
		JoinedAt: now,
	}
	if err := repo.AddMember(m); err != nil {
		return nil, err
	}
	return c, nil
}

// Contribute moves gold from the player into the clan ledger and
// returns the new bank total. The gold is deducted first with a
// conditional update; the bank, quest progress and weekly score then
// move in one transaction.
func Contribute(repo ClanRepo, telegramID string, amount int, now time.Time) (int, error) {
	if amount <= 0 {
		return 0, ErrAmountPositive
	}
	m, err := repo.GetMembership(telegramID)
	if err != nil {
		return 0, ErrNotInClan
	}
	ok, err := repo.TrySpendGold(telegramID, amount)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotEnoughGold
	}
	if err := repo.ApplyContribution(m.ClanID, amount, period.DayKey(now), period.WeekKey(now)); err != nil {
		return 0, err
	}
	c, err := repo.GetClanByID(m.ClanID)
	if err != nil {
		return 0, err
	}
	return c.Bank, nil
}

// SetRole changes a member's role. Only the leader may do this. Handing
// the leader role to someone else transfers leadership and demotes the
// caller to warden; the leader cannot demote themselves directly.
func SetRole(repo ClanRepo, actorID, targetID, role string) error {
	if !game.ValidRole(role) {
		return ErrInvalidRole
	}
	actor, err := repo.GetMembership(actorID)
	if err != nil {
		return ErrNotInClan
	}
	if actor.Role != game.RoleLeader {
		return ErrForbidden
	}
	target, err := repo.GetMembership(targetID)
	if err != nil || target.ClanID != actor.ClanID {
		return ErrNotInClan
	}
	if targetID == actorID {
		// Re-asserting leader on oneself is a no-op; any other
		// self-assignment would demote the only leader.
		if role == game.RoleLeader {
			return nil
		}
		return ErrForbidden
	}
	if role == game.RoleLeader {
		return repo.TransferLeadership(actor.ClanID, actorID, targetID)
	}
	return repo.UpdateMemberRole(actor.ClanID, targetID, role)
}

// KickMember removes a member from the caller's clan. Leader only, and
// never against themselves.
func KickMember(repo ClanRepo, actorID, targetID string) error {
	actor, err := repo.GetMembership(actorID)
	if err != nil {
		return ErrNotInClan
	}
	if actor.Role != game.RoleLeader {
		return ErrForbidden
	}
	if targetID == actorID {
		return ErrForbidden
	}
	target, err := repo.GetMembership(targetID)
	if err != nil || target.ClanID != actor.ClanID {
		return ErrNotInClan
	}
	return repo.RemoveMember(actor.ClanID, targetID)
}

// LeaveClan removes the caller from their clan. A departing leader hands
// leadership to the longest-standing remaining member; when nobody is
// left the clan and its ledger rows are deleted.
func LeaveClan(repo ClanRepo, telegramID string) error {
	m, err := repo.GetMembership(telegramID)
	if err != nil {
		return ErrNotInClan
	}
	if err := repo.RemoveMember(m.ClanID, telegramID); err != nil {
		return err
	}
	if m.Role != game.RoleLeader {
		return nil
	}
	members, err := repo.ListMembers(m.ClanID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return repo.DeleteClan(m.ClanID)
	}
	return repo.TransferLeadership(m.ClanID, telegramID, members[0].UserID)
}

// SearchClans lists clans matching the query, newest first.
func SearchClans(repo ClanRepo, query string, limit int) ([]game.Clan, error) {
	return repo.SearchClans(query, limit)
}

// GetClanOverview builds the caller's clan screen: the clan row, its
// members decorated with player profiles and the quest progress for the
// current day and week.
func GetClanOverview(repo ClanRepo, telegramID string, now time.Time) (*ClanOverview, error) {
	m, err := repo.GetMembership(telegramID)
	if err != nil {
		return nil, ErrNotInClan
	}
	c, err := repo.GetClanByID(m.ClanID)
	if err != nil {
		return nil, ErrClanNotFound
	}
	members, err := ListClanMembers(repo, m.ClanID)
	if err != nil {
		return nil, err
	}
	quests, err := questViews(repo, m.ClanID, now)
	if err != nil {
		return nil, err
	}
	return &ClanOverview{Clan: c, Role: m.Role, Members: members, Quests: quests}, nil
}

// ListClanMembers returns the clan roster joined with player profiles,
// ordered by join time.
func ListClanMembers(repo ClanRepo, clanID string) ([]MemberView, error) {
	members, err := repo.ListMembers(clanID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(members))
	for i, mm := range members {
		ids[i] = mm.UserID
	}
	players, err := repo.GetPlayersByTelegramIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]game.Player, len(players))
	for _, p := range players {
		byID[p.TelegramID] = p
	}
	out := make([]MemberView, 0, len(members))
	for _, mm := range members {
		v := MemberView{UserID: mm.UserID, Role: mm.Role, JoinedAt: mm.JoinedAt}
		if p, ok := byID[mm.UserID]; ok {
			v.Name = p.Name
			v.Level = p.Level
		}
		out = append(out, v)
	}
	return out, nil
}

func questViews(repo ClanRepo, clanID string, now time.Time) ([]QuestView, error) {
	quests, err := repo.GetQuests()
	if err != nil {
		return nil, err
	}
	dayKey := period.DayKey(now)
	weekKey := period.WeekKey(now)
	states, err := repo.GetQuestStates(clanID, []string{dayKey, weekKey})
	if err != nil {
		return nil, err
	}
	type stateKey struct{ questID, periodKey string }
	byKey := make(map[stateKey]game.ClanQuestState, len(states))
	for _, st := range states {
		byKey[stateKey{st.QuestID, st.PeriodKey}] = st
	}
	out := make([]QuestView, 0, len(quests))
	for _, q := range quests {
		key := dayKey
		if q.Period == game.PeriodWeekly {
			key = weekKey
		}
		v := QuestView{Quest: q, PeriodKey: key}
		if st, ok := byKey[stateKey{q.ID, key}]; ok {
			v.Progress = st.Progress
			v.Completed = st.Completed
		}
		out = append(out, v)
	}
	return out, nil
}

// WeeklyTopClans returns the weekly clan leaderboard for the week
// containing now.
func WeeklyTopClans(repo ClanRepo, limit int, now time.Time) ([]storage.WeeklyTopEntry, error) {
	return repo.WeeklyTop(period.WeekKey(now), limit)
}
