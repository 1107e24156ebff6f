package service

import (
	"testing"
	"time"

	"github.com/mirevald/backend/internal/game"
	"github.com/mirevald/backend/internal/period"
	"github.com/mirevald/backend/internal/storage"
)

type mockClanRepo struct {
	players map[string]*game.Player
	clans   map[string]*game.Clan
	members map[string]*game.ClanMember // userID -> membership
	quests  []game.ClanQuest
	states  map[string]*game.ClanQuestState // clanID|questID|periodKey
	scores  map[string]int                  // clanID|weekKey
	deleted []string
}

func newClanFixture() *mockClanRepo {
	return &mockClanRepo{
		players: map[string]*game.Player{
			"u1": {TelegramID: "u1", Name: "One", Level: 5, Gold: 100},
			"u2": {TelegramID: "u2", Name: "Two", Level: 3, Gold: 10},
			"u3": {TelegramID: "u3", Name: "Three", Level: 2, Gold: 0},
		},
		clans:   map[string]*game.Clan{},
		members: map[string]*game.ClanMember{},
		states:  map[string]*game.ClanQuestState{},
		scores:  map[string]int{},
		quests: []game.ClanQuest{
			{ID: "q-daily", Title: "Daily tithe", Target: 30, Period: game.PeriodDaily},
			{ID: "q-weekly", Title: "Weekly hoard", Target: 200, Period: game.PeriodWeekly},
		},
	}
}

func (m *mockClanRepo) GetPlayerByTelegramID(id string) (*game.Player, error) {
	if p, ok := m.players[id]; ok {
		return p, nil
	}
	return nil, ErrPlayerNotFound
}

func (m *mockClanRepo) GetPlayersByTelegramIDs(ids []string) ([]game.Player, error) {
	out := make([]game.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.players[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockClanRepo) TrySpendGold(id string, amount int) (bool, error) {
	p, ok := m.players[id]
	if !ok || p.Gold < amount {
		return false, nil
	}
	p.Gold -= amount
	return true, nil
}

func (m *mockClanRepo) CreateClan(c *game.Clan, founder *game.ClanMember) error {
	m.clans[c.ID] = c
	m.members[founder.UserID] = founder
	return nil
}

func (m *mockClanRepo) GetClanByID(id string) (*game.Clan, error) {
	if c, ok := m.clans[id]; ok {
		return c, nil
	}
	return nil, ErrClanNotFound
}

func (m *mockClanRepo) GetClanByTag(tag string) (*game.Clan, error) {
	for _, c := range m.clans {
		if c.Tag == tag {
			return c, nil
		}
	}
	return nil, ErrClanNotFound
}

func (m *mockClanRepo) ClanNameOrTagExists(name, tag string) (bool, bool, error) {
	var nameTaken, tagTaken bool
	for _, c := range m.clans {
		if c.Name == name {
			nameTaken = true
		}
		if c.Tag == tag {
			tagTaken = true
		}
	}
	return nameTaken, tagTaken, nil
}

func (m *mockClanRepo) SearchClans(query string, limit int) ([]game.Clan, error) {
	out := make([]game.Clan, 0, len(m.clans))
	for _, c := range m.clans {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockClanRepo) DeleteClan(clanID string) error {
	delete(m.clans, clanID)
	m.deleted = append(m.deleted, clanID)
	return nil
}

func (m *mockClanRepo) GetMembership(userID string) (*game.ClanMember, error) {
	if mm, ok := m.members[userID]; ok {
		return mm, nil
	}
	return nil, ErrNotInClan
}

func (m *mockClanRepo) ListMembers(clanID string) ([]game.ClanMember, error) {
	out := []game.ClanMember{}
	for _, id := range []string{"u1", "u2", "u3"} { // stable join order
		if mm, ok := m.members[id]; ok && mm.ClanID == clanID {
			out = append(out, *mm)
		}
	}
	return out, nil
}

func (m *mockClanRepo) AddMember(mm *game.ClanMember) error {
	m.members[mm.UserID] = mm
	return nil
}

func (m *mockClanRepo) UpdateMemberRole(clanID, userID, role string) error {
	if mm, ok := m.members[userID]; ok && mm.ClanID == clanID {
		mm.Role = role
	}
	return nil
}

func (m *mockClanRepo) RemoveMember(clanID, userID string) error {
	if mm, ok := m.members[userID]; ok && mm.ClanID == clanID {
		delete(m.members, userID)
	}
	return nil
}

func (m *mockClanRepo) TransferLeadership(clanID, fromUserID, toUserID string) error {
	if mm, ok := m.members[toUserID]; ok && mm.ClanID == clanID {
		mm.Role = game.RoleLeader
	}
	if mm, ok := m.members[fromUserID]; ok && mm.ClanID == clanID {
		mm.Role = game.RoleWarden
	}
	if c, ok := m.clans[clanID]; ok {
		c.OwnerID = toUserID
	}
	return nil
}

func (m *mockClanRepo) ApplyContribution(clanID string, amount int, dayKey, weekKey string) error {
	c, ok := m.clans[clanID]
	if !ok {
		return ErrClanNotFound
	}
	c.Bank += amount
	applied := false
	for _, q := range m.quests {
		if q.Period != game.PeriodDaily {
			continue
		}
		sk := clanID + "|" + q.ID + "|" + dayKey
		if st, ok := m.states[sk]; ok && st.Completed {
			continue
		}
		m.advanceQuest(sk, clanID, q, dayKey, amount)
		applied = true
		break
	}
	if !applied {
		for _, q := range m.quests {
			if q.Period != game.PeriodWeekly {
				continue
			}
			// The weekly quest keeps accumulating even once completed.
			m.advanceQuest(clanID+"|"+q.ID+"|"+weekKey, clanID, q, weekKey, amount)
			break
		}
	}
	m.scores[clanID+"|"+weekKey] += amount
	return nil
}

func (m *mockClanRepo) advanceQuest(sk, clanID string, q game.ClanQuest, key string, amount int) {
	st, ok := m.states[sk]
	if !ok {
		st = &game.ClanQuestState{ClanID: clanID, QuestID: q.ID, PeriodKey: key}
		m.states[sk] = st
	}
	st.Progress += amount
	if st.Progress >= q.Target {
		st.Completed = true
	}
}

func (m *mockClanRepo) WeeklyTop(weekKey string, limit int) ([]storage.WeeklyTopEntry, error) {
	out := []storage.WeeklyTopEntry{}
	for _, c := range m.clans {
		if s, ok := m.scores[c.ID+"|"+weekKey]; ok {
			out = append(out, storage.WeeklyTopEntry{ClanID: c.ID, Name: c.Name, Tag: c.Tag, Score: s})
		}
	}
	return out, nil
}

func (m *mockClanRepo) GetQuests() ([]game.ClanQuest, error) { return m.quests, nil }

func (m *mockClanRepo) GetQuestStates(clanID string, periodKeys []string) ([]game.ClanQuestState, error) {
	out := []game.ClanQuestState{}
	for _, st := range m.states {
		if st.ClanID != clanID {
			continue
		}
		for _, k := range periodKeys {
			if st.PeriodKey == k {
				out = append(out, *st)
			}
		}
	}
	return out, nil
}

var clanNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func TestCreateClan_ValidationAndConflicts(t *testing.T) {
	mr := newClanFixture()

	if _, err := CreateClan(mr, "u1", "x", "WOLF", clanNow); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := CreateClan(mr, "u1", "Wolves", "W", clanNow); err != ErrInvalidTag {
		t.Fatalf("expected ErrInvalidTag, got %v", err)
	}

	c, err := CreateClan(mr, "u1", "Wolves", "wolf", clanNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Tag != "WOLF" {
		t.Fatalf("tag should be uppercased, got %q", c.Tag)
	}
	if mr.members["u1"].Role != game.RoleLeader {
		t.Fatalf("founder should be leader")
	}

	if _, err := CreateClan(mr, "u2", "Wolves", "BEAR", clanNow); err != ErrNameTaken {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if _, err := CreateClan(mr, "u2", "Bears", "WOLF", clanNow); err != ErrTagTaken {
		t.Fatalf("expected ErrTagTaken, got %v", err)
	}
}

func TestJoinClanByTag_AbandonsPriorClan(t *testing.T) {
	mr := newClanFixture()
	c1, _ := CreateClan(mr, "u1", "Wolves", "WOLF", clanNow)
	c2, _ := CreateClan(mr, "u2", "Bears", "BEAR", clanNow)

	if _, err := JoinClanByTag(mr, "u3", "wolf", clanNow); err != nil {
		t.Fatalf("join: %v", err)
	}
	if mr.members["u3"].ClanID != c1.ID || mr.members["u3"].Role != game.RoleNovice {
		t.Fatalf("unexpected membership: %+v", mr.members["u3"])
	}

	if _, err := JoinClanByTag(mr, "u3", "BEAR", clanNow); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if mr.members["u3"].ClanID != c2.ID {
		t.Fatalf("prior clan should be abandoned")
	}

	if _, err := JoinClanByTag(mr, "u3", "NONE", clanNow); err != ErrClanNotFound {
		t.Fatalf("expected ErrClanNotFound, got %v", err)
	}
}

func TestContribute_LedgerFlow(t *testing.T) {
	mr := newClanFixture()
	c, _ := CreateClan(mr, "u1", "Wolves", "WOLF", clanNow)

	if _, err := Contribute(mr, "u1", 0, clanNow); err != ErrAmountPositive {
		t.Fatalf("expected ErrAmountPositive, got %v", err)
	}
	if _, err := Contribute(mr, "u3", 10, clanNow); err != ErrNotInClan {
		t.Fatalf("expected ErrNotInClan, got %v", err)
	}

	bank, err := Contribute(mr, "u1", 40, clanNow)
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if mr.players["u1"].Gold != 60 {
		t.Fatalf("gold not spent: %d", mr.players["u1"].Gold)
	}
	if bank != 40 || c.Bank != 40 {
		t.Fatalf("bank = %d (returned %d)", c.Bank, bank)
	}
	weekKey := period.WeekKey(clanNow)
	if mr.scores[c.ID+"|"+weekKey] != 40 {
		t.Fatalf("weekly score = %d", mr.scores[c.ID+"|"+weekKey])
	}
	// 40 >= daily target 30, so the daily quest completes and stays
	// complete with uncapped progress.
	dayKey := period.DayKey(clanNow)
	st := mr.states[c.ID+"|q-daily|"+dayKey]
	if st == nil || !st.Completed || st.Progress != 40 {
		t.Fatalf("daily quest state: %+v", st)
	}

	// Next contribution falls through to the weekly quest.
	if _, err := Contribute(mr, "u1", 20, clanNow); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	wst := mr.states[c.ID+"|q-weekly|"+weekKey]
	if wst == nil || wst.Progress != 20 || wst.Completed {
		t.Fatalf("weekly quest state: %+v", wst)
	}

	if _, err := Contribute(mr, "u2", 999, clanNow); err != ErrNotInClan {
		t.Fatalf("expected ErrNotInClan, got %v", err)
	}
	JoinClanByTag(mr, "u2", "WOLF", clanNow)
	if _, err := Contribute(mr, "u2", 999, clanNow); err != ErrNotEnoughGold {
		t.Fatalf("expected ErrNotEnoughGold, got %v", err)
	}
}

func TestContribute_WeeklyAccumulatesPastCompletion(t *testing.T) {
	mr := newClanFixture()
	c, _ := CreateClan(mr, "u1", "Wolves", "WOLF", clanNow)

	dayKey := period.DayKey(clanNow)
	weekKey := period.WeekKey(clanNow)
	mr.states[c.ID+"|q-daily|"+dayKey] = &game.ClanQuestState{
		ClanID: c.ID, QuestID: "q-daily", PeriodKey: dayKey, Progress: 35, Completed: true,
	}
	mr.states[c.ID+"|q-weekly|"+weekKey] = &game.ClanQuestState{
		ClanID: c.ID, QuestID: "q-weekly", PeriodKey: weekKey, Progress: 205, Completed: true,
	}

	if _, err := Contribute(mr, "u1", 10, clanNow); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	wst := mr.states[c.ID+"|q-weekly|"+weekKey]
	if wst.Progress != 215 || !wst.Completed {
		t.Fatalf("weekly quest should keep accumulating: %+v", wst)
	}
	dst := mr.states[c.ID+"|q-daily|"+dayKey]
	if dst.Progress != 35 {
		t.Fatalf("completed daily quest must stay frozen: %+v", dst)
	}
}

func TestSetRole_Rules(t *testing.T) {
	mr := newClanFixture()
	CreateClan(mr, "u1", "Wolves", "WOLF", clanNow)
	JoinClanByTag(mr, "u2", "WOLF", clanNow)

	if err := SetRole(mr, "u2", "u1", game.RoleSeer); err != ErrForbidden {
		t.Fatalf("non-leader should be forbidden, got %v", err)
	}
	if err := SetRole(mr, "u1", "u2", "king"); err != ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if err := SetRole(mr, "u1", "u1", game.RoleNovice); err != ErrForbidden {
		t.Fatalf("self-demotion should be forbidden, got %v", err)
	}
	// Re-asserting the leader role on oneself is a harmless no-op.
	if err := SetRole(mr, "u1", "u1", game.RoleLeader); err != nil {
		t.Fatalf("self leader no-op should succeed, got %v", err)
	}
	if mr.members["u1"].Role != game.RoleLeader {
		t.Fatalf("leader role changed by no-op: %+v", mr.members["u1"])
	}
	if err := SetRole(mr, "u1", "u3", game.RoleSeer); err != ErrNotInClan {
		t.Fatalf("expected ErrNotInClan for outsider, got %v", err)
	}

	if err := SetRole(mr, "u1", "u2", game.RoleSeer); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if mr.members["u2"].Role != game.RoleSeer {
		t.Fatalf("role not applied")
	}

	// Leadership transfer demotes the old leader to warden.
	if err := SetRole(mr, "u1", "u2", game.RoleLeader); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if mr.members["u2"].Role != game.RoleLeader || mr.members["u1"].Role != game.RoleWarden {
		t.Fatalf("transfer roles wrong: %+v %+v", mr.members["u2"], mr.members["u1"])
	}
}

func TestKickMember_Rules(t *testing.T) {
	mr := newClanFixture()
	CreateClan(mr, "u1", "Wolves", "WOLF", clanNow)
	JoinClanByTag(mr, "u2", "WOLF", clanNow)

	if err := KickMember(mr, "u2", "u1"); err != ErrForbidden {
		t.Fatalf("non-leader kick should be forbidden, got %v", err)
	}
	if err := KickMember(mr, "u1", "u1"); err != ErrForbidden {
		t.Fatalf("self-kick should be forbidden, got %v", err)
	}
	if err := KickMember(mr, "u1", "u2"); err != nil {
		t.Fatalf("kick: %v", err)
	}
	if _, ok := mr.members["u2"]; ok {
		t.Fatalf("member not removed")
	}
}

func TestLeaveClan_LeadershipAndDeletion(t *testing.T) {
	mr := newClanFixture()
	c, _ := CreateClan(mr, "u1", "Wolves", "WOLF", clanNow)
	JoinClanByTag(mr, "u2", "WOLF", clanNow)

	if err := LeaveClan(mr, "u1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if mr.members["u2"].Role != game.RoleLeader {
		t.Fatalf("leadership should pass to remaining member")
	}
	if c.OwnerID != "u2" {
		t.Fatalf("ownership not moved")
	}

	if err := LeaveClan(mr, "u2"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(mr.deleted) != 1 || mr.deleted[0] != c.ID {
		t.Fatalf("empty clan should be deleted, got %v", mr.deleted)
	}

	if err := LeaveClan(mr, "u3"); err != ErrNotInClan {
		t.Fatalf("expected ErrNotInClan, got %v", err)
	}
}

func TestGetClanOverview(t *testing.T) {
	mr := newClanFixture()
	CreateClan(mr, "u1", "Wolves", "WOLF", clanNow)
	JoinClanByTag(mr, "u2", "WOLF", clanNow)
	Contribute(mr, "u1", 10, clanNow)

	ov, err := GetClanOverview(mr, "u1", clanNow)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.Role != game.RoleLeader || len(ov.Members) != 2 {
		t.Fatalf("unexpected overview: role=%q members=%d", ov.Role, len(ov.Members))
	}
	if ov.Members[0].Name != "One" || ov.Members[0].Level != 5 {
		t.Fatalf("member view not joined with profile: %+v", ov.Members[0])
	}
	if len(ov.Quests) != 2 {
		t.Fatalf("expected both quests, got %d", len(ov.Quests))
	}
	for _, q := range ov.Quests {
		if q.Quest.ID == "q-daily" && q.Progress != 10 {
			t.Fatalf("daily progress = %d", q.Progress)
		}
	}
}
