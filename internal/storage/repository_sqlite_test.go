package storage

import (
	"testing"
	"time"

	"github.com/mirevald/backend/internal/game"
)

func testRepo(t *testing.T) Repository {
	t.Helper()
	quests := []game.ClanQuest{
		{ID: "daily-tithe", Title: "Daily Tithe", Target: 30, Period: game.PeriodDaily},
		{ID: "weekly-hoard", Title: "Weekly Hoard", Target: 200, Period: game.PeriodWeekly},
	}
	db, err := OpenAndMigrate(":memory:", quests)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return NewSQLiteRepository(db)
}

func seedClan(t *testing.T, repo Repository, clanID, leaderID string) {
	t.Helper()
	now := time.Now().UTC()
	err := repo.CreateClan(
		&game.Clan{ID: clanID, Name: "Clan " + clanID, Tag: "T" + clanID, OwnerID: leaderID, CreatedAt: now},
		&game.ClanMember{ClanID: clanID, UserID: leaderID, Role: game.RoleLeader, JoinedAt: now},
	)
	if err != nil {
		t.Fatalf("create clan: %v", err)
	}
}

func TestTrySpendGold(t *testing.T) {
	repo := testRepo(t)
	if err := repo.SavePlayer(&game.Player{TelegramID: "u1", Name: "One", Gold: 30}); err != nil {
		t.Fatalf("save: %v", err)
	}

	ok, err := repo.TrySpendGold("u1", 20)
	if err != nil || !ok {
		t.Fatalf("spend within balance: ok=%v err=%v", ok, err)
	}
	ok, err = repo.TrySpendGold("u1", 20)
	if err != nil || ok {
		t.Fatalf("overspend must be refused: ok=%v err=%v", ok, err)
	}
	p, _ := repo.GetPlayerByTelegramID("u1")
	if p.Gold != 10 {
		t.Fatalf("gold = %d, want 10", p.Gold)
	}
}

func TestApplyContribution_QuestPolicy(t *testing.T) {
	repo := testRepo(t)
	seedClan(t, repo, "c1", "u1")

	// First contribution completes the daily quest (target 30) and the
	// progress stays uncapped.
	if err := repo.ApplyContribution("c1", 40, "2025-03-14", "2025-11"); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	states, err := repo.GetQuestStates("c1", []string{"2025-03-14", "2025-11"})
	if err != nil || len(states) != 1 {
		t.Fatalf("states: %v %v", states, err)
	}
	if states[0].QuestID != "daily-tithe" || !states[0].Completed || states[0].Progress != 40 {
		t.Fatalf("daily state: %+v", states[0])
	}

	// The daily quest is done for this day, so the next contribution
	// advances the weekly one.
	if err := repo.ApplyContribution("c1", 10, "2025-03-14", "2025-11"); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	states, _ = repo.GetQuestStates("c1", []string{"2025-03-14", "2025-11"})
	if len(states) != 2 {
		t.Fatalf("expected daily and weekly states, got %+v", states)
	}

	// A new day key starts the daily quest from zero again.
	if err := repo.ApplyContribution("c1", 5, "2025-03-15", "2025-11"); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	states, _ = repo.GetQuestStates("c1", []string{"2025-03-15"})
	if len(states) != 1 || states[0].QuestID != "daily-tithe" || states[0].Progress != 5 || states[0].Completed {
		t.Fatalf("fresh day state: %+v", states)
	}

	c, _ := repo.GetClanByID("c1")
	if c.Bank != 55 {
		t.Fatalf("bank = %d, want 55", c.Bank)
	}
}

func TestApplyContribution_WeeklyAccumulatesPastCompletion(t *testing.T) {
	repo := testRepo(t)
	seedClan(t, repo, "c1", "u1")

	// 40 completes the daily (target 30), 250 completes the weekly
	// (target 200). Further contributions keep landing on the weekly
	// quest; its progress is never frozen by completion.
	repo.ApplyContribution("c1", 40, "2025-03-14", "2025-11")
	repo.ApplyContribution("c1", 250, "2025-03-14", "2025-11")
	if err := repo.ApplyContribution("c1", 10, "2025-03-14", "2025-11"); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	states, err := repo.GetQuestStates("c1", []string{"2025-11"})
	if err != nil || len(states) != 1 {
		t.Fatalf("states: %+v %v", states, err)
	}
	if states[0].QuestID != "weekly-hoard" || states[0].Progress != 260 || !states[0].Completed {
		t.Fatalf("weekly state: %+v", states[0])
	}
}

func TestApplyContribution_WeeklyScoreAccumulates(t *testing.T) {
	repo := testRepo(t)
	seedClan(t, repo, "c1", "u1")
	seedClan(t, repo, "c2", "u2")

	repo.ApplyContribution("c1", 10, "2025-03-14", "2025-11")
	repo.ApplyContribution("c1", 15, "2025-03-14", "2025-11")
	repo.ApplyContribution("c2", 40, "2025-03-14", "2025-11")
	repo.AddWeeklyScore("c1", "2025-12", 99) // different week, must not leak

	top, err := repo.WeeklyTop("2025-11", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].ClanID != "c2" || top[0].Score != 40 || top[1].Score != 25 {
		t.Fatalf("unexpected standings: %+v", top)
	}
	if top[0].Tag != "Tc2" {
		t.Fatalf("clan fields not joined: %+v", top[0])
	}
}

func TestApplyBattleOutcome(t *testing.T) {
	repo := testRepo(t)
	seedClan(t, repo, "c1", "u1")
	p := &game.Player{TelegramID: "u1", Name: "One", Gold: 10}
	repo.SavePlayer(p)

	p.Gold = 25
	p.Wins = 1
	if err := repo.ApplyBattleOutcome(p, "c1", "2025-03-14", "2025-11", 12); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, _ := repo.GetPlayerByTelegramID("u1")
	if got.Gold != 25 || got.Wins != 1 {
		t.Fatalf("player not persisted: %+v", got)
	}
	states, _ := repo.GetQuestStates("c1", []string{"2025-03-14"})
	if len(states) != 1 || states[0].Progress != 12 {
		t.Fatalf("quest progress: %+v", states)
	}
	top, _ := repo.WeeklyTop("2025-11", 10)
	if len(top) != 1 || top[0].Score != 12 {
		t.Fatalf("weekly score: %+v", top)
	}
	// Battle wins never touch the clan bank.
	c, _ := repo.GetClanByID("c1")
	if c.Bank != 0 {
		t.Fatalf("bank = %d, want 0", c.Bank)
	}

	// A loss or a clanless fight saves the player and nothing else.
	p.Losses = 1
	if err := repo.ApplyBattleOutcome(p, "", "2025-03-14", "2025-11", 0); err != nil {
		t.Fatalf("apply clanless: %v", err)
	}
	if top, _ := repo.WeeklyTop("2025-11", 10); top[0].Score != 12 {
		t.Fatalf("score moved without a clan: %+v", top)
	}
}

func TestUpdateDuelVersioned_CAS(t *testing.T) {
	repo := testRepo(t)
	d := &game.Duel{ID: "d1", Status: game.DuelStatusWaiting, AID: "u1", AName: "One", AHP: 100, AMaxHP: 100, Log: []string{}}
	if err := repo.CreateDuel(d); err != nil {
		t.Fatalf("create: %v", err)
	}

	fresh, _ := repo.GetDuelByID("d1")
	stale, _ := repo.GetDuelByID("d1")

	fresh.Status = game.DuelStatusActive
	fresh.Log = append(fresh.Log, "joined")
	if err := repo.UpdateDuelVersioned(fresh); err != nil {
		t.Fatalf("first update: %v", err)
	}

	stale.Status = game.DuelStatusFinished
	if err := repo.UpdateDuelVersioned(stale); err != ErrVersionConflict {
		t.Fatalf("stale update must conflict, got %v", err)
	}

	got, _ := repo.GetDuelByID("d1")
	if got.Status != game.DuelStatusActive || len(got.Log) != 1 {
		t.Fatalf("stored duel wrong: %+v", got)
	}
	if err := repo.UpdateDuelVersioned(got); err != nil {
		t.Fatalf("re-read update should pass: %v", err)
	}
}

func TestMembershipAndDeleteClanCascade(t *testing.T) {
	repo := testRepo(t)
	seedClan(t, repo, "c1", "u1")
	now := time.Now().UTC()

	if err := repo.AddMember(&game.ClanMember{ClanID: "c1", UserID: "u2", Role: game.RoleNovice, JoinedAt: now}); err != nil {
		t.Fatalf("add: %v", err)
	}
	seedClan(t, repo, "c2", "u3")
	// Joining another clan replaces the old membership row.
	if err := repo.AddMember(&game.ClanMember{ClanID: "c2", UserID: "u2", Role: game.RoleNovice, JoinedAt: now}); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	m, err := repo.GetMembership("u2")
	if err != nil || m.ClanID != "c2" {
		t.Fatalf("membership: %+v %v", m, err)
	}

	repo.ApplyContribution("c2", 10, "2025-03-14", "2025-11")
	if err := repo.DeleteClan("c2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetClanByID("c2"); err == nil {
		t.Fatalf("clan row should be gone")
	}
	if _, err := repo.GetMembership("u2"); err == nil {
		t.Fatalf("membership rows should be gone")
	}
	if top, _ := repo.WeeklyTop("2025-11", 10); len(top) != 0 {
		t.Fatalf("weekly scores should be gone, got %+v", top)
	}
	if states, _ := repo.GetQuestStates("c2", []string{"2025-03-14"}); len(states) != 0 {
		t.Fatalf("quest states should be gone, got %+v", states)
	}
}

func TestTransferLeadership(t *testing.T) {
	repo := testRepo(t)
	seedClan(t, repo, "c1", "u1")
	now := time.Now().UTC()
	repo.AddMember(&game.ClanMember{ClanID: "c1", UserID: "u2", Role: game.RoleNovice, JoinedAt: now})

	if err := repo.TransferLeadership("c1", "u1", "u2"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	m2, _ := repo.GetMembership("u2")
	m1, _ := repo.GetMembership("u1")
	c, _ := repo.GetClanByID("c1")
	if m2.Role != game.RoleLeader || m1.Role != game.RoleWarden || c.OwnerID != "u2" {
		t.Fatalf("transfer incomplete: %+v %+v %+v", m2, m1, c)
	}

	if err := repo.TransferLeadership("c1", "u2", "ghost"); err == nil {
		t.Fatalf("transfer to non-member must fail")
	}
}
