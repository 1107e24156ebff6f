package storage

import (
	"strings"
	"time"

	"github.com/mirevald/backend/internal/game"
	"github.com/mirevald/backend/internal/period"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func nowUTC() time.Time { return time.Now().UTC() }

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) GetPlayerByTelegramID(telegramID string) (*game.Player, error) {
	var p game.Player
	if err := r.db.Where("telegram_id = ?", telegramID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *sqliteRepository) GetPlayersByTelegramIDs(ids []string) ([]game.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var players []game.Player
	if err := r.db.Where("telegram_id IN ?", ids).Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (r *sqliteRepository) SavePlayer(p *game.Player) error {
	return r.db.Save(p).Error
}

func (r *sqliteRepository) TrySpendGold(telegramID string, amount int) (bool, error) {
	res := r.db.Model(&game.Player{}).
		Where("telegram_id = ? AND gold >= ?", telegramID, amount).
		Update("gold", gorm.Expr("gold - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetTopPlayers returns top N players ordered by Level desc, then Gold desc.
func (r *sqliteRepository) GetTopPlayers(limit int) ([]game.Player, error) {
	if limit <= 0 {
		limit = 10
	}
	var players []game.Player
	if err := r.db.Model(&game.Player{}).
		Order("level DESC").
		Order("gold DESC").
		Limit(limit).
		Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (r *sqliteRepository) ApplyBattleOutcome(p *game.Player, clanID, dayKey, weekKey string, scoreDelta int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		if clanID != "" && scoreDelta > 0 {
			return advanceLedger(tx, clanID, scoreDelta, dayKey, weekKey)
		}
		return nil
	})
}

func (r *sqliteRepository) CreateDuel(d *game.Duel) error {
	return r.db.Create(d).Error
}

func (r *sqliteRepository) GetDuelByID(id string) (*game.Duel, error) {
	var d game.Duel
	if err := r.db.First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *sqliteRepository) UpdateDuelVersioned(d *game.Duel) error {
	next := *d
	next.Version = d.Version + 1
	res := r.db.Model(&game.Duel{}).
		Where("id = ? AND version = ?", d.ID, d.Version).
		Select("*").
		Omit("created_at").
		Updates(&next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	d.Version = next.Version
	return nil
}

func (r *sqliteRepository) CreateClan(c *game.Clan, founder *game.ClanMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", founder.UserID).Delete(&game.ClanMember{}).Error; err != nil {
			return err
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Create(founder).Error
	})
}

func (r *sqliteRepository) GetClanByID(id string) (*game.Clan, error) {
	var c game.Clan
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) GetClanByTag(tag string) (*game.Clan, error) {
	var c game.Clan
	if err := r.db.Where("tag = ?", tag).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) ClanNameOrTagExists(name, tag string) (bool, bool, error) {
	var nameCount, tagCount int64
	if err := r.db.Model(&game.Clan{}).Where("lower(name) = ?", strings.ToLower(name)).Count(&nameCount).Error; err != nil {
		return false, false, err
	}
	if err := r.db.Model(&game.Clan{}).Where("tag = ?", tag).Count(&tagCount).Error; err != nil {
		return false, false, err
	}
	return nameCount > 0, tagCount > 0, nil
}

func (r *sqliteRepository) SearchClans(query string, limit int) ([]game.Clan, error) {
	if limit <= 0 {
		limit = 20
	}
	var clans []game.Clan
	q := r.db.Model(&game.Clan{}).Order("created_at DESC").Limit(limit)
	if s := strings.TrimSpace(query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("lower(name) LIKE ? OR lower(tag) LIKE ?", like, like)
	}
	if err := q.Find(&clans).Error; err != nil {
		return nil, err
	}
	return clans, nil
}

// DeleteClan removes the clan together with its memberships, weekly
// scores and quest progress.
func (r *sqliteRepository) DeleteClan(clanID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("clan_id = ?", clanID).Delete(&game.ClanMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("clan_id = ?", clanID).Delete(&game.ClanScoreWeekly{}).Error; err != nil {
			return err
		}
		if err := tx.Where("clan_id = ?", clanID).Delete(&game.ClanQuestState{}).Error; err != nil {
			return err
		}
		return tx.Delete(&game.Clan{}, "id = ?", clanID).Error
	})
}

func (r *sqliteRepository) GetMembership(userID string) (*game.ClanMember, error) {
	var m game.ClanMember
	if err := r.db.Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *sqliteRepository) ListMembers(clanID string) ([]game.ClanMember, error) {
	var members []game.ClanMember
	if err := r.db.Where("clan_id = ?", clanID).Order("joined_at ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *sqliteRepository) AddMember(m *game.ClanMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", m.UserID).Delete(&game.ClanMember{}).Error; err != nil {
			return err
		}
		return tx.Create(m).Error
	})
}

func (r *sqliteRepository) UpdateMemberRole(clanID, userID, role string) error {
	return r.db.Model(&game.ClanMember{}).
		Where("clan_id = ? AND user_id = ?", clanID, userID).
		Update("role", role).Error
}

func (r *sqliteRepository) RemoveMember(clanID, userID string) error {
	return r.db.Where("clan_id = ? AND user_id = ?", clanID, userID).Delete(&game.ClanMember{}).Error
}

func (r *sqliteRepository) TransferLeadership(clanID, fromUserID, toUserID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&game.ClanMember{}).
			Where("clan_id = ? AND user_id = ?", clanID, toUserID).
			Update("role", game.RoleLeader)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&game.ClanMember{}).
			Where("clan_id = ? AND user_id = ?", clanID, fromUserID).
			Update("role", game.RoleWarden).Error; err != nil {
			return err
		}
		return tx.Model(&game.Clan{}).Where("id = ?", clanID).Update("owner_id", toUserID).Error
	})
}

// ApplyContribution is the clan ledger's single write path: bank, quest
// progress and weekly score move together or not at all. The active
// quest is the daily quest for dayKey until completed, then the weekly
// quest for weekKey. Progress is left uncapped and completion never
// flips back.
func (r *sqliteRepository) ApplyContribution(clanID string, amount int, dayKey, weekKey string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&game.Clan{}).
			Where("id = ?", clanID).
			Update("bank", gorm.Expr("bank + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return advanceLedger(tx, clanID, amount, dayKey, weekKey)
	})
}

// advanceLedger moves the quest progress and weekly score for amount
// earned points. Battle wins reuse it without touching the bank.
func advanceLedger(tx *gorm.DB, clanID string, amount int, dayKey, weekKey string) error {
	var quests []game.ClanQuest
	if err := tx.Order("id ASC").Find(&quests).Error; err != nil {
		return err
	}
	if quest, key, ok := pickActiveQuest(tx, clanID, quests, dayKey, weekKey); ok {
		state := game.ClanQuestState{ClanID: clanID, QuestID: quest.ID, PeriodKey: key}
		if err := tx.Where(&state).FirstOrCreate(&state).Error; err != nil {
			return err
		}
		state.Progress += amount
		if state.Progress >= quest.Target {
			state.Completed = true
		}
		if err := tx.Save(&state).Error; err != nil {
			return err
		}
	}
	return addWeeklyScore(tx, clanID, weekKey, amount)
}

// pickActiveQuest finds the quest a contribution should advance. The
// daily quest takes priority and is skipped once completed for the day;
// the weekly quest keeps accumulating even past its target (completion
// is sticky, progress is uncapped).
func pickActiveQuest(tx *gorm.DB, clanID string, quests []game.ClanQuest, dayKey, weekKey string) (game.ClanQuest, string, bool) {
	for _, q := range quests {
		if q.Period != game.PeriodDaily {
			continue
		}
		var st game.ClanQuestState
		err := tx.Where("clan_id = ? AND quest_id = ? AND period_key = ?", clanID, q.ID, dayKey).First(&st).Error
		if err == gorm.ErrRecordNotFound || (err == nil && !st.Completed) {
			return q, dayKey, true
		}
	}
	for _, q := range quests {
		if q.Period == game.PeriodWeekly {
			return q, weekKey, true
		}
	}
	return game.ClanQuest{}, "", false
}

func addWeeklyScore(tx *gorm.DB, clanID, weekKey string, delta int) error {
	row := game.ClanScoreWeekly{ClanID: clanID, WeekKey: weekKey, Score: delta}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "clan_id"}, {Name: "week_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"score": gorm.Expr("score + ?", delta)}),
	}).Create(&row).Error
}

func (r *sqliteRepository) AddWeeklyScore(clanID, weekKey string, delta int) error {
	return addWeeklyScore(r.db, clanID, weekKey, delta)
}

func (r *sqliteRepository) WeeklyTop(weekKey string, limit int) ([]WeeklyTopEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	var entries []WeeklyTopEntry
	err := r.db.Model(&game.ClanScoreWeekly{}).
		Select("clan_scores_weekly.clan_id AS clan_id, clans.name AS name, clans.tag AS tag, clan_scores_weekly.score AS score").
		Joins("JOIN clans ON clans.id = clan_scores_weekly.clan_id").
		Where("clan_scores_weekly.week_key = ?", weekKey).
		Order("clan_scores_weekly.score DESC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *sqliteRepository) GetQuests() ([]game.ClanQuest, error) {
	var quests []game.ClanQuest
	if err := r.db.Order("id ASC").Find(&quests).Error; err != nil {
		return nil, err
	}
	return quests, nil
}

func (r *sqliteRepository) GetQuestStates(clanID string, periodKeys []string) ([]game.ClanQuestState, error) {
	if len(periodKeys) == 0 {
		periodKeys = []string{period.DayKey(nowUTC()), period.WeekKey(nowUTC())}
	}
	var states []game.ClanQuestState
	if err := r.db.Where("clan_id = ? AND period_key IN ?", clanID, periodKeys).Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}
