package storage

import (
	"github.com/mirevald/backend/internal/game"
	"github.com/mirevald/backend/internal/logging"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func OpenAndMigrate(dataSourceName string, questsFromConfig []game.ClanQuest) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&game.Player{},
		&game.Duel{},
		&game.Clan{},
		&game.ClanMember{},
		&game.ClanQuest{},
		&game.ClanQuestState{},
		&game.ClanScoreWeekly{},
	)
	if err != nil {
		return nil, err
	}

	seedQuests(db, questsFromConfig)
	return db, nil
}

// seedQuests upserts the configured quest catalog. The config file is the
// source of truth: rows are refreshed on every startup so stat changes
// land without a manual migration, but progress rows are never touched.
func seedQuests(db *gorm.DB, quests []game.ClanQuest) {
	if len(quests) == 0 {
		return
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "target", "period", "reward_gold", "reward_xp"}),
	}).Create(&quests).Error
	if err != nil {
		logging.Error("failed to seed clan quests", err, nil)
		return
	}
	logging.Info("clan quests seeded", logging.Fields{"count": len(quests)})
}
