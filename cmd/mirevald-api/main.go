package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mirevald/backend/internal/api"
	"github.com/mirevald/backend/internal/battle"
	"github.com/mirevald/backend/internal/config"
	"github.com/mirevald/backend/internal/constants"
	"github.com/mirevald/backend/internal/logging"
	"github.com/mirevald/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// The bot token is required unless the dev auth bypass is active.
	if os.Getenv(constants.EnvAuthBypass) != "1" {
		checkEnvVars([]string{constants.EnvTelegramBotToken})
	}

	// Load the game configuration file (required). Path may be provided
	// via MIREVALD_CONFIG or defaults to ./mirevald_config.json in the
	// current working directory.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = "./mirevald_config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Fatal("Missing or invalid game configuration", err, logging.Fields{"config_path": configPath, "hint": "create a mirevald_config.json with 'monster_list', 'arena_opponents' and 'clan_quest_list' arrays and optional keys: server.address, energy{max,regen_seconds,hunt_cost,arena_cost}"})
	}

	// Allow the DB path to be configured via MIREVALD_DB. Default to a
	// `data/` directory inside the module for local development.
	dbPath := os.Getenv(constants.EnvDBPath)
	if dbPath == "" {
		dbPath = "./data/mirevald.db"
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logging.Fatal("Failed to create database directory", err, nil)
	}
	db, err := storage.OpenAndMigrate(dbPath, cfg.ClanQuests)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}

	repo := storage.NewSQLiteRepository(db)
	handler := api.NewGameHandler(repo, cfg, battle.NewSeededRand(time.Now().UnixNano()))

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.GET(constants.RouteHealthz, func(c *gin.Context) { c.JSON(200, gin.H{constants.JSONKeyOK: true}) })
		apiRoutes.POST(constants.RouteAuthVerify, handler.VerifyAuth)
		apiRoutes.GET(constants.RouteLeaderboard, handler.ListLeaderboard)
		apiRoutes.GET(constants.RouteClanTopWeekly, handler.WeeklyTopClans)

		// Authenticated endpoints
		protected := apiRoutes.Group("")
		protected.Use(handler.AuthRequired())

		protected.GET(constants.RouteMe, handler.GetMe)
		protected.POST(constants.RoutePlayerName, handler.UpdatePlayerName)

		protected.GET(constants.RouteMonsters, handler.ListMonsters)
		protected.GET(constants.RouteArenaOpponents, handler.ListArenaOpponents)
		protected.POST(constants.RouteBattleResolve, handler.ResolveBattle)
		protected.POST(constants.RouteArenaFight, handler.ArenaFight)

		protected.POST(constants.RouteDuelChallenge, handler.ChallengeDuel)
		protected.POST(constants.RouteDuelAccept, handler.AcceptDuel)
		protected.GET(constants.RouteDuelByID, handler.GetDuel)
		protected.POST(constants.RouteDuelAct, handler.ActDuel)

		protected.POST(constants.RouteClanCreate, handler.CreateClan)
		protected.POST(constants.RouteClanJoin, handler.JoinClan)
		protected.POST(constants.RouteClanLeave, handler.LeaveClan)
		protected.POST(constants.RouteClanContribute, handler.ContributeToClan)
		protected.POST(constants.RouteClanRole, handler.SetClanRole)
		protected.POST(constants.RouteClanKick, handler.KickFromClan)
		protected.GET(constants.RouteClanMe, handler.GetMyClan)
		protected.GET(constants.RouteClanMembers, handler.ListClanMembers)
		protected.GET(constants.RouteClanSearch, handler.SearchClans)
	}

	// Start server on configured address
	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}

func checkEnvVars(vars []string) {
	for _, v := range vars {
		if os.Getenv(v) == "" {
			logging.Fatal("Required environment variable not set", nil, logging.Fields{"var": v})
		}
	}
}
