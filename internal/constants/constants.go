package constants

// Centralized constants for env keys, headers and route paths.
const (
	// Environment variable keys
	EnvTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	EnvSessionSecret    = "SESSION_SECRET"
	EnvAuthBypass       = "TELEGRAM_AUTH_BYPASS"
	EnvConfigPath       = "MIREVALD_CONFIG"
	EnvDBPath           = "MIREVALD_DB"

	// HTTP headers
	HeaderTelegramInit  = "X-Telegram-Init"
	HeaderAuthorization = "Authorization"

	// Authorization prefix
	BearerPrefix = "Bearer "

	// Dev identity used when TELEGRAM_AUTH_BYPASS is enabled
	BypassUserID   = "local-user"
	BypassUserName = "Adventurer"
)

// Routes used by the backend router
const (
	RouteAPIPrefix = "/api"

	RouteHealthz    = "/healthz"
	RouteAuthVerify = "/auth/verify"

	RouteMe         = "/me"
	RoutePlayerName = "/player/name"

	RouteMonsters       = "/monsters"
	RouteArenaOpponents = "/arena/opponents"
	RouteBattleResolve  = "/battle/resolve"
	RouteArenaFight     = "/arena/fight"

	RouteDuelChallenge = "/duel/challenge"
	RouteDuelAccept    = "/duel/accept"
	RouteDuelByID      = "/duel/:duelID"
	RouteDuelAct       = "/duel/act"

	RouteClanCreate     = "/clan/create"
	RouteClanJoin       = "/clan/join"
	RouteClanLeave      = "/clan/leave"
	RouteClanContribute = "/clan/contribute"
	RouteClanRole       = "/clan/role"
	RouteClanKick       = "/clan/kick"
	RouteClanMe         = "/clan/me"
	RouteClanMembers    = "/clan/members"
	RouteClanSearch     = "/clan/search"
	RouteClanTopWeekly  = "/clan/top/weekly"

	RouteLeaderboard = "/leaderboard"
)

// Common JSON response keys
const (
	JSONKeyOK    = "ok"
	JSONKeyError = "error"
	JSONKeyData  = "data"
	JSONKeyID    = "id"
	JSONKeyBank  = "bank"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest = "Invalid request"
	ErrAuthRequired   = "Authentication required"
	ErrInvalidSession = "Invalid session"
	ErrMissingInit    = "Missing initData"
	ErrBadSignature   = "Invalid initData signature"
	ErrServerConfig   = "Server misconfiguration"

	ErrPlayerNotFound   = "Player not found"
	ErrInvalidName      = "Invalid name"
	ErrInvalidTag       = "Invalid tag"
	ErrNameTaken        = "Name taken"
	ErrTagTaken         = "Tag taken"
	ErrClanNotFound     = "Clan not found"
	ErrNotInClan        = "Not in clan"
	ErrForbidden        = "Forbidden"
	ErrBadPayload       = "Bad payload"
	ErrAmountPositive   = "Amount must be > 0"
	ErrNotEnoughGold    = "Not enough gold"
	ErrFailedContribute = "Failed to contribute"

	ErrMissingDuelID  = "missing id"
	ErrDuelNotFound   = "not found"
	ErrDuelStarted    = "already started"
	ErrOwnDuel        = "cannot join own duel"
	ErrDuelNotActive  = "not active"
	ErrNoOpponent     = "no opponent"
	ErrNotYourTurn    = "not your turn"
	ErrFailedDuelSave = "Failed to save duel"

	ErrMonsterNotFound  = "Monster not found"
	ErrOpponentNotFound = "Opponent not found"
	ErrNotEnoughEnergy  = "Not enough energy"
	ErrFailedResolve    = "Failed to resolve battle"

	ErrFailedFetchLeaderboard = "Failed to fetch leaderboard"
	ErrFailedFetchClan        = "Failed to fetch clan"
	ErrFailedFetchPlayer      = "Failed to fetch player"
)

// Logging field names
const (
	LogFieldAddr     = "addr"
	LogFieldPlayerID = "player_id"
	LogFieldDuelID   = "duel_id"
)
