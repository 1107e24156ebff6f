package dedupe

// Package dedupe provides shared singleflight groups used to deduplicate
// concurrent read-heavy queries. Using a centralized singleflight.Group
// ensures that only one query runs for a given key while other callers
// wait for the result.

import "golang.org/x/sync/singleflight"

// LeaderboardGroup deduplicates player leaderboard queries keyed by the
// requested limit (e.g. "players:10").
var LeaderboardGroup singleflight.Group

// WeeklyTopGroup deduplicates weekly clan standings queries keyed by the
// ISO week (e.g. "clans:2025-11").
var WeeklyTopGroup singleflight.Group
