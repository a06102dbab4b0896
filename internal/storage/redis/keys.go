package redis

import (
	"fmt"

	"github.com/dailyroster/rosterd/internal/model"
)

// Key prefix for all roster-related data
const keyPrefix = "rosterd"

// Key generation functions for each entity type

// playerKey returns the Redis key for a Player
func playerKey(email model.Identity) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, email)
}

// hostKey returns the Redis key for a Host
func hostKey(email model.Identity) string {
	return fmt.Sprintf("%s:host:%s", keyPrefix, email)
}

// entryKey returns the Redis key for an AttendanceEntry
func entryKey(date model.Date, player model.Identity) string {
	return fmt.Sprintf("%s:entry:%s:%s", keyPrefix, date, player)
}

// entriesForDateIndexKey returns the Redis key for the SET of player
// identities with an entry on the given date
func entriesForDateIndexKey(date model.Date) string {
	return fmt.Sprintf("%s:idx:entries_for_date:%s", keyPrefix, date)
}

// playerIndexKey returns the Redis key for the SET of all player identities
func playerIndexKey() string {
	return fmt.Sprintf("%s:idx:players", keyPrefix)
}

// hostIndexKey returns the Redis key for the SET of all host identities
func hostIndexKey() string {
	return fmt.Sprintf("%s:idx:hosts", keyPrefix)
}

// quorumStateKey returns the Redis key for a date's quorum dedup state
func quorumStateKey(date model.Date) string {
	return fmt.Sprintf("%s:quorum:%s", keyPrefix, date)
}
