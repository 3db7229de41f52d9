package queryapi

import (
	"strconv"
	"time"
)

// discordEpochMS is the epoch snowflake ids are relative to.
const discordEpochMS int64 = 1420070400000

// snowflakeTime decodes the millisecond timestamp embedded in a snowflake
// id's high 42 bits.
func snowflakeTime(id string) (time.Time, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	ms := int64(n>>22) + discordEpochMS
	return time.UnixMilli(ms), nil
}

const (
	maxMessageAge    = 7 * 24 * time.Hour
	maxMessageFuture = 30 * time.Second
)

// messageIDStale reports whether id's embedded timestamp falls outside the
// window the query API accepts, per spec.md §4.8/§8 scenario 6.
func messageIDStale(id string, now time.Time) bool {
	ts, err := snowflakeTime(id)
	if err != nil {
		return true
	}
	age := now.Sub(ts)
	return age > maxMessageAge || age < -maxMessageFuture
}
