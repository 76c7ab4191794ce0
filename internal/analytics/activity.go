package analytics

import (
	"sort"
	"time"

	"hubclient/internal/model"
)

// HourlyActivity aggregates messages into per-hour buckets keyed by
// sender direction ("sent" vs "received").
func HourlyActivity(messages []model.Message, selfID string) map[time.Time]map[string]int {
	buckets := make(map[time.Time]map[string]int)
	for i := range messages {
		m := &messages[i]
		key := m.Timestamp.UTC().Truncate(time.Hour)
		if _, ok := buckets[key]; !ok {
			buckets[key] = make(map[string]int)
		}
		dir := "received"
		if m.SenderID == selfID {
			dir = "sent"
		}
		buckets[key][dir]++
	}
	return buckets
}

// SortedBucketKeys returns sorted hour keys.
func SortedBucketKeys(m map[time.Time]map[string]int) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
