package summary

import "github.com/rpggio/chronos/internal/domain/activity"

// DefaultInterval is an hour for ranges shorter than a day, otherwise a day.
func DefaultInterval(start, end int64) int64 {
	if span, ok := spanOf(start, end); ok && span < activity.DaySeconds {
		return activity.HourSeconds
	}
	return activity.DaySeconds
}

// BucketCount is the number of buckets Bucket emits for the range. It is
// zero when end precedes start or the span does not fit in an int64.
func BucketCount(start, end, interval int64) int64 {
	span, ok := spanOf(start, end)
	if !ok || interval <= 0 {
		return 0
	}
	return span/interval + 1
}

// spanOf returns end-start, reporting false when end precedes start or the
// difference overflows.
func spanOf(start, end int64) (int64, bool) {
	if end < start {
		return 0, false
	}
	span := end - start
	if span < 0 {
		return 0, false
	}
	return span, true
}

// Bucket lays records onto a dense, interval-aligned grid from start to end
// inclusive. Each record is re-stamped with its bucket's timestamp but not
// merged. Buckets without records hold a single zero-valued placeholder.
// A non-positive interval selects DefaultInterval. An inverted range, or one
// whose span overflows an int64, yields nil.
func Bucket(records []Activity, start, end, interval int64) [][]Activity {
	if interval <= 0 {
		interval = DefaultInterval(start, end)
	}
	n := BucketCount(start, end, interval)
	if n == 0 {
		return nil
	}

	grouped := make(map[int64][]Activity)
	for _, rec := range records {
		ts := start + floorDiv(rec.Timestamp-start, interval)*interval
		rec.Timestamp = ts
		grouped[ts] = append(grouped[ts], rec)
	}

	out := make([][]Activity, 0, n)
	for i := int64(0); i < n; i++ {
		ts := start + i*interval
		if recs, ok := grouped[ts]; ok {
			out = append(out, recs)
			continue
		}
		out = append(out, []Activity{{Timestamp: ts}})
	}
	return out
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
