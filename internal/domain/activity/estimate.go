package activity

import (
	"math"
	"time"
)

// EstimateActiveTime converts heartbeat times inside [start, end) into active
// seconds. The window is split into interval-wide slots and every slot touched
// by at least one heartbeat counts as a full interval.
//
// A zero now means the estimate is historical. Otherwise, when the newest
// heartbeat is less than one interval old, its slot is replaced by the
// elapsed wall-clock time rounded down to the minute.
//
// Callers are responsible for passing only heartbeats inside the window.
func EstimateActiveTime(times []float64, start, end, interval int64, now time.Time) int64 {
	if len(times) == 0 || interval <= 0 || end <= start {
		return 0
	}

	slots := make(map[int64]struct{}, len(times))
	latest := math.Inf(-1)
	for _, t := range times {
		ts := int64(math.Floor(t))
		slots[floorDiv(ts-start, interval)] = struct{}{}
		if t > latest {
			latest = t
		}
	}

	count := int64(len(slots))
	active := count * interval
	if now.IsZero() {
		return active
	}

	elapsed := now.Unix() - int64(math.Floor(latest))
	if elapsed < interval {
		if elapsed < 0 {
			elapsed = 0
		}
		active = (count-1)*interval + (elapsed/60)*60
	}
	return active
}

// Saturate rounds near-continuous activity up to a full hour. Anything within
// one heartbeat interval of the hour counts as the whole hour.
func Saturate(seconds, interval int64) int64 {
	if seconds >= HourSeconds-interval {
		return HourSeconds
	}
	return seconds
}
