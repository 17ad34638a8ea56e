package summary

type mergeKey struct {
	timestamp int64
	rootID    string
}

// Aggregate collapses, within each bucket, records of the same root project
// into one entry by summing their time. Entries keep first-seen order and
// the input is left unmodified. A merged entry keeps a project, branch,
// language or category only when every record it covers agrees on it.
func Aggregate(buckets [][]Activity) [][]Activity {
	out := make([][]Activity, len(buckets))
	for i, bucket := range buckets {
		index := make(map[mergeKey]int, len(bucket))
		merged := make([]Activity, 0, len(bucket))
		for _, act := range bucket {
			key := mergeKey{timestamp: act.Timestamp, rootID: act.rootID()}
			if at, ok := index[key]; ok {
				merged[at].absorb(act)
				continue
			}
			index[key] = len(merged)
			merged = append(merged, act)
		}
		out[i] = merged
	}
	return out
}

func (a *Activity) absorb(other Activity) {
	a.TimeSpent += other.TimeSpent
	if a.ProjectID != other.ProjectID {
		a.ProjectID = ""
	}
	if a.Branch != other.Branch {
		a.Branch = ""
	}
	if a.Language != other.Language {
		a.Language = ""
	}
	if a.Category != other.Category {
		a.Category = ""
	}
}
