package model

import "sort"

// DayStats holds per-day status counts. Pending counts both "pending" and
// "processing" artifacts; "playing" artifacts count only toward Total.
type DayStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Ready     int `json:"ready"`
	Completed int `json:"completed"`
}

// DayGroup is a derived per-day bucket of artifacts. It is recomputed on
// every read and never persisted.
type DayGroup struct {
	Date      string     `json:"date"`
	Artifacts []Artifact `json:"artifacts"`
	Stats     DayStats   `json:"stats"`
}

// GroupByDay buckets artifacts by day bucket and computes status counts.
// Groups are sorted by date descending; artifact order within a group is
// preserved from the input.
func GroupByDay(artifacts []Artifact) []DayGroup {
	byDate := make(map[string]*DayGroup)
	for _, a := range artifacts {
		g, ok := byDate[a.DayBucket]
		if !ok {
			g = &DayGroup{Date: a.DayBucket}
			byDate[a.DayBucket] = g
		}
		g.Artifacts = append(g.Artifacts, a)
		g.Stats.Total++
		switch a.Status {
		case StatusPending, StatusProcessing:
			g.Stats.Pending++
		case StatusReady:
			g.Stats.Ready++
		case StatusCompleted:
			g.Stats.Completed++
		}
	}

	groups := make([]DayGroup, 0, len(byDate))
	for _, g := range byDate {
		groups = append(groups, *g)
	}
	// YYYY-MM-DD sorts chronologically as a plain string.
	sort.Slice(groups, func(i, j int) bool { return groups[i].Date > groups[j].Date })
	return groups
}
