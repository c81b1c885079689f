package domain

import "time"

// SyncStats holds statistics about reconciling a single channel.
type SyncStats struct {
	ChannelSlug string
	ChannelName string
	Fetched     int
	New         int
	Updated     int
	Filtered    int // short items dropped at normalization
	Purged      int // previously persisted items dropped retroactively
	Skipped     int // malformed raw items
	Errors      int
	Duration    time.Duration
}

// RunStats aggregates per-channel stats across one full run.
type RunStats struct {
	Channels int
	Failed   int
	New      int
	Updated  int
	Filtered int
	Duration time.Duration
}

// Add folds one channel's stats into the run totals.
func (r *RunStats) Add(s SyncStats) {
	r.Channels++
	r.New += s.New
	r.Updated += s.Updated
	r.Filtered += s.Filtered
}
