package service

import "time"

const (
	DefaultDuplicateTolerance = 15 * time.Minute
	DefaultMaxSpeedKmh        = 80.0
	DefaultScanWindow         = 7 * 24 * time.Hour
	DefaultMaxSyncAttempts    = 10
	DefaultMaxSyncBatch       = 500

	// MinSpeedElapsed is the elapsed-time floor of the speed check. Two
	// punches closer than this with a displacement above GPSJitterKm are an
	// anomaly on their own; the reported speed uses the floor so it stays
	// finite.
	MinSpeedElapsed = time.Second

	// GPSJitterKm is the displacement treated as the same spot when two
	// punches share a timestamp.
	GPSJitterKm = 0.01
)

type Options struct {
	DuplicateTolerance time.Duration
	MaxSpeedKmh        float64
	ScanWindow         time.Duration
	MaxSyncAttempts    int
	MaxSyncBatch       int
}

func DefaultOptions() Options {
	return Options{
		DuplicateTolerance: DefaultDuplicateTolerance,
		MaxSpeedKmh:        DefaultMaxSpeedKmh,
		ScanWindow:         DefaultScanWindow,
		MaxSyncAttempts:    DefaultMaxSyncAttempts,
		MaxSyncBatch:       DefaultMaxSyncBatch,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DuplicateTolerance <= 0 {
		o.DuplicateTolerance = d.DuplicateTolerance
	}
	if o.MaxSpeedKmh <= 0 {
		o.MaxSpeedKmh = d.MaxSpeedKmh
	}
	if o.ScanWindow <= 0 {
		o.ScanWindow = d.ScanWindow
	}
	if o.MaxSyncAttempts <= 0 {
		o.MaxSyncAttempts = d.MaxSyncAttempts
	}
	if o.MaxSyncBatch <= 0 {
		o.MaxSyncBatch = d.MaxSyncBatch
	}
	return o
}
