// Package jobs implements background work that runs independently of HTTP
// request handling.
//
// Jobs are scheduled with gocron and log failures without stopping the
// process:
//
//	snap := jobs.NewLadderSnapshotter(jobs.LadderSnapshotterConfig{
//	    Ranking:  rankingService,
//	    Sink:     sink,
//	    Interval: cfg.Archive.SnapshotInterval,
//	    Logger:   logger,
//	})
//	if err := snap.Start(); err != nil { ... }
//	defer snap.Stop()
package jobs
