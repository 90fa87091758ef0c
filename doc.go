// Package essence reads the asset formats of Relic's Essence engine.
//
// The subpackages do the work: [sga] reads and builds archives, [chunky]
// parses chunk trees, [filesource] layers archives and folders into the
// single namespace a .module file describes, and [model] and [texture]
// load assets from it. This package ties them together for the common
// jobs.
//
// Open whatever the user points at:
//
//	src, err := essence.Open("DowII.module", essence.WithCache(cache.NewMemory(64<<20)))
//	if err != nil {
//		return err
//	}
//	defer src.Close()
//
//	m, err := model.LoadFrom(src, `art\ebps\races\space_marines\troops\tactical.rgm`)
//
// Extract a directory:
//
//	stats, err := essence.Extract(ctx, src, "./out", `data\art`,
//		essence.ExtractWithWorkers(8),
//	)
//
// Paths inside sources are backslash separated and case-insensitive;
// [filesource.Normalize] gives the canonical form.
package essence
