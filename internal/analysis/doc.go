// Package analysis finds oscillation modes in sampled flight tracks.
//
// A stored track column is zero-padded to a power of two and transformed:
//
//	peak := analysis.DominantMode(track.Column("pitch"), dt)
//	fmt.Printf("%.2f Hz (period %.1fs)\n", peak.Frequency, peak.Period())
package analysis
