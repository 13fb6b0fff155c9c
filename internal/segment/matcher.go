package segment

import "github.com/Neoznzoe/drivr/internal/shared/geo"

// maxOffRun is how many consecutive samples may stray outside the
// tolerance band before an in-progress traversal attempt is abandoned.
// One stray sample absorbs ordinary GPS noise.
const maxOffRun = 2

// MatchTrack scans an ordered track for the first completed start-to-end
// traversal of the centerline. A traversal begins at the first on-segment
// sample within tolerance of the start point and completes at the first
// later on-segment sample within tolerance of the end point, with at most
// one off-segment sample between them at a time. Driving the segment
// end-to-start never matches. Returns the entry and exit sample indices.
func MatchTrack(track, line []geo.Point, toleranceM float64) (entry, exit int, ok bool) {
	if len(track) < 2 || len(line) < 2 || toleranceM <= 0 {
		return 0, 0, false
	}
	start := line[0]
	end := line[len(line)-1]

	// Coarse filter: the track must come near the start or end point at
	// least once before any per-sample centerline distance is computed.
	plausible := false
	for _, p := range track {
		if geo.HaversineM(p, start) <= toleranceM || geo.HaversineM(p, end) <= toleranceM {
			plausible = true
			break
		}
	}
	if !plausible {
		return 0, 0, false
	}

	on := make([]bool, len(track))
	for i, p := range track {
		on[i] = geo.PointToPolylineM(p, line) <= toleranceM
	}

	i := 0
	for i < len(track) {
		if !on[i] || geo.HaversineM(track[i], start) > toleranceM {
			i++
			continue
		}

		// Attempt starting here; walk forward until completion or the
		// off-run budget is spent.
		offRun := 0
		j := i + 1
		for ; j < len(track); j++ {
			if on[j] {
				offRun = 0
				if geo.HaversineM(track[j], end) <= toleranceM {
					return i, j, true
				}
				continue
			}
			offRun++
			if offRun >= maxOffRun {
				break
			}
		}
		if j >= len(track) {
			// Track ended mid-attempt; no later entry can complete either.
			return 0, 0, false
		}
		// Invalidated at j; a new entry may begin after it.
		i = j + 1
	}
	return 0, 0, false
}
