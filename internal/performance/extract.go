package performance

import (
	"errors"
	"time"

	"github.com/Neoznzoe/drivr/internal/shared/geo"
)

// ErrDataIntegrity marks a traversal whose samples contradict themselves,
// such as a non-positive elapsed time across distinct timestamps. The
// candidate is dropped, never clamped.
var ErrDataIntegrity = errors.New("traversal data integrity fault")

// Stats is the measured outcome of one traversal, not yet persisted.
type Stats struct {
	DurationS   int64
	AvgSpeedKmh float64
	MaxSpeedKmh *float64
	StartedAt   time.Time
	EndedAt     time.Time
}

// Extract measures the traversal between the entry and exit sample
// indices. Duration is floored to whole seconds and must be positive.
// Average speed is the mean of the recorded speeds over the range; when
// no sample in range carries a speed, it falls back to summed haversine
// distance over duration.
func Extract(track []TrackSample, entry, exit int) (Stats, error) {
	if entry < 0 || exit >= len(track) || entry >= exit {
		return Stats{}, ErrDataIntegrity
	}
	in := track[entry]
	out := track[exit]

	durationS := int64(out.RecordedAt.Sub(in.RecordedAt) / time.Second)
	if durationS <= 0 {
		return Stats{}, ErrDataIntegrity
	}

	var speedSum float64
	var speedCount int
	var maxSpeed *float64
	for i := entry; i <= exit; i++ {
		s := track[i].SpeedKmh
		if s == nil {
			continue
		}
		speedSum += *s
		speedCount++
		if maxSpeed == nil || *s > *maxSpeed {
			v := *s
			maxSpeed = &v
		}
	}

	avg := 0.0
	if speedCount > 0 {
		avg = speedSum / float64(speedCount)
	} else {
		var distM float64
		for i := entry; i < exit; i++ {
			distM += geo.HaversineM(
				geo.Point{Lat: track[i].Lat, Lng: track[i].Lng},
				geo.Point{Lat: track[i+1].Lat, Lng: track[i+1].Lng},
			)
		}
		avg = distM / float64(durationS) * 3.6
	}

	return Stats{
		DurationS:   durationS,
		AvgSpeedKmh: avg,
		MaxSpeedKmh: maxSpeed,
		StartedAt:   in.RecordedAt,
		EndedAt:     out.RecordedAt,
	}, nil
}
