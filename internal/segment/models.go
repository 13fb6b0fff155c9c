package segment

import (
	"time"

	"github.com/Neoznzoe/drivr/internal/shared/geo"
)

const (
	KindMountainPass = "mountain_pass"
	KindHighway      = "highway"
	KindTrunkRoad    = "trunk_road"
	KindLocalRoad    = "local_road"
	KindCustom       = "custom"
)

// Segment is a named stretch of road drivers can be timed on. The
// centerline is carried as WKT, the same representation it has in SQL.
type Segment struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Kind          string    `json:"kind"`
	CenterlineWKT string    `json:"centerline"`
	LengthM       float64   `json:"length_m"`
	ToleranceM    float64   `json:"tolerance_m"`
	Official      bool      `json:"official"`
	CreatedBy     *string   `json:"created_by,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// Centerline parses the WKT polyline.
func (s Segment) Centerline() ([]geo.Point, error) {
	return ParseLineString(s.CenterlineWKT)
}
