package segment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Neoznzoe/drivr/internal/shared/geo"
)

var errBadLineString = errors.New("malformed LINESTRING")

// ParseLineString decodes "LINESTRING(lng lat, lng lat, ...)".
func ParseLineString(wkt string) ([]geo.Point, error) {
	s := strings.TrimSpace(wkt)
	if !strings.HasPrefix(strings.ToUpper(s), "LINESTRING") {
		return nil, errBadLineString
	}
	open := strings.Index(s, "(")
	shut := strings.LastIndex(s, ")")
	if open < 0 || shut < open {
		return nil, errBadLineString
	}

	var points []geo.Point
	for _, pair := range strings.Split(s[open+1:shut], ",") {
		fields := strings.Fields(strings.TrimSpace(pair))
		if len(fields) != 2 {
			return nil, errBadLineString
		}
		lng, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errBadLineString
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errBadLineString
		}
		points = append(points, geo.Point{Lat: lat, Lng: lng})
	}
	if len(points) < 2 {
		return nil, errBadLineString
	}
	return points, nil
}

// FormatLineString encodes points as WKT with lng-lat axis order.
func FormatLineString(points []geo.Point) string {
	var b strings.Builder
	b.WriteString("LINESTRING(")
	for i, p := range points {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%g %g", p.Lng, p.Lat)
	}
	b.WriteString(")")
	return b.String()
}
