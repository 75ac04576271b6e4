// Package stats derives display figures from a journey: language count,
// century span and travelled distance.
package stats

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pbaille/wanderword/internal/domain"
)

// EarthRadius in kilometres
const EarthRadius = 6371.0

// ancientCentury is where "Ancient" sits on the century axis
const ancientCentury = -5

var (
	numberRe = regexp.MustCompile(`(\d+)(s\b)?`)
	bcRe     = regexp.MustCompile(`\bbce?\b`)
)

// Summary is the stats line shown under the player
type Summary struct {
	Languages   int                 `json:"languages"`
	CenturySpan string              `json:"centurySpan"`
	Route       domain.RouteSummary `json:"route"`
	DistanceKm  float64             `json:"distanceKm"`
	SeaLegs     int                 `json:"seaLegs"`
	LandLegs    int                 `json:"landLegs"`
}

// Summarize computes the stats for j
func Summarize(j domain.Journey) Summary {
	s := Summary{
		Languages:   j.Len() + 1,
		CenturySpan: CenturySpan(j),
		Route:       j.RouteSummary,
		DistanceKm:  math.Round(Distance(j)),
	}
	for _, w := range j.Waypoints {
		switch w.RouteType {
		case domain.RouteSea:
			s.SeaLegs++
		case domain.RouteLand:
			s.LandLegs++
		}
	}
	return s
}

// ParseCentury maps a century label onto a signed century number.
// "9th Century" → 9, "2nd Century BC" → -2, "Ancient" → -5, "1920" → 20,
// "1700s" → 18.
func ParseCentury(label string) (int, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return 0, false
	}
	if l == "ancient" {
		return ancientCentury, true
	}

	m := numberRe.FindStringSubmatch(l)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return 0, false
	}

	if !strings.Contains(l, "century") && len(m[1]) >= 3 {
		if m[2] != "" {
			// "1700s" spans 1700-1799
			n = n/100 + 1
		} else {
			// a bare year such as "1920"
			n = (n-1)/100 + 1
		}
	}
	if bcRe.MatchString(l) {
		n = -n
	}
	return n, true
}

// CenturySpan renders the earliest→latest century, or "N/A" when fewer
// than two labels parse
func CenturySpan(j domain.Journey) string {
	labels := []string{j.Origin.Century}
	for _, w := range j.Waypoints {
		labels = append(labels, w.Century)
	}

	var nums []int
	for _, l := range labels {
		if n, ok := ParseCentury(l); ok {
			nums = append(nums, n)
		}
	}
	if len(nums) < 2 {
		return "N/A"
	}

	lo, hi := nums[0], nums[0]
	for _, n := range nums[1:] {
		lo = min(lo, n)
		hi = max(hi, n)
	}
	return fmt.Sprintf("%s→%s", formatCentury(lo), formatCentury(hi))
}

func formatCentury(n int) string {
	if n < 0 {
		return Ordinal(-n) + " BC"
	}
	return Ordinal(n)
}

// Ordinal renders 1 → 1st, 2 → 2nd, 11 → 11th
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// Chronological returns the indexes of waypoints whose century is earlier
// than the latest comparable stage before them. Unparseable labels are skipped.
func Chronological(j domain.Journey) []int {
	latest, have := ParseCentury(j.Origin.Century)
	var bad []int
	for i, w := range j.Waypoints {
		n, ok := ParseCentury(w.Century)
		if !ok {
			continue
		}
		if have && n < latest {
			bad = append(bad, i)
			continue
		}
		latest, have = n, true
	}
	return bad
}

// Distance is the great-circle length of origin → waypoints in kilometres
func Distance(j domain.Journey) float64 {
	prev := j.Origin.Location.Coordinates
	var total float64
	for _, w := range j.Waypoints {
		cur := w.Location.Coordinates
		total += Haversine(prev, cur)
		prev = cur
	}
	return total
}

// Haversine is the spherical distance between two lon/lat points in kilometres
func Haversine(a, b domain.Coordinates) float64 {
	lat1 := degreesToRadians(a.Lat())
	lon1 := degreesToRadians(a.Lon())
	lat2 := degreesToRadians(b.Lat())
	lon2 := degreesToRadians(b.Lon())

	dLat := lat2 - lat1
	dLon := lon2 - lon1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180.0
}
