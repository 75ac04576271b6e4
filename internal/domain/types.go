package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Source marks which tier produced a Journey
type Source string

const (
	SourceArchive Source = "ARCHIVE"
	SourceCache   Source = "CACHE"
	SourceLiveA   Source = "LIVE_A"
	SourceLiveB   Source = "LIVE_B"
	SourceLiveC   Source = "LIVE_C"
)

var liveSources = []Source{SourceLiveA, SourceLiveB, SourceLiveC}

// MaxLiveTiers is the number of distinct provider tags
const MaxLiveTiers = 3

// LiveSource returns the provenance tag for the provider at chain position i
func LiveSource(i int) Source {
	if i < 0 || i >= len(liveSources) {
		return ""
	}
	return liveSources[i]
}

// IsLive reports whether the journey was generated by a provider
func (s Source) IsLive() bool {
	for _, l := range liveSources {
		if s == l {
			return true
		}
	}
	return false
}

// RouteType is how a waypoint was reached
type RouteType string

const (
	RouteLand RouteType = "land"
	RouteSea  RouteType = "sea"
)

// Known reports whether r is land, sea or left unspecified
func (r RouteType) Known() bool {
	switch r {
	case "", RouteLand, RouteSea:
		return true
	}
	return false
}

// RouteSummary classifies the overall journey
type RouteSummary string

const (
	RouteSilkRoad  RouteSummary = "silk_road"
	RouteMaritime  RouteSummary = "maritime"
	RouteColonial  RouteSummary = "colonial"
	RouteScholarly RouteSummary = "scholarly"
	RouteEuropean  RouteSummary = "european"
)

// Known reports whether r is one of the route summaries or left unspecified
func (r RouteSummary) Known() bool {
	switch r {
	case "", RouteSilkRoad, RouteMaritime, RouteColonial, RouteScholarly, RouteEuropean:
		return true
	}
	return false
}

// Coordinates are stored longitude first
type Coordinates [2]float64

func (c Coordinates) Lon() float64 { return c[0] }
func (c Coordinates) Lat() float64 { return c[1] }

// Location is a named place on the map
type Location struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	CountryCode string      `json:"countryCode"`
}

// Origin is stage zero of a journey
type Origin struct {
	Word     string   `json:"word"`
	Language string   `json:"language"`
	Meaning  string   `json:"meaning"`
	Location Location `json:"location"`
	Century  string   `json:"century"`
}

// Waypoint is one stage of a word's migration
type Waypoint struct {
	Word      string    `json:"word"`
	Language  string    `json:"language"`
	Century   string    `json:"century"`
	Location  Location  `json:"location"`
	RouteType RouteType `json:"routeType"`
	Notes     string    `json:"notes"`
	Narrative string    `json:"narrative"`
}

// Journey is a resolved etymological journey
type Journey struct {
	Word           string       `json:"word"`
	CurrentMeaning string       `json:"currentMeaning"`
	Origin         Origin       `json:"origin"`
	Waypoints      []Waypoint   `json:"journey"`
	Narrative      string       `json:"narrative"`
	FunFact        string       `json:"funFact,omitempty"`
	RouteSummary   RouteSummary `json:"routeSummary"`
	Source         Source       `json:"source,omitempty"`
}

// ErrInvalidJourney is returned by Validate
var ErrInvalidJourney = errors.New("invalid journey")

// Validate checks the structural shape of a journey
func (j Journey) Validate() error {
	if strings.TrimSpace(j.Word) == "" {
		return fmt.Errorf("%w: missing word", ErrInvalidJourney)
	}
	if len(j.Waypoints) == 0 {
		return fmt.Errorf("%w: journey has no waypoints", ErrInvalidJourney)
	}
	for i, w := range j.Waypoints {
		if strings.TrimSpace(w.Word) == "" {
			return fmt.Errorf("%w: waypoint %d has no word", ErrInvalidJourney, i)
		}
		if !w.RouteType.Known() {
			return fmt.Errorf("%w: waypoint %d has unknown route type %q", ErrInvalidJourney, i, w.RouteType)
		}
	}
	if !j.RouteSummary.Known() {
		return fmt.Errorf("%w: unknown route summary %q", ErrInvalidJourney, j.RouteSummary)
	}
	return nil
}

// Clone returns a deep copy so callers never share the waypoint slice
func (j Journey) Clone() Journey {
	out := j
	if j.Waypoints != nil {
		out.Waypoints = make([]Waypoint, len(j.Waypoints))
		copy(out.Waypoints, j.Waypoints)
	}
	return out
}

// WithSource returns a copy tagged with the given provenance
func (j Journey) WithSource(s Source) Journey {
	out := j.Clone()
	out.Source = s
	return out
}

// Len is the number of waypoints after the origin
func (j Journey) Len() int { return len(j.Waypoints) }

// NormalizeWord turns user input into a lookup key
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
