package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeWord(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tea", "tea"},
		{"  Coffee \n", "coffee"},
		{"ROBOT", "robot"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeWord(tt.in); got != tt.want {
			t.Errorf("NormalizeWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLiveSource(t *testing.T) {
	want := []Source{SourceLiveA, SourceLiveB, SourceLiveC}
	for i, w := range want {
		if got := LiveSource(i); got != w {
			t.Fatalf("LiveSource(%d) = %s, want %s", i, got, w)
		}
		if !w.IsLive() {
			t.Fatalf("%s should be live", w)
		}
	}
	if got := LiveSource(3); got != "" {
		t.Fatalf("expected empty source past the chain, got %s", got)
	}
	if SourceArchive.IsLive() || SourceCache.IsLive() {
		t.Fatalf("archive and cache are not live sources")
	}
}

func TestValidate(t *testing.T) {
	ok := Journey{Word: "tea", Waypoints: []Waypoint{{Word: "cha"}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Journey{
		{Waypoints: []Waypoint{{Word: "cha"}}},
		{Word: "tea"},
		{Word: "tea", Waypoints: []Waypoint{{Word: " "}}},
		{Word: "tea", Waypoints: []Waypoint{{Word: "cha", RouteType: "air"}}},
		{Word: "tea", Waypoints: []Waypoint{{Word: "cha", RouteType: RouteSea}}, RouteSummary: "orbital"},
	}
	for i, j := range bad {
		if err := j.Validate(); !errors.Is(err, ErrInvalidJourney) {
			t.Fatalf("case %d: expected ErrInvalidJourney, got %v", i, err)
		}
	}
}

func TestCloneDoesNotShareWaypoints(t *testing.T) {
	j := Journey{Word: "tea", Waypoints: []Waypoint{{Word: "cha"}}}
	c := j.WithSource(SourceArchive)
	c.Waypoints[0].Word = "changed"
	if j.Waypoints[0].Word != "cha" {
		t.Fatalf("clone mutated the original")
	}
	if j.Source != "" || c.Source != SourceArchive {
		t.Fatalf("unexpected sources: %q %q", j.Source, c.Source)
	}
}

func TestCoordinatesAreLongitudeFirst(t *testing.T) {
	var loc Location
	if err := json.Unmarshal([]byte(`{"name":"Xi'an","coordinates":[108.9,34.3],"countryCode":"CN"}`), &loc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loc.Coordinates.Lon() != 108.9 || loc.Coordinates.Lat() != 34.3 {
		t.Fatalf("got lon=%v lat=%v", loc.Coordinates.Lon(), loc.Coordinates.Lat())
	}
}

func TestSourceOmittedWhenEmpty(t *testing.T) {
	data, err := json.Marshal(Journey{Word: "tea"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["source"]; ok {
		t.Fatalf("source should be omitted: %s", data)
	}
	if _, ok := m["funFact"]; ok {
		t.Fatalf("funFact should be omitted: %s", data)
	}
}
