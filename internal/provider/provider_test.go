package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

const sofaJSON = `{
  "word": "Sofa",
  "currentMeaning": "A long upholstered seat.",
  "origin": {"word": "Suffa", "language": "Arabic", "meaning": "Bench", "location": {"name": "Baghdad, Iraq", "coordinates": [44.4, 33.3], "countryCode": "IQ"}, "century": "8th Century"},
  "journey": [
    {"word": "Sofa", "language": "Turkish", "century": "16th Century", "location": {"name": "Istanbul, Turkey", "coordinates": [28.9, 41.0], "countryCode": "TR"}, "routeType": "land", "notes": "Raised platform", "narrative": "Ottoman palaces."},
    {"word": "Sofa", "language": "French", "century": "17th Century", "location": {"name": "Paris, France", "coordinates": [2.3, 48.8], "countryCode": "FR"}, "routeType": "land", "notes": "Furniture", "narrative": "Salons adopted it."}
  ],
  "narrative": "From a stone bench to a couch.",
  "routeSummary": "european"
}`

func TestParseJourney(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		wantErr error
	}{
		{"plain", sofaJSON, nil},
		{"fenced", "```json\n" + sofaJSON + "\n```", nil},
		{"bare fence", "```\n" + sofaJSON + "```", nil},
		{"declared not found", `{"error": "Word not found"}`, ErrDeclaredNotFound},
		{"fenced not found", "```json\n{\"error\": \"Word not found\"}\n```", ErrDeclaredNotFound},
		{"garbage", "I am not sure what you mean", ErrParse},
		{"empty journey", `{"word": "x", "journey": []}`, ErrParse},
		{"truncated", sofaJSON[:120], ErrParse},
		{"unknown route type", strings.Replace(sofaJSON, `"routeType": "land"`, `"routeType": "air"`, 1), ErrParse},
		{"unknown route summary", strings.Replace(sofaJSON, `"routeSummary": "european"`, `"routeSummary": "lunar"`, 1), ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := ParseJourney(tt.resp)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if j.Word != "Sofa" || j.Len() != 2 {
				t.Fatalf("unexpected journey: %+v", j)
			}
			if j.Waypoints[0].Location.Coordinates.Lon() != 28.9 {
				t.Fatalf("coordinates not longitude first: %+v", j.Waypoints[0].Location)
			}
		})
	}
}

func TestParseJourneyDropsSource(t *testing.T) {
	resp := strings.Replace(sofaJSON, `"routeSummary": "european"`, `"routeSummary": "european", "source": "ARCHIVE"`, 1)
	j, err := ParseJourney(resp)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if j.Source != "" {
		t.Fatalf("provider output must not choose its own source, got %s", j.Source)
	}
}

func TestBuildPromptCarriesLiteralWord(t *testing.T) {
	p := BuildPrompt("Pyjamas")
	if !strings.HasSuffix(p, `"Pyjamas"`) {
		t.Fatalf("prompt should end with the literal word: %q", p[len(p)-40:])
	}
	if BuildPrompt("a")[:100] != BuildPrompt("b")[:100] {
		t.Fatalf("template should be fixed")
	}
}

func TestAnthropicGenerate(t *testing.T) {
	var gotKey, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": sofaJSON}},
		})
	}))
	defer srv.Close()

	p, err := NewAnthropic("secret", "claude-test", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text, err := p.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gotKey != "secret" || gotModel != "claude-test" {
		t.Fatalf("unexpected request key=%q model=%q", gotKey, gotModel)
	}
	if _, err := ParseJourney(text); err != nil {
		t.Fatalf("parse: %v", err)
	}
}

func TestAnthropicStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, _ := NewAnthropic("k", "m", WithEndpoint(srv.URL))
	if _, err := p.Generate(context.Background(), "prompt"); err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	body := strings.Repeat("茶", 300)
	got := truncate(body, 500)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated body is not valid UTF-8")
	}
	if len(got) > 500 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncation length %d", len(got))
	}
	if truncate("short", 500) != "short" {
		t.Fatalf("short input must be returned unchanged")
	}
}

func TestAnthropicStatusErrorNonLatin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("ошибка ", 200), http.StatusBadGateway)
	}))
	defer srv.Close()

	p, _ := NewAnthropic("k", "m", WithEndpoint(srv.URL))
	_, err := p.Generate(context.Background(), "prompt")
	if err == nil || !utf8.ValidString(err.Error()) {
		t.Fatalf("expected a valid UTF-8 status error, got %q", err)
	}
}

func TestMissingKey(t *testing.T) {
	if _, err := NewAnthropic("", "m"); err == nil {
		t.Fatalf("expected error without key")
	}
	if _, err := NewGemini("", "m"); err == nil {
		t.Fatalf("expected error without key")
	}
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		var req geminiRequest
		json.Unmarshal(body, &req)
		if len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "```json\n"}, {"text": sofaJSON + "\n```"}}}},
			},
		})
	}))
	defer srv.Close()

	p, err := NewGemini("gkey", "gemini-2.5-flash", WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text, err := p.Generate(context.Background(), "trace sofa")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gotPath != "/gemini-2.5-flash:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "gkey" || gotPrompt != "trace sofa" {
		t.Fatalf("unexpected request key=%q prompt=%q", gotKey, gotPrompt)
	}
	if _, err := ParseJourney(text); err != nil {
		t.Fatalf("parse: %v", err)
	}
}

func TestGeminiAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	p, _ := NewGemini("gkey", "m", WithEndpoint(srv.URL))
	_, err := p.Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected quota error, got %v", err)
	}
	if strings.Contains(err.Error(), "gkey") {
		t.Fatalf("error leaks api key: %v", err)
	}
}

func TestGeminiEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	p, _ := NewGemini("gkey", "m", WithEndpoint(srv.URL))
	if _, err := p.Generate(context.Background(), "prompt"); err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("expected blocked error, got %v", err)
	}
}
