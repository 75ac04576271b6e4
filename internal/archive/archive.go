// Package archive holds the built-in journeys shipped with the binary.
package archive

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pbaille/wanderword/internal/domain"
)

//go:embed archive.json
var archiveJSON []byte

// Archive is a read-only word → journey mapping
type Archive struct {
	entries map[string]domain.Journey
}

// Default returns the archive embedded at build time
func Default() *Archive {
	a, err := Parse(archiveJSON)
	if err != nil {
		panic(fmt.Sprintf("archive: embedded data: %v", err))
	}
	return a
}

// Parse builds an archive from a JSON object keyed by word
func Parse(data []byte) (*Archive, error) {
	var raw map[string]domain.Journey
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}

	entries := make(map[string]domain.Journey, len(raw))
	for word, j := range raw {
		if err := j.Validate(); err != nil {
			return nil, fmt.Errorf("archive entry %q: %w", word, err)
		}
		j.Source = ""
		entries[domain.NormalizeWord(word)] = j
	}
	return &Archive{entries: entries}, nil
}

// Lookup returns a copy of the journey stored under key
func (a *Archive) Lookup(key string) (domain.Journey, bool) {
	j, ok := a.entries[key]
	if !ok {
		return domain.Journey{}, false
	}
	return j.Clone(), true
}

// Words lists archive keys in alphabetical order
func (a *Archive) Words() []string {
	words := make([]string, 0, len(a.entries))
	for w := range a.entries {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Len is the number of archived journeys
func (a *Archive) Len() int { return len(a.entries) }
