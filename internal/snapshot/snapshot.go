// Package snapshot persists the state of one encounter: the roster with its
// groups, lineup and panel flags, plus the turn counter.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cory-johannsen/initiative/internal/game/roster"
)

// Version is the current document layout.
const Version = 1

// ErrUnsupportedVersion is returned when decoding a document written by a newer layout.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Document is the persisted form of an encounter.
type Document struct {
	Version int `json:"version"`
	roster.State
	Turn int `json:"turn"`
}

// Empty returns the document of a fresh encounter.
func Empty() Document {
	return Document{Version: Version, Turn: 1}
}

// Encode serialises doc as JSON, stamping the current Version.
func Encode(doc Document) ([]byte, error) {
	doc.Version = Version
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a JSON document. A turn below 1 is normalised to 1.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if doc.Version > Version {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	if doc.Turn < 1 {
		doc.Turn = 1
	}
	return doc, nil
}

// Store loads and saves one encounter's document. Load returns Empty() when
// nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
}
