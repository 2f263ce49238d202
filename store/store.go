// Package store keeps generated documents, keyed by kind and external id.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Kind is the kind of a generated document.
type Kind string

const (
	KindSummary  Kind = "summary"
	KindAnalysis Kind = "analysis"
)

// Kinds lists every known kind.
var Kinds = []Kind{KindSummary, KindAnalysis}

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// Document is one piece of generated markdown.
type Document struct {
	Kind        Kind      `json:"kind"`
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Info describes a stored document without its text.
type Info struct {
	Kind        Kind
	ID          string
	Size        int64
	GeneratedAt time.Time
}

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned for ids outside [A-Za-z0-9_-]+.
	ErrInvalidID = errors.New("invalid document id")
)

var idRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateID checks that id is usable as a key and as a file name.
func ValidateID(id string) error {
	if !idRegexp.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Store is implemented by DirStore and BoltStore.
type Store interface {
	Get(ctx context.Context, kind Kind, id string) (*Document, error)
	Put(ctx context.Context, doc *Document) error
	// List returns every stored document, ordered by kind then id.
	List(ctx context.Context) ([]Info, error)
	Close() error
}

// Open opens the store selected by backend: "dir" uses path as a
// directory, "bolt" as a database file.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "dir":
		return NewDirStore(path)
	case "bolt":
		return OpenBolt(path)
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}
