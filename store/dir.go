package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DirStore keeps each document in <root>/<kind>/<id>.md. Provider and model
// are not recorded; the modification time stands in for the generation time.
type DirStore struct {
	root string
}

// NewDirStore returns a DirStore rooted at root, creating it if needed.
func NewDirStore(root string) (*DirStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &DirStore{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *DirStore) Root() string { return s.root }

func (s *DirStore) path(kind Kind, id string) string {
	return filepath.Join(s.root, string(kind), id+".md")
}

// Get reads <root>/<kind>/<id>.md.
func (s *DirStore) Get(ctx context.Context, kind Kind, id string) (*Document, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	p := s.path(kind, id)
	content, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	doc := &Document{Kind: kind, ID: id, Text: string(content)}
	if info, err := os.Stat(p); err == nil {
		doc.GeneratedAt = info.ModTime()
	}
	return doc, nil
}

// Put writes the document text, creating the kind directory if needed.
func (s *DirStore) Put(ctx context.Context, doc *Document) error {
	if err := ValidateID(doc.ID); err != nil {
		return err
	}
	if _, err := ParseKind(string(doc.Kind)); err != nil {
		return err
	}
	p := s.path(doc.Kind, doc.ID)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(doc.Text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	if !doc.GeneratedAt.IsZero() {
		if err := os.Chtimes(p, time.Time{}, doc.GeneratedAt); err != nil {
			return fmt.Errorf("set generation time of %s: %w", p, err)
		}
	}
	return nil
}

// List returns the documents found in the kind directories.
func (s *DirStore) List(ctx context.Context) ([]Info, error) {
	var infos []Info
	for _, kind := range Kinds {
		entries, err := os.ReadDir(filepath.Join(s.root, string(kind)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("list %s documents: %w", kind, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			id, ok := strings.CutSuffix(name, ".md")
			if entry.IsDir() || !ok || ValidateID(id) != nil {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			infos = append(infos, Info{
				Kind: kind, ID: id, Size: info.Size(), GeneratedAt: info.ModTime(),
			})
		}
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Kind != infos[j].Kind {
			return infos[i].Kind < infos[j].Kind
		}
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// Close is a no-op.
func (s *DirStore) Close() error { return nil }
