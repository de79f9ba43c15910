package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"cadence/internal/fileutil"
)

// SchemaVersion is written into every queue document.
const SchemaVersion = 1

// Store loads and saves the whole queue document.
type Store interface {
	Load() ([]Posting, error)
	Save(postings []Posting) error
}

type document struct {
	SchemaVersion int       `json:"schema_version"`
	Postings      []Posting `json:"postings"`
}

// Encode serializes postings as a versioned queue document.
func Encode(postings []Posting) ([]byte, error) {
	if postings == nil {
		postings = []Posting{}
	}
	data, err := json.MarshalIndent(document{SchemaVersion: SchemaVersion, Postings: postings}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode queue document: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a queue document. Empty input is an empty queue and a bare JSON
// array of postings is accepted.
func Decode(data []byte) ([]Posting, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var postings []Posting
		if err := json.Unmarshal(trimmed, &postings); err != nil {
			return nil, fmt.Errorf("decode queue array: %w", err)
		}
		return postings, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode queue document: %w", err)
	}
	if doc.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("queue document schema version %d is newer than supported version %d", doc.SchemaVersion, SchemaVersion)
	}
	return doc.Postings, nil
}

// FileStore keeps the queue document on disk and replaces it atomically.
type FileStore struct {
	path string
}

// NewFileStore returns a store for the document at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the document. A missing or empty file is an empty queue.
func (s *FileStore) Load() ([]Posting, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: "read", Path: s.path, Err: err}
	}
	postings, err := Decode(data)
	if err != nil {
		return nil, &PersistenceError{Op: "decode", Path: s.path, Err: err}
	}
	return postings, nil
}

// Save writes the whole document through a temp file and rename.
func (s *FileStore) Save(postings []Posting) error {
	data, err := Encode(postings)
	if err != nil {
		return &PersistenceError{Op: "encode", Path: s.path, Err: err}
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// Backup copies the current document to dst with integrity verification.
func (s *FileStore) Backup(dst string) error {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := s.Save(nil); err != nil {
				return err
			}
		} else {
			return &PersistenceError{Op: "stat", Path: s.path, Err: err}
		}
	}
	if err := fileutil.CopyFileVerified(s.path, dst); err != nil {
		return &PersistenceError{Op: "backup", Path: dst, Err: err}
	}
	return nil
}

// MemoryStore keeps the encoded document in memory. Setting LoadErr or SaveErr
// makes the next operations fail.
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	LoadErr error
	SaveErr error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() ([]Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, &PersistenceError{Op: "read", Err: s.LoadErr}
	}
	return Decode(s.data)
}

func (s *MemoryStore) Save(postings []Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return &PersistenceError{Op: "write", Err: s.SaveErr}
	}
	data, err := Encode(postings)
	if err != nil {
		return &PersistenceError{Op: "encode", Err: err}
	}
	s.data = data
	s.saves++
	return nil
}

// Bytes returns the last saved document.
func (s *MemoryStore) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// Saves returns how many times the document was written.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
