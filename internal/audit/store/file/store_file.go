// Package file persists audit events as one JSON object per line, append
// only. Chain verification reads the file sequentially from the first record.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"aegis/internal/audit"
)

// Store is the append-only JSONL audit sink.
type Store struct {
	mu   sync.Mutex
	path string
	out  *os.File
}

// New opens (or creates) the audit log file for appending.
func New(path string) (*Store, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Store{path: path, out: out}, nil
}

// Append writes one event as a JSON line and syncs so a host crash cannot
// silently lose a sealed entry.
func (s *Store) Append(_ context.Context, event audit.Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.out.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return s.out.Sync()
}

// Query scans the file and returns matching events, oldest first.
func (s *Store) Query(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	events, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	var matched []audit.Event
	for _, event := range events {
		if !filter.Matches(event) {
			continue
		}
		matched = append(matched, event)
		if filter.Limit > 0 && len(matched) >= filter.Limit {
			break
		}
	}
	return matched, nil
}

// ReadAll reads every record in file order. Unparseable lines become zero
// events so verification still counts and flags them instead of aborting.
func (s *Store) ReadAll(_ context.Context) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer in.Close()

	var events []audit.Event
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event audit.Event
		if err := json.Unmarshal(line, &event); err != nil {
			events = append(events, audit.Event{})
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return events, nil
}

// PruneBefore is a no-op: the file is append-only and rotation belongs to the
// host, not this subsystem.
func (s *Store) PruneBefore(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Close releases the file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}
