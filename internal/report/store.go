package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
)

const (
	// DefaultStorePath is the store file used when none is configured.
	DefaultStorePath = "incidences.json"

	// DefaultLockPoll is how often a held lock file is re-checked.
	DefaultLockPoll = 50 * time.Millisecond

	// StaleLockAge is the age after which a lock file left behind by a
	// crashed writer is removed.
	StaleLockAge = 10 * time.Minute
)

// pathLocks serializes writers of one store path inside this process.
// Values are chan struct{} with capacity one.
var pathLocks sync.Map

func acquirePath(ctx context.Context, path string) (func(), error) {
	v, _ := pathLocks.LoadOrStore(path, make(chan struct{}, 1))
	sem := v.(chan struct{}) //nolint:forcetypeassert // only channels are stored
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreLocked, path, ctx.Err())
	}
}

// Store is an append-only JSON array of incidences on disk.
//
// Writers are serialized with an in-process mutex per absolute path and a
// "<path>.lock" file for other processes. Every Append rewrites the whole
// file through a temporary file and a rename.
type Store struct {
	path   string
	logger *slog.Logger
	clock  func() time.Time
	poll   time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for corruption warnings.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock sets the clock used to stamp detected_at.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithLockPoll sets the lock file polling interval.
func WithLockPoll(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.poll = d
		}
	}
}

// NewStore creates a store backed by path.
func NewStore(path string, opts ...StoreOption) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving store path: %w", err)
	}
	s := &Store{
		path:  abs,
		clock: time.Now,
		poll:  DefaultLockPoll,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Path returns the absolute store path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored incidences. A missing file is an empty store, and
// so is a corrupt one, which is logged as a warning.
func (s *Store) Load() ([]model.Incidence, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Incidence{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Incidence{}, nil
	}

	var incidences []model.Incidence
	if err := json.Unmarshal(data, &incidences); err != nil {
		s.logger.Warn("report store is corrupt, starting empty",
			"path", s.path,
			"error", err,
		)
		return []model.Incidence{}, nil
	}
	return incidences, nil
}

// Append stamps incidences with the current time and adds them to the end
// of the store. Nothing is deduplicated. It returns the new store size.
func (s *Store) Append(ctx context.Context, incidences []model.Incidence) (int, error) {
	release, err := acquirePath(ctx, s.path)
	if err != nil {
		return 0, err
	}
	defer release()

	unlock, err := s.lockFile(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	existing, err := s.Load()
	if err != nil {
		return 0, err
	}

	now := s.clock()
	all := make([]model.Incidence, 0, len(existing)+len(incidences))
	all = append(all, existing...)
	for _, inc := range incidences {
		stamped := inc
		stamped.DetectedAt = &now
		all = append(all, stamped)
	}

	if err := s.write(all); err != nil {
		return 0, err
	}
	return len(all), nil
}

// lockFile creates "<path>.lock" exclusively, polling while another
// process holds it.
func (s *Store) lockFile(ctx context.Context) (func(), error) {
	lockPath := s.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) //nolint:gosec // path derives from the store path
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())     //nolint:errcheck // informational only
			_ = f.Close()                                  //nolint:errcheck // the file only marks ownership
			return func() { _ = os.Remove(lockPath) }, nil //nolint:errcheck // best effort
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > StaleLockAge {
			s.logger.Warn("removing stale store lock", "path", lockPath, "age", time.Since(info.ModTime()))
			_ = os.Remove(lockPath) //nolint:errcheck // retried below
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrStoreLocked, lockPath, ctx.Err())
		case <-ticker.C:
		}
	}
}

// write replaces the store file with incidences, indented by four spaces.
func (s *Store) write(incidences []model.Incidence) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(incidences); err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}
