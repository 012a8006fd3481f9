package history

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/report"
)

var log = logging.Get("history")

// ErrNotFound is returned when no run has the requested ID.
var ErrNotFound = errors.New("run not found")

// Store wraps Badger for run history.
type Store struct {
	db *badger.DB
}

// Open opens or creates a history store in dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	s := &Store{db: db}
	if err := s.checkSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores rec, replacing any earlier record with the same ID.
func (s *Store) Record(rec Record) error {
	if rec.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	value, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	key := runKey(rec.Started, rec.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		prev, err := lookup(txn, rec.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if prev != nil && !bytes.Equal(prev, key) {
			if err := txn.Delete(prev); err != nil {
				return err
			}
		}
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(idKey(rec.ID), key)
	})
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	log.Debug("run recorded", "id", rec.ID, "entries", len(rec.Entries))
	return nil
}

// List returns records newest first. If limit is 0 or negative, all
// records are returned.
func (s *Store) List(limit int) ([]Record, error) {
	records := []Record{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = runPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past every run key.
		seek := append(append([]byte{}, runPrefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(runPrefix); it.Next() {
			if limit > 0 && len(records) >= limit {
				break
			}
			var rec Record
			if err := it.Item().Value(rec.Decode); err != nil {
				log.Warn("skipping unreadable record", "key", string(it.Item().Key()), "error", err)
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return records, nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (*Record, error) {
	if id == "" {
		return nil, errors.New("run ID cannot be empty")
	}

	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := lookup(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(rec.Decode)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &rec, nil
}

// Cleanup removes records that started more than retentionDays ago and
// returns how many were removed. A non-positive retention keeps everything.
func (s *Store) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	return s.cleanupBefore(time.Now().AddDate(0, 0, -retentionDays))
}

func (s *Store) cleanupBefore(cutoff time.Time) (int, error) {
	limit := runKey(cutoff, "")
	removed := 0

	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var stale [][]byte
		for it.Seek(runPrefix); it.ValidForPrefix(runPrefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if bytes.Compare(key, limit) >= 0 {
				break
			}
			stale = append(stale, key)
		}

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
			if id := idFromRunKey(key); id != "" {
				if err := txn.Delete(idKey(id)); err != nil {
					return err
				}
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clean up history: %w", err)
	}
	if removed > 0 {
		log.Info("history cleaned up", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}

func lookup(txn *badger.Txn, id string) ([]byte, error) {
	item, err := txn.Get(idKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func idFromRunKey(key []byte) string {
	rest := key[len(runPrefix):]
	idx := bytes.IndexByte(rest, keySeparator)
	if idx == -1 {
		return ""
	}
	return string(rest[idx+1:])
}

// Rebuild records every run read back from the run log file. Runs already
// present are replaced, so rebuilding twice leaves the same index.
func (s *Store) Rebuild(runs []report.Run) (int, error) {
	n := 0
	for _, run := range runs {
		if run.ID == "" {
			continue
		}
		if err := s.Record(FromRun(run)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
