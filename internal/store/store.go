// Package store persists alarm lines in a bbolt database.
//
// The entries bucket is the source of truth for which alarms exist; the
// crontab is rebuilt from it on every update. The plays bucket keeps a short
// history of alarms that fired.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	entriesBucket = "entries"
	playsBucket   = "plays"

	// MaxPlays is how many play records are retained.
	MaxPlays = 50
)

var (
	// ErrDuplicateEntry is returned when adding a line that is already stored.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrNotFound is returned when an id does not exist.
	ErrNotFound = errors.New("entry not found")
)

// Record is a stored alarm line.
type Record struct {
	ID      uint64    `json:"id"`
	Line    string    `json:"line"`
	AddedAt time.Time `json:"added_at"`
}

// Play records one firing of an alarm.
type Play struct {
	ID       uint64        `json:"id"`
	At       time.Time     `json:"at"`
	Options  []string      `json:"options,omitempty"`
	Failures int           `json:"failures"`
	Duration time.Duration `json:"duration"`
}

// Store provides persistent storage for alarm lines.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path, creating its directory.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open entries database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{entriesBucket, playsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Add appends line. Lines are kept in insertion order.
func (s *Store) Add(line string, now time.Time) (*Record, error) {
	var rec *Record
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		rec, err = put(tx.Bucket([]byte(entriesBucket)), line, now)
		return err
	})
	return rec, err
}

// Replace deletes id and appends line in a single transaction.
func (s *Store) Replace(id uint64, line string, now time.Time) (*Record, error) {
	var rec *Record
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entriesBucket))
		if b.Get(itob(id)) == nil {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		if err := b.Delete(itob(id)); err != nil {
			return err
		}
		var err error
		rec, err = put(b, line, now)
		return err
	})
	return rec, err
}

func put(b *bolt.Bucket, line string, now time.Time) (*Record, error) {
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var existing Record
		if err := json.Unmarshal(v, &existing); err != nil {
			continue
		}
		if existing.Line == line {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntry, line)
		}
	}

	id, err := b.NextSequence()
	if err != nil {
		return nil, err
	}
	rec := &Record{ID: id, Line: line, AddedAt: now}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return rec, b.Put(itob(id), data)
}

// Delete removes the record with id.
func (s *Store) Delete(id uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entriesBucket))
		if b.Get(itob(id)) == nil {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return b.Delete(itob(id))
	})
}

// All returns every record, oldest first.
func (s *Store) All() ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(entriesBucket)).ForEach(func(_, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return nil // Skip invalid entries
			}
			records = append(records, r)
			return nil
		})
	})
	return records, err
}

// Clear removes every record.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(entriesBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(entriesBucket))
		return err
	})
}

// Count returns the number of records.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(entriesBucket)).Stats().KeyN
		return nil
	})
	return count, err
}

// AddPlay appends p to the play history, dropping the oldest records
// beyond MaxPlays.
func (s *Store) AddPlay(p Play) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(playsBucket))

		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		p.ID = id
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if err := b.Put(itob(id), data); err != nil {
			return err
		}

		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for ; len(keys) > MaxPlays; keys = keys[1:] {
			if err := b.Delete(keys[0]); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecentPlays returns up to limit play records, newest first.
func (s *Store) RecentPlays(limit int) ([]Play, error) {
	var plays []Play
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(playsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(plays) < limit; k, v = c.Prev() {
			var p Play
			if err := json.Unmarshal(v, &p); err != nil {
				continue
			}
			plays = append(plays, p)
		}
		return nil
	})
	return plays, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// itob converts uint64 to big-endian bytes for ordered keys.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
