// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package store persists analysed gait sessions in BadgerDB.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/relabs-tech/gait_computer/internal/session"
)

var (
	// ErrNotFound means no session starts at the requested time.
	ErrNotFound = errors.New("session not found")

	// ErrNoStart means a session has a zero start time and cannot be keyed.
	ErrNoStart = errors.New("session has no start time")
)

// SessionStore keeps sessions ordered by start time.
type SessionStore struct {
	mu sync.Mutex
	DB *badger.DB
}

// Open opens (or creates) the store at path. An empty path keeps the data
// in memory only.
func Open(path string) (*SessionStore, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if path == "" {
		log.Println("store: opened in-memory session store")
	} else {
		log.Printf("store: opened session store at %s", path)
	}
	return &SessionStore{DB: db}, nil
}

// Key is the big-endian start time followed by the source name, so keys
// sort chronologically.
func Key(s session.Session) []byte {
	return append(timePrefix(s.Start), s.Source...)
}

// timePrefix encodes UnixNano with the sign bit flipped, so times before
// 1970 sort before later ones.
func timePrefix(t time.Time) []byte {
	key := make([]byte, 8, 8+16)
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano())^(1<<63))
	return key
}

// Encode serializes a session for storage.
func Encode(s session.Session) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("session encode error: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a stored session.
func Decode(data []byte) (session.Session, error) {
	var s session.Session
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s)
	if err != nil {
		return s, fmt.Errorf("session decode error: %w", err)
	}
	return s, nil
}

// Put stores one or more sessions in a single write batch. Nothing is
// written if any session has a zero start time.
func (st *SessionStore) Put(sessions ...session.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	wb := st.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, s := range sessions {
		if s.Start.IsZero() {
			return fmt.Errorf("%w: source %q", ErrNoStart, s.Source)
		}
		v, err := Encode(s)
		if err != nil {
			return err
		}
		if err := wb.Set(Key(s), v); err != nil {
			return fmt.Errorf("write batch error: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("batch flush error: %w", err)
	}
	return nil
}

// Get returns the first session starting exactly at start.
func (st *SessionStore) Get(start time.Time) (session.Session, error) {
	var out session.Session
	found := false
	prefix := timePrefix(start)

	err := st.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		it.Seek(prefix)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		return it.Item().Value(func(val []byte) error {
			s, err := Decode(val)
			if err != nil {
				return err
			}
			out, found = s, true
			return nil
		})
	})
	if err != nil {
		return out, err
	}
	if !found {
		return out, fmt.Errorf("%w: %s", ErrNotFound, start.Format(time.RFC3339Nano))
	}
	return out, nil
}

// Range returns sessions with from <= Start < to, oldest first, at most
// limit of them (limit <= 0 means no limit).
func (st *SessionStore) Range(from, to time.Time, limit int) ([]session.Session, error) {
	var out []session.Session
	end := timePrefix(to)

	err := st.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(timePrefix(from)); it.Valid(); it.Next() {
			item := it.Item()
			if bytes.Compare(item.Key()[:8], end) >= 0 {
				break
			}
			err := item.Value(func(val []byte) error {
				s, err := Decode(val)
				if err != nil {
					return err
				}
				out = append(out, s)
				return nil
			})
			if err != nil {
				return fmt.Errorf("item data error: %w", err)
			}
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// Latest returns up to n of the most recent sessions, newest first.
func (st *SessionStore) Latest(n int) ([]session.Session, error) {
	var out []session.Session

	err := st.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(out) < n; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				s, err := Decode(val)
				if err != nil {
					return err
				}
				out = append(out, s)
				return nil
			})
			if err != nil {
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})
	return out, err
}

// Close closes the database.
func (st *SessionStore) Close() error {
	if err := st.DB.Close(); err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	log.Println("store: session store closed")
	return nil
}
