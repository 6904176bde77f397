// Package storage provides persistent data storage for the account dashboard.
// It uses BoltDB as the underlying storage engine to keep broker trades and
// the latest account summary for every synced account.
//
// Trades are keyed by account and open time so that statistics for a start
// date can be computed with a single cursor range scan.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	tradesBucket   = "trades"   // Bucket name for storing trade records
	accountsBucket = "accounts" // Bucket name for storing account snapshots
)

// ErrNotFound is returned when an account has never been synced.
var ErrNotFound = errors.New("storage: not found")

// Store provides persistent storage for trading data using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New creates a new storage instance with the specified data path.
// It initializes the BoltDB database and creates necessary buckets.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "dashboard-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(tradesBucket)); err != nil {
			return fmt.Errorf("create trades bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(accountsBucket)); err != nil {
			return fmt.Errorf("create accounts bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// tradeKey orders trades of one account by open time. The trade ID suffix keeps
// trades opened in the same nanosecond apart, and a trade keeps its key when it
// closes so the closed record replaces the open one.
func tradeKey(t Trade) []byte {
	return []byte(fmt.Sprintf("%s_%020d_%s", t.Account, t.OpenTime.UnixNano(), t.ID))
}

// StoreTrades upserts trades in a single transaction.
func (s *Store) StoreTrades(trades []Trade) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(tradesBucket))

		for _, trade := range trades {
			data, err := json.Marshal(trade)
			if err != nil {
				return fmt.Errorf("marshal trade %s: %w", trade.ID, err)
			}
			if err := b.Put(tradeKey(trade), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// StoreTrade upserts a single trade.
func (s *Store) StoreTrade(trade Trade) error {
	return s.StoreTrades([]Trade{trade})
}

// GetTrades retrieves trades of account opened within [start, end], ordered by open time.
// A zero end means no upper bound.
func (s *Store) GetTrades(account string, start, end time.Time) ([]Trade, error) {
	var trades []Trade

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(tradesBucket)).Cursor()

		prefix := []byte(account + "_")
		startKey := []byte(fmt.Sprintf("%s_%020d", account, start.UnixNano()))
		if start.IsZero() {
			startKey = prefix
		}
		var endKey []byte
		if !end.IsZero() {
			// "~" sorts after every trade ID character, keeping the end inclusive
			endKey = []byte(fmt.Sprintf("%s_%020d_~", account, end.UnixNano()))
		}

		for k, v := c.Seek(startKey); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if endKey != nil && bytes.Compare(k, endKey) > 0 {
				break
			}

			var trade Trade
			if err := json.Unmarshal(v, &trade); err != nil {
				continue // Skip malformed records
			}
			trades = append(trades, trade)
		}
		return nil
	})

	return trades, err
}

// StoreSnapshot replaces the stored summary of the snapshot's account.
func (s *Store) StoreSnapshot(snapshot AccountSnapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(accountsBucket))

		data, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		return b.Put([]byte(snapshot.Account), data)
	})
}

// GetSnapshot returns the last stored summary of account, or ErrNotFound.
func (s *Store) GetSnapshot(account string) (AccountSnapshot, error) {
	var snapshot AccountSnapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(accountsBucket)).Get([]byte(account))
		if v == nil {
			return fmt.Errorf("account %s: %w", account, ErrNotFound)
		}
		return json.Unmarshal(v, &snapshot)
	})

	return snapshot, err
}
