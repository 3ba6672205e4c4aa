package crawler

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gocolly/colly/v2/storage"
	bolt "go.etcd.io/bbolt"
)

var (
	visitedBucket = []byte("visited")
	cookieBucket  = []byte("cookies")
	resultBucket  = []byte("results")
)

const resultOK = "ok"

// BoltDBStorage keeps colly's request state and per-article fetch results on
// disk. Init wipes it, so state never carries over between fetch runs.
type BoltDBStorage struct {
	DBPath string
	db     *bolt.DB
	mu     sync.RWMutex
}

var _ storage.Storage = (*BoltDBStorage)(nil)

func NewBoltDBStorage(path string) *BoltDBStorage {
	return &BoltDBStorage{DBPath: path}
}

// Init opens the database and resets all buckets.
func (s *BoltDBStorage) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		if err := os.MkdirAll(filepath.Dir(s.DBPath), 0755); err != nil {
			return fmt.Errorf("failed to create directory for BoltDB: %w", err)
		}
		db, err := bolt.Open(s.DBPath, 0600, nil)
		if err != nil {
			return fmt.Errorf("failed to open BoltDB: %w", err)
		}
		s.db = db
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{visitedBucket, cookieBucket, resultBucket} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func (s *BoltDBStorage) Visited(requestID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(visitedBucket).Put(idKey(requestID), []byte("1"))
	})
}

func (s *BoltDBStorage) IsVisited(requestID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var visited bool
	err := s.db.View(func(tx *bolt.Tx) error {
		visited = tx.Bucket(visitedBucket).Get(idKey(requestID)) != nil
		return nil
	})
	return visited, err
}

func (s *BoltDBStorage) Cookies(u *url.URL) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cookies string
	_ = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(cookieBucket).Get([]byte(u.Host)); v != nil {
			cookies = string(v)
		}
		return nil
	})
	return cookies
}

func (s *BoltDBStorage) SetCookies(u *url.URL, cookies string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cookieBucket).Put([]byte(u.Host), []byte(cookies))
	})
}

// RecordResult stores the outcome of fetching one article. A nil err marks
// success.
func (s *BoltDBStorage) RecordResult(articleURL string, fetchErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := resultOK
	if fetchErr != nil {
		value = fetchErr.Error()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(resultBucket).Put([]byte(articleURL), []byte(value))
	})
}

// Failures returns the articles that could not be fetched in this run, keyed
// by URL.
func (s *BoltDBStorage) Failures() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	failed := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(resultBucket).ForEach(func(k, v []byte) error {
			if string(v) != resultOK {
				failed[string(k)] = string(v)
			}
			return nil
		})
	})
	return failed, err
}

func (s *BoltDBStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func idKey(id uint64) []byte {
	return []byte(strconv.FormatUint(id, 10))
}
