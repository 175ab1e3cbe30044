package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketJobs = "jobs"

// ErrNotFound is returned when a job ID does not exist in the store.
var ErrNotFound = errors.New("job not found")

// Store persists jobs in BoltDB. Every Save is a single atomic update, which
// is what makes incremental per-chunk progress observable from other request
// paths and durable across restarts.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) the job database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open job database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketJobs))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create jobs bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an already opened BoltDB handle, creating the jobs
// bucket if needed. The caller keeps ownership of the handle.
func NewStoreWithDB(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketJobs))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create jobs bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Save writes the job atomically, replacing any previous version.
func (s *Store) Save(j *Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketJobs)).Put([]byte(j.ID), data)
	})
}

// Get returns the job with the given ID, or ErrNotFound.
func (s *Store) Get(id string) (*Job, error) {
	var j *Job
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketJobs)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		var loaded Job
		if err := json.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("failed to unmarshal job: %w", err)
		}
		j = &loaded
		return nil
	})
	return j, err
}

// ListByUser returns the user's jobs, newest first.
func (s *Store) ListByUser(userID string) ([]*Job, error) {
	var jobs []*Job
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketJobs)).ForEach(func(_, data []byte) error {
			var j Job
			if err := json.Unmarshal(data, &j); err != nil {
				return fmt.Errorf("failed to unmarshal job: %w", err)
			}
			if j.UserID == userID {
				jobs = append(jobs, &j)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
	})
	return jobs, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
