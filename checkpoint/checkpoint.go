// Package checkpoint persists sampler state between runs.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// chainBucket is the bucket name for all sampler states.
var chainBucket = []byte("chain")

// State is the persisted state of a sampling run.
type State struct {
	// Parameters maps parameter names to their current values.
	Parameters map[string]float64 `json:"parameters"`
	// Lhood is the log-likelihood at those values.
	Lhood float64 `json:"lhood"`
	// Iter is the iteration the state was saved at.
	Iter int `json:"iter"`
	// Final marks a state saved at the end of a finished run.
	Final bool `json:"final"`
}

// Store reads and writes the state of one fit, identified by a run
// label, in a bolt database. Saves are throttled to at most one per
// the configured number of seconds.
type Store struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewStore creates a Store for the given run label.
func NewStore(db *bolt.DB, label string, seconds float64) *Store {
	return &Store{
		db:      db,
		key:     []byte(label),
		seconds: seconds,
	}
}

// Save writes the state. The throttle clock is reset even if the save
// fails, so that a failing database is not hammered every iteration.
func (s *Store) Save(state *State) error {
	s.SetNow()
	data, err := json.Marshal(state)
	if err != nil {
		log.Error("Error serializing checkpoint: ", err)
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(chainBucket)
		if err != nil {
			return err
		}
		return b.Put(s.key, data)
	})
	if err != nil {
		log.Error("Error saving checkpoint: ", err)
	}
	return err
}

// Load returns the stored state, or nil if there is none.
func (s *Store) Load() (*State, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(chainBucket)
		if b == nil {
			return nil
		}
		if v := b.Get(s.key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}

	state := &State{}
	if err = json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if len(state.Parameters) == 0 {
		return nil, nil
	}

	if state.Final {
		log.Noticef("Found finished sampling checkpoint (iter=%v, lnL=%v)", state.Iter, state.Lhood)
	} else {
		log.Noticef("Found unfinished sampling checkpoint (iter=%v, lnL=%v)", state.Iter, state.Lhood)
	}
	return state, nil
}

// Old returns true if the last save was long enough ago for a new
// save.
func (s *Store) Old() bool {
	return time.Since(s.last).Seconds() > s.seconds
}

// SetNow resets the throttle clock.
func (s *Store) SetNow() {
	s.last = time.Now()
}
