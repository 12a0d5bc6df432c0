package visited

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/site-crawler/pkg/log"
	"github.com/Sriram-PR/site-crawler/pkg/utils"
)

const (
	visitedKeyPrefix   = "visited:"
	visitedDBDir       = "visited_db"
	maxConflictRetries = 10
)

// BadgerSet keeps the visited set on disk. The directory belongs to one run:
// it is wiped when opened and removed on Close.
type BadgerSet struct {
	db       *badger.DB
	path     string
	log      *logrus.Entry
	keyCount atomic.Int64
}

// NewBadgerSet opens a fresh database under stateDir for runID
func NewBadgerSet(stateDir, runID string, logger *logrus.Entry) (*BadgerSet, error) {
	if logger == nil {
		logger = log.Discard()
	}
	dbPath := filepath.Join(stateDir, utils.SanitizeFilename(runID)+"_"+visitedDBDir)
	logger = logger.WithField("component", "visited_badger")

	if err := os.RemoveAll(dbPath); err != nil {
		logger.Errorf("Failed to remove stale state directory %s: %v", dbPath, err)
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrDatabase, dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(log.NewBadgerLogrusAdapter(logger)).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	logger.Debugf("Visited set database opened at %s", dbPath)
	return &BadgerSet{db: db, path: dbPath, log: logger}, nil
}

// dbUpdate retries db.Update on badger.ErrConflict. Two transactions racing on the same
// key conflict; the retry re-reads the key and sees the winner's write.
func (s *BadgerSet) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("Transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// TryVisit claims key inside a read-write transaction
func (s *BadgerSet) TryVisit(key string) (bool, error) {
	if s.db == nil {
		return false, fmt.Errorf("%w: visited set is closed", utils.ErrDatabase)
	}
	dbKey := []byte(visitedKeyPrefix + key)

	var added bool
	err := s.dbUpdate(func(txn *badger.Txn) error {
		added = false
		_, errGet := txn.Get(dbKey)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			if errSet := txn.SetEntry(badger.NewEntry(dbKey, []byte{})); errSet != nil {
				return errSet
			}
			added = true
			return nil
		}
		return errGet // nil when the key exists
	})
	if err != nil {
		if errors.Is(err, utils.ErrDatabase) {
			return false, err
		}
		return false, fmt.Errorf("%w: claiming key '%s': %w", utils.ErrDatabase, key, err)
	}

	if added {
		s.keyCount.Add(1)
	}
	return added, nil
}

// Len returns the number of keys added during this run
func (s *BadgerSet) Len() int {
	return int(s.keyCount.Load())
}

// Close closes the database and removes its directory
func (s *BadgerSet) Close() error {
	if s.db == nil {
		return nil
	}
	var errs []error
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: closing badger database: %w", utils.ErrDatabase, err))
	}
	s.db = nil
	if err := os.RemoveAll(s.path); err != nil {
		errs = append(errs, fmt.Errorf("removing state directory %s: %w", s.path, err))
	}
	return errors.Join(errs...)
}
