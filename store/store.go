// Package store keeps the locally cached copy of the patient collection and
// its demographics projection, refreshed from the AI backend.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VanitasCaesar1/clinical-dashboard/cache"
	"github.com/VanitasCaesar1/clinical-dashboard/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache keys. The names match what the dashboard has always used so an
// existing cache stays readable.
const (
	CollectionKey = "patientData"
	ListKey       = "patientList"
)

const defaultFetchTimeout = 30 * time.Second

// ErrFetchFailed marks a refresh that could not fetch or decode the remote
// collection. The cache is unchanged when it is returned.
var ErrFetchFailed = errors.New("patient collection fetch failed")

// Persistence is the key-value storage the store writes through.
type Persistence interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// batchSetter is implemented by persistence adapters that can write several
// keys atomically.
type batchSetter interface {
	SetAll(ctx context.Context, entries map[string]string) error
}

// Fetcher retrieves the full patient collection from the remote backend.
type Fetcher interface {
	FetchPatients(ctx context.Context) (models.PatientCollection, error)
}

type Store struct {
	persist Persistence
	fetcher Fetcher
	logger  *zap.Logger
	timeout time.Duration

	// mu orders cache writes against reads so no reader sees one key
	// replaced and the other not.
	mu         sync.RWMutex
	generation atomic.Uint64
	flights    singleflight.Group
}

// New returns a Store. A zero timeout uses a 30 second fetch timeout.
func New(persist Persistence, fetcher Fetcher, logger *zap.Logger, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Store{
		persist: persist,
		fetcher: fetcher,
		logger:  logger,
		timeout: timeout,
	}
}

// CachedCollection returns the last persisted collection, or an empty one
// when nothing has been cached yet.
func (s *Store) CachedCollection(ctx context.Context) ([]models.PatientRecord, error) {
	var coll models.PatientCollection
	found, err := s.read(ctx, CollectionKey, &coll)
	if err != nil || !found {
		return []models.PatientRecord{}, err
	}
	if coll.Patients == nil {
		coll.Patients = []models.PatientRecord{}
	}
	return coll.Patients, nil
}

// CachedDemographics returns the persisted demographics projection.
func (s *Store) CachedDemographics(ctx context.Context) ([]models.DemographicsProjection, error) {
	var list []models.DemographicsProjection
	found, err := s.read(ctx, ListKey, &list)
	if err != nil || !found || list == nil {
		return []models.DemographicsProjection{}, err
	}
	return list, nil
}

func (s *Store) read(ctx context.Context, key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	raw, err := s.persist.Get(ctx, key)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to read %s", key)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// An unreadable entry is treated like an empty cache; the next
		// refresh overwrites it.
		s.logger.Warn("Discarding unreadable cache entry",
			zap.String("key", key),
			zap.Error(err))
		return false, nil
	}
	return true, nil
}

// FindPatientByID looks id up in the cached collection. A missing patient
// is reported as false with a nil error.
func (s *Store) FindPatientByID(ctx context.Context, id string) (models.PatientRecord, bool, error) {
	records, err := s.CachedCollection(ctx)
	if err != nil {
		return models.PatientRecord{}, false, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, true, nil
		}
	}
	return models.PatientRecord{}, false, nil
}

// Refresh fetches the collection and replaces both cache entries. Callers
// arriving while a fetch is in flight share its result. Cancelling ctx
// abandons the wait but not the shared fetch.
func (s *Store) Refresh(ctx context.Context) ([]models.DemographicsProjection, error) {
	gen := s.generation.Load()
	ch := s.flights.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return s.refresh(gen)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.DemographicsProjection), nil
	}
}

func (s *Store) refresh(gen uint64) ([]models.DemographicsProjection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	coll, err := s.fetcher.FetchPatients(ctx)
	if err != nil {
		s.logger.Error("Failed to refresh patient data",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if coll.Patients == nil {
		coll.Patients = []models.PatientRecord{}
	}
	list := models.Project(coll.Patients)

	collJSON, err := json.Marshal(coll)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode patient collection")
	}
	listJSON, err := json.Marshal(list)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode patient list")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation.Load() != gen {
		s.logger.Info("Dropping refresh result started before invalidation",
			zap.Uint64("generation", gen))
		return list, nil
	}
	if err := s.writeBoth(ctx, string(collJSON), string(listJSON)); err != nil {
		s.logger.Error("Failed to persist patient data", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Patient data refreshed",
		zap.Int("patients", len(coll.Patients)),
		zap.Duration("elapsed", time.Since(start)))
	return list, nil
}

// writeBoth replaces both keys. Callers hold s.mu.
func (s *Store) writeBoth(ctx context.Context, collJSON, listJSON string) error {
	if b, ok := s.persist.(batchSetter); ok {
		return errors.Wrap(b.SetAll(ctx, map[string]string{
			CollectionKey: collJSON,
			ListKey:       listJSON,
		}), "failed to write patient cache")
	}

	prev, prevErr := s.persist.Get(ctx, CollectionKey)
	if err := s.persist.Set(ctx, CollectionKey, collJSON); err != nil {
		return errors.Wrap(err, "failed to write patient collection")
	}
	if err := s.persist.Set(ctx, ListKey, listJSON); err != nil {
		// Put the old collection back so both keys come from one refresh.
		if prevErr == nil {
			_ = s.persist.Set(ctx, CollectionKey, prev)
		} else {
			_ = s.persist.Remove(ctx, CollectionKey)
		}
		return errors.Wrap(err, "failed to write patient list")
	}
	return nil
}

// InvalidateAndRefresh clears both entries and then refreshes. Reads made
// after the clear see an empty cache until the new data is written, and
// fetches started before the clear never write their result.
func (s *Store) InvalidateAndRefresh(ctx context.Context) ([]models.DemographicsProjection, error) {
	if err := s.Invalidate(ctx); err != nil {
		return nil, err
	}
	return s.Refresh(ctx)
}

// Invalidate clears both entries without fetching.
func (s *Store) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist.Remove(ctx, CollectionKey, ListKey); err != nil {
		return errors.Wrap(err, "failed to clear patient cache")
	}
	s.generation.Add(1)
	return nil
}
