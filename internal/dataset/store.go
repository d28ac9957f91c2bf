package dataset

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"pemakaian/internal/core"
	"pemakaian/internal/log"
	"pemakaian/internal/sheets"
)

// ErrNotLoaded is returned while no dataset has been loaded yet.
var ErrNotLoaded = errors.New("dataset not loaded")

// Store holds the current Dataset. Readers always see a complete dataset;
// a reload swaps the pointer only after parsing succeeded.
type Store struct {
	reader     sheets.TableReader
	opts       Options
	logger     *log.Logger
	structured *log.StructuredLogger
	current    atomic.Pointer[core.Dataset]
	group      singleflight.Group
}

func NewStore(reader sheets.TableReader, opts Options, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{
		reader:     reader,
		opts:       opts,
		logger:     logger.WithComponent(log.ComponentDataset),
		structured: log.NewStructuredLogger(logger),
	}
}

// Current returns the loaded dataset or ErrNotLoaded.
func (s *Store) Current() (*core.Dataset, error) {
	ds := s.current.Load()
	if ds == nil {
		return nil, ErrNotLoaded
	}
	return ds, nil
}

// Ready reports whether a dataset is available.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Reload reads and parses the source again. Concurrent callers share a
// single read. On failure the previous dataset stays in place.
func (s *Store) Reload(ctx context.Context) (*core.Dataset, error) {
	op := log.OpReload
	if !s.Ready() {
		op = log.OpLoad
	}
	v, err, shared := s.group.Do("reload", func() (any, error) {
		ds, err := Load(ctx, s.reader, s.opts)
		if err != nil {
			return nil, err
		}
		s.current.Store(ds)
		return ds, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Dataset reload failed",
			log.FieldOperation, log.OpReload,
			log.FieldSource, s.opts.Source,
			log.FieldError, err)
		return nil, err
	}
	ds := v.(*core.Dataset)
	if !shared {
		s.structured.LogDatasetLoaded(ctx, op, ds.Source(), ds.Version(), ds.Len())
	}
	return ds, nil
}
