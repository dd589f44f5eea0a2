package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/assetshare/backend/internal/models"
	"github.com/assetshare/backend/internal/storage"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const sweepLookupBatch = 500

var ErrSweepInProgress = errors.New("orphan sweep already running")

type SweepResult struct {
	Scanned int `json:"scanned"`
	Removed int `json:"removed"`
	Failed  int `json:"failed"`
}

// Sweeper deletes stored objects that no asset record references. Objects
// younger than MinAge are left alone so an in-flight upload is never touched.
type Sweeper struct {
	DB      *gorm.DB
	Storage storage.Storage
	MinAge  time.Duration

	now     func() time.Time
	running atomic.Bool
}

func NewSweeper(db *gorm.DB, store storage.Storage, minAge time.Duration) *Sweeper {
	return &Sweeper{
		DB:      db,
		Storage: store,
		MinAge:  minAge,
		now:     time.Now,
	}
}

func (s *Sweeper) Run(ctx context.Context) (SweepResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return SweepResult{}, ErrSweepInProgress
	}
	defer s.running.Store(false)

	result, err := s.sweep(ctx)
	if err != nil {
		sweepRunsTotal.WithLabelValues("error").Inc()
		logger.Error("orphan_sweep_failed", err, map[string]interface{}{
			"scanned": result.Scanned,
			"removed": result.Removed,
		})
		return result, err
	}

	sweepRunsTotal.WithLabelValues("ok").Inc()
	sweepRemovedTotal.Add(float64(result.Removed))
	logger.Info("orphan_sweep_completed", map[string]interface{}{
		"scanned": result.Scanned,
		"removed": result.Removed,
		"failed":  result.Failed,
	})
	return result, nil
}

func (s *Sweeper) sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	objects, err := s.Storage.List(ctx)
	if err != nil {
		return result, err
	}
	result.Scanned = len(objects)

	cutoff := s.now().Add(-s.MinAge)
	candidates := lo.FilterMap(objects, func(o storage.Object, _ int) (string, bool) {
		return o.Name, o.ModTime.Before(cutoff)
	})

	for _, batch := range lo.Chunk(candidates, sweepLookupBatch) {
		var referenced []string
		err := s.DB.WithContext(ctx).
			Model(&models.Asset{}).
			Where("storage_path IN ?", batch).
			Pluck("storage_path", &referenced).Error
		if err != nil {
			return result, fmt.Errorf("failed looking up stored names: %w", err)
		}

		orphans, _ := lo.Difference(batch, referenced)
		for _, name := range orphans {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if err := s.Storage.Delete(ctx, name); err != nil {
				result.Failed++
				logger.Error("orphan_delete_failed", err, map[string]interface{}{
					"stored_name": name,
				})
				continue
			}
			result.Removed++
			logger.Info("orphan_deleted", map[string]interface{}{
				"stored_name": name,
			})
		}
	}

	return result, nil
}

// Schedule registers Run on the cron spec and starts the scheduler.
// The caller stops it with the returned cron's Stop.
func (s *Sweeper) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		// Run logs its own outcome.
		_, _ = s.Run(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	c.Start()
	logger.Info("orphan_sweep_scheduled", map[string]interface{}{
		"schedule": spec,
		"min_age":  s.MinAge.String(),
	})
	return c, nil
}
