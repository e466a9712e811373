package run

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"gorm.io/gorm"
)

// SQLStore implements the Store interface using GORM on MySQL or SQLite.
type SQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewSQLStore creates a new GORM-backed run store.
func NewSQLStore(db *gorm.DB, log logger.Logger) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: log,
	}
}

// Create starts a run and stores it.
func (s *SQLStore) Create(ctx context.Context, r *Run) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := r.Start(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		s.logger.Error(ctx, "failed to create run", map[string]interface{}{
			"error":   err.Error(),
			"website": r.Website,
		})
		return err
	}

	s.logger.Debug(ctx, "run created", map[string]interface{}{
		"run_id":   r.ID.String(),
		"batch_id": r.BatchID.String(),
		"website":  r.Website,
	})

	return nil
}

// GetByID retrieves a run by its ID.
func (s *SQLStore) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	var r Run
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&r).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error(ctx, "failed to get run by ID", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		return nil, err
	}

	return &r, nil
}

// Update updates a run with the given setters.
func (s *SQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(r); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		s.logger.Error(ctx, "failed to update run", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		return err
	}

	return nil
}

func (s *SQLStore) filtered(ctx context.Context, filter Filter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&Run{})
	if filter.BatchID != uuid.Nil {
		q = q.Where("batch_id = ?", filter.BatchID)
	}
	if filter.Website != "" {
		q = q.Where("website = ?", filter.Website)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return q
}

// List retrieves a paginated list of runs, newest first.
func (s *SQLStore) List(ctx context.Context, filter Filter, limit, offset int) ([]*Run, error) {
	var runs []*Run
	err := s.filtered(ctx, filter).
		Order("start_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list runs", map[string]interface{}{
			"error":   err.Error(),
			"website": filter.Website,
			"limit":   limit,
			"offset":  offset,
		})
		return nil, err
	}

	return runs, nil
}

// Count returns the number of runs matching filter.
func (s *SQLStore) Count(ctx context.Context, filter Filter) (int, error) {
	var count int64
	if err := s.filtered(ctx, filter).Count(&count).Error; err != nil {
		s.logger.Error(ctx, "failed to count runs", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, err
	}
	return int(count), nil
}

// Complete marks a run as finished.
func (s *SQLStore) Complete(ctx context.Context, id uuid.UUID, res Result) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r Run
		if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRunNotFound
			}
			return err
		}

		if err := r.Complete(res); err != nil {
			return err
		}

		return tx.Save(&r).Error
	})

	if err != nil {
		if !errors.Is(err, ErrRunNotFound) && !errors.Is(err, ErrRunNotRunning) && !errors.Is(err, ErrInvalidStatus) {
			s.logger.Error(ctx, "failed to complete run", map[string]interface{}{
				"error":  err.Error(),
				"run_id": id.String(),
				"status": string(res.Status),
			})
		}
		return err
	}

	s.logger.Debug(ctx, "run completed", map[string]interface{}{
		"run_id": id.String(),
		"status": string(res.Status),
	})

	return nil
}
