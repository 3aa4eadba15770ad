package domain

import (
	"context"
	"fmt"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/tx"
	"bistro/pkg/logger"
)

// ReferenceService provides CRUD for reference entities with the common rules:
// unique name (Conflict) and delete blocked while referenced (ReferentialBlock).
type ReferenceService[T ReferenceEntity] struct {
	repo       ReferenceRepository[T]
	txManager  tx.Manager
	entityName string
	uniqueKey  string
}

// ReferenceServiceConfig configures the reference service.
type ReferenceServiceConfig[T ReferenceEntity] struct {
	Repo       ReferenceRepository[T]
	TxManager  tx.Manager
	EntityName string
	// UniqueKey names the unique field in Conflict errors (default "name").
	UniqueKey string
}

// NewReferenceService creates a new reference service.
func NewReferenceService[T ReferenceEntity](cfg ReferenceServiceConfig[T]) *ReferenceService[T] {
	if cfg.UniqueKey == "" {
		cfg.UniqueKey = "name"
	}
	return &ReferenceService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		entityName: cfg.EntityName,
		uniqueKey:  cfg.UniqueKey,
	}
}

func (s *ReferenceService[T]) normalizeValidationErr(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInvalidInput(err.Error())
}

func (s *ReferenceService[T]) normalizeGetErr(err error, entityID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", entityID.String())
}

func (s *ReferenceService[T]) ensureUnique(ctx context.Context, e T) error {
	taken, err := s.repo.NameTaken(ctx, e)
	if err != nil {
		return fmt.Errorf("check %s uniqueness: %w", s.entityName, err)
	}
	if taken {
		return apperror.NewConflict(fmt.Sprintf("%s %s already exists", s.entityName, s.uniqueKey)).
			WithDetail("entity", s.entityName).
			WithDetail("field", s.uniqueKey)
	}
	return nil
}

// Create validates and inserts a new record.
func (s *ReferenceService[T]) Create(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureUnique(ctx, e); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, s.entityName+" created", "id", e.GetID())
	return nil
}

// GetByID retrieves a record by ID.
func (s *ReferenceService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID)
	}
	return e, nil
}

// Update loads the record, applies mutate and saves it.
func (s *ReferenceService[T]) Update(ctx context.Context, entityID id.ID, mutate func(T) error) (T, error) {
	var result T
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if err := mutate(e); err != nil {
			return s.normalizeValidationErr(err)
		}
		if t, ok := any(e).(interface{ Touch() }); ok {
			t.Touch()
		}
		if err := e.Validate(ctx); err != nil {
			return s.normalizeValidationErr(err)
		}
		if err := s.ensureUnique(ctx, e); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		result = e
		return nil
	})
	if err != nil {
		return result, err
	}

	logger.Info(ctx, s.entityName+" updated", "id", entityID)
	return result, nil
}

// Delete removes a record unless dependent rows still reference it.
func (s *ReferenceService[T]) Delete(ctx context.Context, entityID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, entityID); err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		reason, err := s.repo.InUse(ctx, entityID)
		if err != nil {
			return fmt.Errorf("check %s references: %w", s.entityName, err)
		}
		if reason != "" {
			return apperror.NewReferentialBlock(s.entityName, entityID.String(), reason)
		}
		if err := s.repo.Delete(ctx, entityID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, s.entityName+" deleted", "id", entityID)
	return nil
}

// List retrieves records with filtering.
func (s *ReferenceService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter.Normalize())
}
