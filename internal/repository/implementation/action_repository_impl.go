package implementation

import (
	"context"
	"errors"

	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/mapper"
	"qms-compliance-be/internal/model"
	"qms-compliance-be/internal/repository/contract"
	"qms-compliance-be/internal/repository/scope"
	"qms-compliance-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ActionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CapaMapper
}

func NewActionRepository(db *gorm.DB) contract.ActionRepository {
	return &ActionRepositoryImpl{
		db:     db,
		mapper: mapper.NewCapaMapper(),
	}
}

func (r *ActionRepositoryImpl) Create(ctx context.Context, action *entity.Action) error {
	m := r.mapper.ActionToModel(action)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*action = *r.mapper.ActionToEntity(m)
	return nil
}

func (r *ActionRepositoryImpl) Update(ctx context.Context, action *entity.Action) error {
	m := r.mapper.ActionToModel(action)
	// Save writes every column, so zero values (cleared fields) are persisted too.
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*action = *r.mapper.ActionToEntity(m)
	return nil
}

func (r *ActionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Action, error) {
	var m model.Action
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ActionToEntity(&m), nil
}

func (r *ActionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Action, error) {
	var models []*model.Action
	query := applySpecifications(r.db.WithContext(ctx), specs...).Scopes(scope.OrderByCreatedAsc)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ActionsToEntities(models), nil
}

func (r *ActionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Action{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
