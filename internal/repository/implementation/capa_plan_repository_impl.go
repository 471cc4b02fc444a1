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

type CapaPlanRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CapaMapper
}

func NewCapaPlanRepository(db *gorm.DB) contract.CapaPlanRepository {
	return &CapaPlanRepositoryImpl{
		db:     db,
		mapper: mapper.NewCapaMapper(),
	}
}

func (r *CapaPlanRepositoryImpl) Create(ctx context.Context, plan *entity.CapaPlan) error {
	m := r.mapper.CapaPlanToModel(plan)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*plan = *r.mapper.CapaPlanToEntity(m)
	return nil
}

func (r *CapaPlanRepositoryImpl) Update(ctx context.Context, plan *entity.CapaPlan) error {
	m := r.mapper.CapaPlanToModel(plan)
	// Save writes every column, so zero values (cleared fields) are persisted too.
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*plan = *r.mapper.CapaPlanToEntity(m)
	return nil
}

func (r *CapaPlanRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CapaPlan, error) {
	var m model.CapaPlan
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.CapaPlanToEntity(&m), nil
}

func (r *CapaPlanRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CapaPlan, error) {
	var models []*model.CapaPlan
	query := applySpecifications(r.db.WithContext(ctx), specs...).Scopes(scope.OrderByCreatedAsc)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.CapaPlansToEntities(models), nil
}

func (r *CapaPlanRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.CapaPlan{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
