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

type NonConformityRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CapaMapper
}

func NewNonConformityRepository(db *gorm.DB) contract.NonConformityRepository {
	return &NonConformityRepositoryImpl{
		db:     db,
		mapper: mapper.NewCapaMapper(),
	}
}

func (r *NonConformityRepositoryImpl) Create(ctx context.Context, nonConformity *entity.NonConformity) error {
	m := r.mapper.NonConformityToModel(nonConformity)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*nonConformity = *r.mapper.NonConformityToEntity(m)
	return nil
}

func (r *NonConformityRepositoryImpl) Update(ctx context.Context, nonConformity *entity.NonConformity) error {
	m := r.mapper.NonConformityToModel(nonConformity)
	// Save writes every column, so zero values (cleared fields) are persisted too.
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*nonConformity = *r.mapper.NonConformityToEntity(m)
	return nil
}

func (r *NonConformityRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NonConformity, error) {
	var m model.NonConformity
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.NonConformityToEntity(&m), nil
}

func (r *NonConformityRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NonConformity, error) {
	var models []*model.NonConformity
	query := applySpecifications(r.db.WithContext(ctx), specs...).Scopes(scope.OrderByCreatedAsc)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.NonConformitiesToEntities(models), nil
}

func (r *NonConformityRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.NonConformity{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
