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

type AuditRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CapaMapper
}

func NewAuditRepository(db *gorm.DB) contract.AuditRepository {
	return &AuditRepositoryImpl{
		db:     db,
		mapper: mapper.NewCapaMapper(),
	}
}

func (r *AuditRepositoryImpl) Create(ctx context.Context, audit *entity.Audit) error {
	m := r.mapper.AuditToModel(audit)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*audit = *r.mapper.AuditToEntity(m)
	return nil
}

func (r *AuditRepositoryImpl) Update(ctx context.Context, audit *entity.Audit) error {
	m := r.mapper.AuditToModel(audit)
	// Save writes every column, so zero values (cleared fields) are persisted too.
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*audit = *r.mapper.AuditToEntity(m)
	return nil
}

func (r *AuditRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Audit, error) {
	var m model.Audit
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AuditToEntity(&m), nil
}

func (r *AuditRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Audit, error) {
	var models []*model.Audit
	query := applySpecifications(r.db.WithContext(ctx), specs...).Scopes(scope.OrderByCreatedAsc)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.AuditsToEntities(models), nil
}

func (r *AuditRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Audit{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
