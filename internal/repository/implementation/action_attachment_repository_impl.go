package implementation

import (
	"context"

	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/mapper"
	"qms-compliance-be/internal/model"
	"qms-compliance-be/internal/repository/contract"
	"qms-compliance-be/internal/repository/scope"
	"qms-compliance-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ActionAttachmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CapaMapper
}

func NewActionAttachmentRepository(db *gorm.DB) contract.ActionAttachmentRepository {
	return &ActionAttachmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewCapaMapper(),
	}
}

func (r *ActionAttachmentRepositoryImpl) Create(ctx context.Context, attachment *entity.ActionAttachment) error {
	m := r.mapper.AttachmentToModel(attachment)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*attachment = *r.mapper.AttachmentToEntity(m)
	return nil
}

func (r *ActionAttachmentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ActionAttachment, error) {
	var models []*model.ActionAttachment
	query := applySpecifications(r.db.WithContext(ctx), specs...).Scopes(scope.OrderByCreatedAsc)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.AttachmentsToEntities(models), nil
}

func (r *ActionAttachmentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.ActionAttachment{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
