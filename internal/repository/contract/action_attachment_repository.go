package contract

import (
	"context"

	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/repository/specification"
)

type ActionAttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.ActionAttachment) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ActionAttachment, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
