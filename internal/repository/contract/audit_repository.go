package contract

import (
	"context"

	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/repository/specification"
)

type AuditRepository interface {
	Create(ctx context.Context, audit *entity.Audit) error
	Update(ctx context.Context, audit *entity.Audit) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Audit, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Audit, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
