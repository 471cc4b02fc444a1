package contract

import (
	"context"

	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/repository/specification"
)

type NonConformityRepository interface {
	Create(ctx context.Context, nonConformity *entity.NonConformity) error
	Update(ctx context.Context, nonConformity *entity.NonConformity) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NonConformity, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NonConformity, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
