package contract

import (
	"context"

	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/repository/specification"
)

type CapaPlanRepository interface {
	Create(ctx context.Context, plan *entity.CapaPlan) error
	Update(ctx context.Context, plan *entity.CapaPlan) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CapaPlan, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CapaPlan, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
