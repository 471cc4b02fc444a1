package contract

import (
	"context"

	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/repository/specification"
)

type ActionRepository interface {
	Create(ctx context.Context, action *entity.Action) error
	Update(ctx context.Context, action *entity.Action) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Action, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Action, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
