package contract

import (
	"context"

	"insurance-intake-be/internal/entity"
	"insurance-intake-be/internal/repository/specification"
)

type QuoteRequestRepository interface {
	Create(ctx context.Context, quote *entity.QuoteRequest) error
	Update(ctx context.Context, quote *entity.QuoteRequest) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QuoteRequest, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuoteRequest, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
