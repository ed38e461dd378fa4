package contract

import (
	"context"

	"insurance-intake-be/internal/entity"
	"insurance-intake-be/internal/repository/specification"
)

type TranscriptRepository interface {
	Create(ctx context.Context, transcript *entity.Transcript) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transcript, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transcript, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
