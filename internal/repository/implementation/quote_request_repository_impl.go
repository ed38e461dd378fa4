package implementation

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"insurance-intake-be/internal/entity"
	"insurance-intake-be/internal/mapper"
	"insurance-intake-be/internal/model"
	"insurance-intake-be/internal/repository/contract"
	"insurance-intake-be/internal/repository/specification"
)

type QuoteRequestRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.IntakeMapper
}

func NewQuoteRequestRepository(db *gorm.DB) contract.QuoteRequestRepository {
	return &QuoteRequestRepositoryImpl{
		db:     db,
		mapper: mapper.NewIntakeMapper(),
	}
}

func (r *QuoteRequestRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QuoteRequestRepositoryImpl) Create(ctx context.Context, quote *entity.QuoteRequest) error {
	m := r.mapper.QuoteRequestToModel(quote)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*quote = *r.mapper.QuoteRequestToEntity(m)
	return nil
}

func (r *QuoteRequestRepositoryImpl) Update(ctx context.Context, quote *entity.QuoteRequest) error {
	m := r.mapper.QuoteRequestToModel(quote)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*quote = *r.mapper.QuoteRequestToEntity(m)
	return nil
}

func (r *QuoteRequestRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QuoteRequest, error) {
	var m model.QuoteRequest
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.QuoteRequestToEntity(&m), nil
}

func (r *QuoteRequestRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuoteRequest, error) {
	var models []*model.QuoteRequest
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.QuoteRequest, len(models))
	for i, m := range models {
		entities[i] = r.mapper.QuoteRequestToEntity(m)
	}
	return entities, nil
}

func (r *QuoteRequestRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.QuoteRequest{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
