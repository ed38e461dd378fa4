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

type TranscriptRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.IntakeMapper
}

func NewTranscriptRepository(db *gorm.DB) contract.TranscriptRepository {
	return &TranscriptRepositoryImpl{
		db:     db,
		mapper: mapper.NewIntakeMapper(),
	}
}

func (r *TranscriptRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TranscriptRepositoryImpl) Create(ctx context.Context, transcript *entity.Transcript) error {
	m := r.mapper.TranscriptToModel(transcript)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*transcript = *r.mapper.TranscriptToEntity(m)
	return nil
}

func (r *TranscriptRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transcript, error) {
	var m model.Transcript
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.TranscriptToEntity(&m), nil
}

func (r *TranscriptRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transcript, error) {
	var models []*model.Transcript
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Transcript, len(models))
	for i, m := range models {
		entities[i] = r.mapper.TranscriptToEntity(m)
	}
	return entities, nil
}

func (r *TranscriptRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Transcript{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
