package repository

import (
	"context"

	"residency/internal/domain"

	"gorm.io/gorm"
)

type FacilityRepository struct {
	db *gorm.DB
}

func NewFacilityRepository(db *gorm.DB) *FacilityRepository {
	return &FacilityRepository{db: db}
}

func (r *FacilityRepository) GetAll(ctx context.Context) ([]domain.Facility, error) {
	var facilities []domain.Facility
	tx := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&facilities)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return facilities, nil
}

func (r *FacilityRepository) Create(ctx context.Context, f *domain.Facility) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FacilityRepository) Update(ctx context.Context, f *domain.Facility) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *FacilityRepository) GetByID(ctx context.Context, id int64) (*domain.Facility, error) {
	var f domain.Facility
	tx := r.db.WithContext(ctx).First(&f, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &f, nil
}
