package repository

import (
	"context"
	"errors"

	"erp-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompanyProfileRepository interface {
	// FindActive returns the newest active profile, or nil when none exists.
	FindActive(ctx context.Context) (*model.CompanyProfile, error)
	Upsert(ctx context.Context, profile *model.CompanyProfile) error
}

type companyProfileRepository struct {
	db *gorm.DB
}

func NewCompanyProfileRepository(db *gorm.DB) CompanyProfileRepository {
	return &companyProfileRepository{db: db}
}

func (r *companyProfileRepository) FindActive(ctx context.Context) (*model.CompanyProfile, error) {
	var profile model.CompanyProfile
	err := GetDB(ctx, r.db).
		Where("activo = ?", true).
		Order("id DESC").
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert inserts or updates the profile keyed by the company RUT, reactivating
// it in either case.
func (r *companyProfileRepository) Upsert(ctx context.Context, profile *model.CompanyProfile) error {
	profile.Active = true
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "rut_empresa"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"nombre_empresa", "giro_empresa", "actividad_economica",
			"direccion", "comuna", "ciudad", "telefono", "email",
			"ambiente", "activo", "fecha_actualizacion",
		}),
	}).Create(profile).Error
}
