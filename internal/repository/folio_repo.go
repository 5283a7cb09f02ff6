package repository

import (
	"context"

	"gorm.io/gorm"
)

// FolioRepository issues document numbers. Allocation is a single atomic
// upsert at the storage layer so concurrent callers for the same document
// type always receive strictly increasing, distinct folios.
type FolioRepository interface {
	NextFolio(ctx context.Context, docType int) (int64, error)
}

type folioRepository struct {
	db *gorm.DB
}

func NewFolioRepository(db *gorm.DB) FolioRepository {
	return &folioRepository{db: db}
}

func (r *folioRepository) NextFolio(ctx context.Context, docType int) (int64, error) {
	var folio int64
	err := GetDB(ctx, r.db).Raw(`
		INSERT INTO folio_secuencias (tipo_dte, ultimo_folio)
		VALUES (?, 1)
		ON CONFLICT (tipo_dte)
		DO UPDATE SET ultimo_folio = folio_secuencias.ultimo_folio + 1
		RETURNING ultimo_folio
	`, docType).Scan(&folio).Error
	if err != nil {
		return 0, err
	}
	return folio, nil
}
