package repository

import (
	"context"

	"erp-backend/internal/model"

	"gorm.io/gorm"
)

// AccountingRepository persists the best-effort bookkeeping entries written
// alongside DTE generation.
type AccountingRepository interface {
	Create(ctx context.Context, entry *model.AccountingEntry) error
}

type accountingRepository struct {
	db *gorm.DB
}

func NewAccountingRepository(db *gorm.DB) AccountingRepository {
	return &accountingRepository{db: db}
}

func (r *accountingRepository) Create(ctx context.Context, entry *model.AccountingEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}
