package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryTypeDTEGenerated marks entries produced by the DTE pipeline.
const EntryTypeDTEGenerated = "dte_generado"

// AccountingEntry is the best-effort bookkeeping record written when a DTE is
// generated. Creation failures are logged and never abort the generation
// transaction.
type AccountingEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   int64           `gorm:"column:factura_id;not null;index" json:"factura_id"`
	EntryType   string          `gorm:"column:tipo_asiento;type:varchar(50);not null" json:"tipo_asiento"`
	Amount      decimal.Decimal `gorm:"column:monto;type:decimal(15,2);not null" json:"monto"`
	EntryDate   time.Time       `gorm:"column:fecha_asiento;type:date;not null" json:"fecha_asiento"`
	Description string          `gorm:"column:descripcion;type:text" json:"descripcion"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (AccountingEntry) TableName() string { return "factura_asientos" }
