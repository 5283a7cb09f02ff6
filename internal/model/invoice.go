package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice processing status constants
const (
	InvoiceStatusPending   = "pendiente"
	InvoiceStatusSubmitted = "enviada_sii"
)

// Invoice represents a stored supplier invoice (factura). Monetary fields keep
// the original two-decimal columns; the DTE* fields are populated once an
// electronic tax document has been generated for the invoice.
type Invoice struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	IssueDate    time.Time       `gorm:"column:fecha_factura;type:date;not null" json:"fecha_factura"`
	Series       *string         `gorm:"column:serie;type:varchar(50)" json:"serie"`
	Number       *string         `gorm:"column:numero;type:varchar(50)" json:"numero"`
	TaxID        *string         `gorm:"column:ruc;type:varchar(50)" json:"ruc"` // counterparty tax id
	Counterparty string          `gorm:"column:proveedor;type:text;not null" json:"proveedor"`
	TaxableValue decimal.Decimal `gorm:"column:valor_afecto;type:decimal(15,2);not null" json:"valor_afecto"`
	ExemptValue  decimal.Decimal `gorm:"column:valor_inafecto;type:decimal(15,2);not null" json:"valor_inafecto"`
	TaxValue     decimal.Decimal `gorm:"column:impuestos;type:decimal(15,2);not null" json:"impuestos"`
	TotalAmount  decimal.Decimal `gorm:"column:importe;type:decimal(15,2);not null" json:"importe"`
	Currency     string          `gorm:"column:moneda;type:varchar(10);not null" json:"moneda"`
	SourceFile   *string         `gorm:"column:archivo_original;type:text" json:"archivo_original"`
	Status       string          `gorm:"column:estado;type:varchar(50);not null;default:'pendiente';index" json:"estado"`
	DTEFolio     *int64          `gorm:"column:dte_folio" json:"dte_folio"`
	DTEType      *int            `gorm:"column:dte_tipo;index" json:"dte_tipo"`
	DTESentAt    *time.Time      `gorm:"column:dte_fecha_envio" json:"dte_fecha_envio"`
	DTEStatus    *string         `gorm:"column:dte_estado;type:varchar(50);index" json:"dte_estado"`
	DTEXML       *string         `gorm:"column:dte_xml;type:text" json:"dte_xml,omitempty"`
	Items        []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Invoice) TableName() string { return "facturas" }

// HasAcceptedDTE reports whether the invoice already carries an active,
// authority-accepted electronic document.
func (i *Invoice) HasAcceptedDTE() bool {
	return i.DTEFolio != nil && i.Status == InvoiceStatusSubmitted
}

// InvoiceItem is a single line of an invoice. Rows are removed together with
// their parent invoice (cascade delete).
type InvoiceItem struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID    int64           `gorm:"column:factura_id;not null;index" json:"factura_id"`
	Description  string          `gorm:"column:producto_insumo;type:text;not null" json:"producto_insumo"`
	Category     *string         `gorm:"column:categoria;type:varchar(100)" json:"categoria"`
	Unit         *string         `gorm:"column:unidad_medida;type:varchar(50)" json:"unidad_medida"`
	Quantity     decimal.Decimal `gorm:"column:cantidad;type:decimal(10,2);not null" json:"cantidad"`
	UnitPrice    decimal.Decimal `gorm:"column:precio_unitario;type:decimal(15,2);not null" json:"precio_unitario"`
	TaxableValue decimal.Decimal `gorm:"column:valor_afecto;type:decimal(15,2);not null" json:"valor_afecto"`
	ExemptValue  decimal.Decimal `gorm:"column:valor_inafecto;type:decimal(15,2);not null" json:"valor_inafecto"`
	TaxValue     decimal.Decimal `gorm:"column:impuestos;type:decimal(15,2);not null" json:"impuestos"`
	Total        decimal.Decimal `gorm:"column:total;type:decimal(15,2);not null" json:"total"`
}

func (InvoiceItem) TableName() string { return "factura_items" }
