package repository

import (
	"context"
	"time"

	"erp-backend/internal/model"

	"gorm.io/gorm"
)

// DTEListFilter narrows the generated-documents listing.
type DTEListFilter struct {
	DTEType   int
	SIIStatus string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	Limit     int
}

// DTEListRow is one invoice with its most recent submission joined in.
type DTEListRow struct {
	InvoiceID    int64      `gorm:"column:id" json:"factura_id"`
	IssueDate    time.Time  `gorm:"column:fecha_factura" json:"fecha_factura"`
	Counterparty string     `gorm:"column:proveedor" json:"proveedor"`
	TotalAmount  string     `gorm:"column:importe" json:"importe"`
	Currency     string     `gorm:"column:moneda" json:"moneda"`
	Folio        int64      `gorm:"column:dte_folio" json:"dte_folio"`
	DTEType      int        `gorm:"column:dte_tipo" json:"dte_tipo"`
	SentAt       *time.Time `gorm:"column:dte_fecha_envio" json:"dte_fecha_envio"`
	DTEStatus    string     `gorm:"column:dte_estado" json:"dte_estado"`
	SIIStatus    string     `gorm:"column:estado_sii" json:"estado_sii"`
	SIIMessage   string     `gorm:"column:glosa_sii" json:"glosa_sii"`
	TrackID      string     `gorm:"column:track_id" json:"track_id"`
	TypeName     string     `gorm:"-" json:"tipo_dte_nombre"`
}

// DashboardTotals aggregates the current period's submissions by verdict and
// document type.
type DashboardTotals struct {
	TotalDTEs     int64   `gorm:"column:total_dtes" json:"total_dtes"`
	Accepted      int64   `gorm:"column:aceptados" json:"aceptados"`
	Rejected      int64   `gorm:"column:rechazados" json:"rechazados"`
	Pending       int64   `gorm:"column:pendientes" json:"pendientes"`
	TotalAmount   float64 `gorm:"column:monto_total_dtes" json:"monto_total_dtes"`
	FacturasCount int64   `gorm:"column:facturas_electronicas" json:"facturas_electronicas"`
	BoletasCount  int64   `gorm:"column:boletas_electronicas" json:"boletas_electronicas"`
}

// DashboardDay is one point of the per-day series.
type DashboardDay struct {
	Date   time.Time `gorm:"column:fecha" json:"fecha"`
	Count  int64     `gorm:"column:dtes_dia" json:"dtes"`
	Amount float64   `gorm:"column:monto_dia" json:"monto"`
}

type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.DTESubmission) error
	FindLatestByInvoice(ctx context.Context, invoiceID int64) (*model.DTESubmission, error)
	Update(ctx context.Context, sub *model.DTESubmission) error
	ListWithLatest(ctx context.Context, filter DTEListFilter) ([]DTEListRow, int64, error)
	DashboardTotals(ctx context.Context, since time.Time) (DashboardTotals, error)
	DashboardDaily(ctx context.Context, since time.Time) ([]DashboardDay, error)
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, sub *model.DTESubmission) error {
	return GetDB(ctx, r.db).Create(sub).Error
}

func (r *submissionRepository) FindLatestByInvoice(ctx context.Context, invoiceID int64) (*model.DTESubmission, error) {
	var sub model.DTESubmission
	if err := GetDB(ctx, r.db).
		Where("factura_id = ?", invoiceID).
		Order("fecha_creacion DESC").
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepository) Update(ctx context.Context, sub *model.DTESubmission) error {
	return GetDB(ctx, r.db).Save(sub).Error
}

// ListWithLatest returns one row per invoice carrying a folio, joined with the
// most recent submission, newest invoice first.
func (r *submissionRepository) ListWithLatest(ctx context.Context, filter DTEListFilter) ([]DTEListRow, int64, error) {
	db := GetDB(ctx, r.db)

	where := "f.dte_folio IS NOT NULL"
	args := []interface{}{}
	if filter.DTEType != 0 {
		where += " AND f.dte_tipo = ?"
		args = append(args, filter.DTEType)
	}
	if filter.SIIStatus != "" {
		where += " AND ds.estado_sii = ?"
		args = append(args, filter.SIIStatus)
	}
	if filter.DateFrom != nil {
		where += " AND f.fecha_factura >= ?"
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where += " AND f.fecha_factura <= ?"
		args = append(args, *filter.DateTo)
	}

	var total int64
	countQuery := `
		SELECT COUNT(DISTINCT f.id)
		FROM facturas f
		LEFT JOIN dte_seguimiento ds ON f.id = ds.factura_id
		WHERE ` + where
	if err := db.Raw(countQuery, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []DTEListRow
	dataQuery := `
		SELECT DISTINCT ON (f.id)
			f.id, f.fecha_factura, f.proveedor, f.importe, f.moneda,
			f.dte_folio, f.dte_tipo, f.dte_fecha_envio, f.dte_estado,
			ds.estado_sii, ds.glosa_sii, ds.track_id
		FROM facturas f
		LEFT JOIN dte_seguimiento ds ON f.id = ds.factura_id
		WHERE ` + where + `
		ORDER BY f.id DESC, ds.fecha_creacion DESC
		LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	if err := db.Raw(dataQuery, args...).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *submissionRepository) DashboardTotals(ctx context.Context, since time.Time) (DashboardTotals, error) {
	var totals DashboardTotals
	err := GetDB(ctx, r.db).Raw(`
		SELECT
			COUNT(*) AS total_dtes,
			COUNT(CASE WHEN ds.estado_sii IN ('ACEPTADO', 'ACEPTADO_SIMULACION', 'ACEPTADO_REENVIO') THEN 1 END) AS aceptados,
			COUNT(CASE WHEN ds.estado_sii = 'RECHAZADO' THEN 1 END) AS rechazados,
			COUNT(CASE WHEN ds.estado_sii IS NULL OR ds.estado_sii IN ('PENDIENTE', 'EN_PROCESO') THEN 1 END) AS pendientes,
			COALESCE(SUM(f.importe), 0) AS monto_total_dtes,
			COUNT(CASE WHEN f.dte_tipo = 33 THEN 1 END) AS facturas_electronicas,
			COUNT(CASE WHEN f.dte_tipo = 39 THEN 1 END) AS boletas_electronicas
		FROM facturas f
		LEFT JOIN dte_seguimiento ds ON f.id = ds.factura_id
		WHERE f.dte_folio IS NOT NULL
		  AND f.fecha_factura >= ?
	`, since).Scan(&totals).Error
	return totals, err
}

func (r *submissionRepository) DashboardDaily(ctx context.Context, since time.Time) ([]DashboardDay, error) {
	var days []DashboardDay
	err := GetDB(ctx, r.db).Raw(`
		SELECT
			DATE_TRUNC('day', f.fecha_factura) AS fecha,
			COUNT(*) AS dtes_dia,
			COALESCE(SUM(f.importe), 0) AS monto_dia
		FROM facturas f
		WHERE f.dte_folio IS NOT NULL
		  AND f.fecha_factura >= ?
		GROUP BY DATE_TRUNC('day', f.fecha_factura)
		ORDER BY fecha
	`, since).Scan(&days).Error
	return days, err
}
