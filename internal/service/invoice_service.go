package service

import (
	"context"
	"strconv"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/pkg/apperror"
	"erp-backend/pkg/pagination"

	"github.com/shopspring/decimal"
)

// roundingTolerance is the per-currency rounding unit used when reconciling
// stored decompositions.
var roundingTolerance = decimal.NewFromFloat(0.01)

// --- DTOs ---

type CreateInvoiceItemRequest struct {
	Description  string `json:"producto_insumo" binding:"required"`
	Category     string `json:"categoria"`
	Unit         string `json:"unidad_medida"`
	Quantity     string `json:"cantidad" binding:"required"`
	UnitPrice    string `json:"precio_unitario" binding:"required"`
	TaxableValue string `json:"valor_afecto"`
	ExemptValue  string `json:"valor_inafecto"`
	TaxValue     string `json:"impuestos"`
	Total        string `json:"total"`
}

type CreateInvoiceRequest struct {
	IssueDate    string                     `json:"fecha_factura" binding:"required"`
	Series       string                     `json:"serie"`
	Number       string                     `json:"numero"`
	TaxID        string                     `json:"ruc"`
	Counterparty string                     `json:"proveedor" binding:"required"`
	TaxableValue string                     `json:"valor_afecto" binding:"required"`
	ExemptValue  string                     `json:"valor_inafecto"`
	TaxValue     string                     `json:"impuestos"`
	TotalAmount  string                     `json:"importe" binding:"required"`
	Currency     string                     `json:"moneda" binding:"required"`
	SourceFile   string                     `json:"archivo_original"`
	Items        []CreateInvoiceItemRequest `json:"items" binding:"required"`
}

type InvoiceListQuery struct {
	DTEStatus string
	DTEType   int
	DateFrom  string
	DateTo    string
	Page      int
	Limit     int
}

type InvoiceListResult struct {
	Invoices   []model.Invoice `json:"data"`
	Pagination PaginationMeta  `json:"pagination"`
}

// --- Interface ---

// InvoiceService covers the invoice store operations surrounding the DTE
// pipeline: capture, listing and removal.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*model.Invoice, error)
	ListInvoices(ctx context.Context, query InvoiceListQuery) (*InvoiceListResult, error)
	DeleteInvoice(ctx context.Context, id string) error
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
}

func NewInvoiceService(invoiceRepo repository.InvoiceRepository) InvoiceService {
	return &invoiceService{invoiceRepo: invoiceRepo}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*model.Invoice, error) {
	issueDate, err := time.Parse("2006-01-02", req.IssueDate)
	if err != nil {
		return nil, apperror.Validation("invalid issue date, expected YYYY-MM-DD")
	}

	taxable, err := parseAmount(req.TaxableValue, "valor_afecto")
	if err != nil {
		return nil, err
	}
	exempt, err := parseOptionalAmount(req.ExemptValue)
	if err != nil {
		return nil, apperror.Validation("invalid valor_inafecto")
	}
	tax, err := parseOptionalAmount(req.TaxValue)
	if err != nil {
		return nil, apperror.Validation("invalid impuestos")
	}
	total, err := parseAmount(req.TotalAmount, "importe")
	if err != nil {
		return nil, err
	}

	if !total.IsPositive() {
		return nil, apperror.Validation("invalid amount: total must be greater than 0")
	}

	// The stored decomposition must add up to the total within the currency's
	// rounding unit.
	if total.Sub(taxable.Add(exempt).Add(tax)).Abs().GreaterThan(roundingTolerance) {
		return nil, apperror.Validation("invoice amounts do not reconcile: importe must equal valor_afecto + valor_inafecto + impuestos")
	}

	if len(req.Items) == 0 {
		return nil, apperror.Validation("invoice has no items")
	}

	items := make([]model.InvoiceItem, 0, len(req.Items))
	for _, it := range req.Items {
		item, err := buildItem(it)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	invoice := &model.Invoice{
		IssueDate:    issueDate,
		Series:       optional(req.Series),
		Number:       optional(req.Number),
		TaxID:        optional(req.TaxID),
		Counterparty: req.Counterparty,
		TaxableValue: taxable,
		ExemptValue:  exempt,
		TaxValue:     tax,
		TotalAmount:  total,
		Currency:     req.Currency,
		SourceFile:   optional(req.SourceFile),
		Status:       model.InvoiceStatusPending,
		Items:        items,
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, apperror.Internal(err, "failed to save invoice")
	}

	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, query InvoiceListQuery) (*InvoiceListResult, error) {
	params := pagination.Normalize(query.Page, query.Limit)

	filter := repository.InvoiceListFilter{
		DTEStatus: query.DTEStatus,
		DTEType:   query.DTEType,
		Page:      params.Page,
		Limit:     params.Limit,
	}
	if query.DateFrom != "" {
		from, err := time.Parse("2006-01-02", query.DateFrom)
		if err != nil {
			return nil, apperror.Validation("invalid fecha_inicio, expected YYYY-MM-DD")
		}
		filter.DateFrom = &from
	}
	if query.DateTo != "" {
		to, err := time.Parse("2006-01-02", query.DateTo)
		if err != nil {
			return nil, apperror.Validation("invalid fecha_fin, expected YYYY-MM-DD")
		}
		filter.DateTo = &to
	}

	invoices, total, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list invoices")
	}

	return &InvoiceListResult{
		Invoices: invoices,
		Pagination: PaginationMeta{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
			Pages: pagination.Pages(total, params.Limit),
		},
	}, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id string) error {
	invoiceID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || invoiceID <= 0 {
		return apperror.Validation("invalid invoice id")
	}

	if _, err := s.invoiceRepo.FindByID(ctx, invoiceID); err != nil {
		return apperror.NotFound("invoice not found")
	}

	if err := s.invoiceRepo.Delete(ctx, invoiceID); err != nil {
		return apperror.Internal(err, "failed to delete invoice")
	}
	return nil
}

// --- Helpers ---

func buildItem(req CreateInvoiceItemRequest) (model.InvoiceItem, error) {
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil || !qty.IsPositive() {
		return model.InvoiceItem{}, apperror.Validation("invalid item quantity")
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || price.IsNegative() {
		return model.InvoiceItem{}, apperror.Validation("invalid item unit price")
	}

	taxable, err := parseOptionalAmount(req.TaxableValue)
	if err != nil {
		return model.InvoiceItem{}, apperror.Validation("invalid item valor_afecto")
	}
	exempt, err := parseOptionalAmount(req.ExemptValue)
	if err != nil {
		return model.InvoiceItem{}, apperror.Validation("invalid item valor_inafecto")
	}
	tax, err := parseOptionalAmount(req.TaxValue)
	if err != nil {
		return model.InvoiceItem{}, apperror.Validation("invalid item impuestos")
	}

	total := qty.Mul(price)
	if req.Total != "" {
		provided, err := decimal.NewFromString(req.Total)
		if err != nil {
			return model.InvoiceItem{}, apperror.Validation("invalid item total")
		}
		// The line total must match quantity x unit price within the rounding unit.
		if provided.Sub(total).Abs().GreaterThan(roundingTolerance) {
			return model.InvoiceItem{}, apperror.Validation("item total does not match cantidad x precio_unitario")
		}
		total = provided
	}

	return model.InvoiceItem{
		Description:  req.Description,
		Category:     optional(req.Category),
		Unit:         optional(req.Unit),
		Quantity:     qty,
		UnitPrice:    price,
		TaxableValue: taxable,
		ExemptValue:  exempt,
		TaxValue:     tax,
		Total:        total,
	}, nil
}

func parseAmount(value, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, apperror.Validation("invalid %s", field)
	}
	return d, nil
}

func parseOptionalAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
