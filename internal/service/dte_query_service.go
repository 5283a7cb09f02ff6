package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	"erp-backend/internal/dte"
	"erp-backend/internal/repository"
	"erp-backend/internal/sii"
	"erp-backend/pkg/apperror"
	"erp-backend/pkg/pagination"
)

// StatusNoDTE is reported for invoices that never entered the pipeline.
const StatusNoDTE = "sin_dte"

// --- DTOs ---

type DTEStatusResult struct {
	InvoiceID    int64      `json:"factura_id"`
	Status       string     `json:"estado"`
	Folio        *int64     `json:"folio,omitempty"`
	DocumentType *int       `json:"tipo_dte,omitempty"`
	SIIStatus    string     `json:"estado_sii,omitempty"`
	SIIMessage   string     `json:"glosa_sii,omitempty"`
	TrackID      string     `json:"track_id,omitempty"`
	SentAt       *time.Time `json:"fecha_envio,omitempty"`
	CheckedAt    *time.Time `json:"fecha_consulta,omitempty"`
}

type DTEListResult struct {
	Rows       []repository.DTEListRow `json:"data"`
	Pagination PaginationMeta          `json:"pagination"`
}

type PaginationMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type DashboardStats struct {
	repository.DashboardTotals
	Daily []repository.DashboardDay `json:"estadisticas_diarias"`
}

type DTEDocument struct {
	Filename string
	XML      string
}

// --- Interface ---

// DTEQueryService is the read path of the pipeline: current state of an
// invoice's document, filtered listings and aggregate statistics.
type DTEQueryService interface {
	Status(ctx context.Context, invoiceID string) (*DTEStatusResult, error)
	List(ctx context.Context, filter repository.DTEListFilter) (*DTEListResult, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	DocumentXML(ctx context.Context, invoiceID string) (*DTEDocument, error)
}

type dteQueryService struct {
	invoiceRepo    repository.InvoiceRepository
	submissionRepo repository.SubmissionRepository
	siiClient      sii.Client
	siiTimeout     time.Duration
}

func NewDTEQueryService(
	invoiceRepo repository.InvoiceRepository,
	submissionRepo repository.SubmissionRepository,
	siiClient sii.Client,
	siiTimeout time.Duration,
) DTEQueryService {
	return &dteQueryService{
		invoiceRepo:    invoiceRepo,
		submissionRepo: submissionRepo,
		siiClient:      siiClient,
		siiTimeout:     siiTimeout,
	}
}

// --- Implementation ---

// Status reports the current authority verdict for an invoice's document.
// Invoices without a folio short-circuit to sin_dte without touching the
// authority.
func (s *dteQueryService) Status(ctx context.Context, invoiceID string) (*DTEStatusResult, error) {
	id, err := strconv.ParseInt(invoiceID, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperror.Validation("invalid invoice id")
	}

	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NotFound("invoice not found")
	}

	if inv.DTEFolio == nil {
		return &DTEStatusResult{InvoiceID: inv.ID, Status: StatusNoDTE}, nil
	}

	trackID := ""
	if sub, subErr := s.submissionRepo.FindLatestByInvoice(ctx, id); subErr == nil {
		trackID = sub.TrackID
	}

	callCtx, cancel := context.WithTimeout(ctx, s.siiTimeout)
	defer cancel()

	check, err := s.siiClient.CheckStatus(callCtx, trackID)
	if err != nil {
		// No answer from the authority reads as in-progress, not as a failure.
		log.Printf("WARNING: SII status check for invoice %d did not complete: %v", id, err)
		check = sii.StatusResult{
			Status:    sii.StatusPending,
			Message:   "DTE en cola de procesamiento",
			CheckedAt: time.Now(),
		}
	}

	checkedAt := check.CheckedAt
	return &DTEStatusResult{
		InvoiceID:    inv.ID,
		Status:       derefOr(inv.DTEStatus, ""),
		Folio:        inv.DTEFolio,
		DocumentType: inv.DTEType,
		SIIStatus:    check.Status,
		SIIMessage:   check.Message,
		TrackID:      trackID,
		SentAt:       inv.DTESentAt,
		CheckedAt:    &checkedAt,
	}, nil
}

func (s *dteQueryService) List(ctx context.Context, filter repository.DTEListFilter) (*DTEListResult, error) {
	params := pagination.Normalize(filter.Page, filter.Limit)
	filter.Page = params.Page
	filter.Limit = params.Limit

	rows, total, err := s.submissionRepo.ListWithLatest(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list DTEs")
	}

	for i := range rows {
		rows[i].TypeName = dte.Name(rows[i].DTEType)
	}

	return &DTEListResult{
		Rows: rows,
		Pagination: PaginationMeta{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
			Pages: pagination.Pages(total, params.Limit),
		},
	}, nil
}

// DashboardStats aggregates the current month's documents.
func (s *dteQueryService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	totals, err := s.submissionRepo.DashboardTotals(ctx, monthStart)
	if err != nil {
		return nil, apperror.Internal(err, "failed to compute dashboard statistics")
	}

	daily, err := s.submissionRepo.DashboardDaily(ctx, monthStart)
	if err != nil {
		return nil, apperror.Internal(err, "failed to compute dashboard statistics")
	}

	if daily == nil {
		daily = []repository.DashboardDay{}
	}
	return &DashboardStats{DashboardTotals: totals, Daily: daily}, nil
}

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]`)

// DocumentXML returns the stored rendered payload for download.
func (s *dteQueryService) DocumentXML(ctx context.Context, invoiceID string) (*DTEDocument, error) {
	id, err := strconv.ParseInt(invoiceID, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperror.Validation("invalid invoice id")
	}

	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NotFound("invoice not found")
	}

	if inv.DTEXML == nil || *inv.DTEXML == "" || inv.DTEFolio == nil {
		return nil, apperror.NotFound("DTE XML not found")
	}

	name := filenameSanitizer.ReplaceAllString(inv.Counterparty, "_")
	return &DTEDocument{
		Filename: fmt.Sprintf("DTE_%d_%s.xml", *inv.DTEFolio, name),
		XML:      *inv.DTEXML,
	}, nil
}

func derefOr(s *string, fallback string) string {
	if s != nil {
		return *s
	}
	return fallback
}
