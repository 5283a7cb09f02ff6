package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"erp-backend/internal/dte"
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/sii"
	"erp-backend/pkg/apperror"
)

// Broadcaster pushes DTE lifecycle events to connected clients.
type Broadcaster interface {
	BroadcastEvent(event string, payload interface{})
}

// --- DTOs ---

type GenerateDTEResult struct {
	InvoiceID    int64     `json:"factura_id"`
	DocumentType int       `json:"tipo_dte"`
	TypeName     string    `json:"tipo_dte_nombre"`
	Folio        int64     `json:"folio"`
	SIIStatus    string    `json:"estado_sii"`
	SIIMessage   string    `json:"glosa_sii"`
	TrackID      string    `json:"track_id"`
	SubmissionID int64     `json:"seguimiento_id"`
	TotalAmount  string    `json:"monto_total"`
	SentAt       time.Time `json:"fecha_envio"`
	XMLAvailable bool      `json:"xml_disponible"`
	Message      string    `json:"message"`
}

type ResendDTEResult struct {
	InvoiceID  int64      `json:"factura_id"`
	Folio      int64      `json:"folio"`
	SIIStatus  string     `json:"estado_sii"`
	SIIMessage string     `json:"glosa_sii"`
	TrackID    string     `json:"track_id"`
	Attempts   int        `json:"intentos_envio"`
	ResentAt   *time.Time `json:"fecha_reenvio"`
}

// --- Interface ---

// DTEService drives the electronic document pipeline: validation, folio
// allocation, rendering, authority submission and tracking.
type DTEService interface {
	GenerateDTE(ctx context.Context, invoiceID string, docType int) (*GenerateDTEResult, error)
	ResendDTE(ctx context.Context, invoiceID string) (*ResendDTEResult, error)
}

type dteService struct {
	invoiceRepo    repository.InvoiceRepository
	folioRepo      repository.FolioRepository
	submissionRepo repository.SubmissionRepository
	profileRepo    repository.CompanyProfileRepository
	accountingRepo repository.AccountingRepository
	txManager      repository.TransactionManager
	siiClient      sii.Client
	renderer       *dte.Renderer
	siiTimeout     time.Duration
	broadcaster    Broadcaster
}

func NewDTEService(
	invoiceRepo repository.InvoiceRepository,
	folioRepo repository.FolioRepository,
	submissionRepo repository.SubmissionRepository,
	profileRepo repository.CompanyProfileRepository,
	accountingRepo repository.AccountingRepository,
	txManager repository.TransactionManager,
	siiClient sii.Client,
	renderer *dte.Renderer,
	siiTimeout time.Duration,
	broadcaster Broadcaster,
) DTEService {
	return &dteService{
		invoiceRepo:    invoiceRepo,
		folioRepo:      folioRepo,
		submissionRepo: submissionRepo,
		profileRepo:    profileRepo,
		accountingRepo: accountingRepo,
		txManager:      txManager,
		siiClient:      siiClient,
		renderer:       renderer,
		siiTimeout:     siiTimeout,
		broadcaster:    broadcaster,
	}
}

// --- Validation gate ---

// validateForDTE runs the ordered pre-generation checks. It is read-only and
// short-circuits on the first failure.
func (s *dteService) validateForDTE(ctx context.Context, invoiceID string, docType int) (*model.Invoice, error) {
	id, err := strconv.ParseInt(invoiceID, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperror.Validation("invalid invoice id")
	}

	if !dte.IsValid(docType) {
		return nil, apperror.Validation("invalid document type: allowed types: %s", dte.ValidCodesString())
	}

	inv, err := s.invoiceRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		return nil, apperror.NotFound("invoice not found")
	}

	if strings.TrimSpace(inv.Counterparty) == "" {
		return nil, apperror.Validation("invoice must have a counterparty name")
	}

	if !inv.TotalAmount.IsPositive() {
		return nil, apperror.Validation("invalid amount: total must be greater than 0")
	}

	if len(inv.Items) == 0 {
		return nil, apperror.Validation("invoice has no items")
	}

	if inv.HasAcceptedDTE() {
		return nil, apperror.Conflict("invoice already has a DTE - folio %d", *inv.DTEFolio)
	}

	return inv, nil
}

// --- Generation pipeline ---

func (s *dteService) GenerateDTE(ctx context.Context, invoiceID string, docType int) (*GenerateDTEResult, error) {
	inv, err := s.validateForDTE(ctx, invoiceID, docType)
	if err != nil {
		return nil, err
	}

	// A missing or unreadable profile never blocks generation; the renderer
	// substitutes the configured defaults.
	profile, err := s.profileRepo.FindActive(ctx)
	if err != nil {
		log.Printf("WARNING: company profile unavailable, using defaults: %v", err)
		profile = nil
	}

	folio := s.nextFolio(ctx, docType)

	doc := s.renderer.Render(inv, dte.DocumentType(docType), folio, profile, time.Now())

	issuerRUT := ""
	if profile != nil {
		issuerRUT = profile.CompanyRUT
	}
	receiverRUT := ""
	if inv.TaxID != nil {
		receiverRUT = *inv.TaxID
	}
	result := s.submit(ctx, sii.SubmitRequest{
		InvoiceID:    inv.ID,
		DocumentType: docType,
		Folio:        folio,
		XML:          doc.XML,
		IssuerRUT:    issuerRUT,
		ReceiverRUT:  receiverRUT,
		Amount:       inv.TotalAmount,
	})

	sentAt := time.Now()
	responseJSON, _ := json.Marshal(result)

	sub := &model.DTESubmission{
		InvoiceID:    inv.ID,
		DocumentType: docType,
		Folio:        folio,
		SIIStatus:    result.Status,
		SIIMessage:   result.Message,
		TrackID:      result.TrackID,
		SentAt:       sentAt,
		RequestXML:   doc.XML,
		ResponseJSON: string(responseJSON),
		Attempts:     1,
	}
	if !result.RespondedAt.IsZero() {
		respondedAt := result.RespondedAt
		sub.RespondedAt = &respondedAt
	}

	// Invoice mutation and submission insert are one atomic unit; any failure
	// rolls back both. The folio stays consumed either way.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		status := model.InvoiceStatusPending
		if isAccepted(result.Status) {
			status = model.InvoiceStatusSubmitted
		}
		if err := s.invoiceRepo.UpdateDTE(txCtx, inv.ID, status, docType, folio, sentAt, result.Status, doc.XML); err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		if err := s.submissionRepo.Create(txCtx, sub); err != nil {
			return fmt.Errorf("failed to record submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Internal(err, "failed to generate DTE")
	}

	s.recordAccountingEntry(inv)

	out := &GenerateDTEResult{
		InvoiceID:    inv.ID,
		DocumentType: docType,
		TypeName:     dte.Name(docType),
		Folio:        folio,
		SIIStatus:    result.Status,
		SIIMessage:   result.Message,
		TrackID:      result.TrackID,
		SubmissionID: sub.ID,
		TotalAmount:  inv.TotalAmount.StringFixed(2),
		SentAt:       sentAt,
		XMLAvailable: true,
		Message:      fmt.Sprintf("%s generada correctamente", dte.Name(docType)),
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent("dte_generado", out)
	}

	log.Printf("DTE generated - invoice: %d, type: %d, folio: %d", inv.ID, docType, folio)
	return out, nil
}

func (s *dteService) ResendDTE(ctx context.Context, invoiceID string) (*ResendDTEResult, error) {
	id, err := strconv.ParseInt(invoiceID, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperror.Validation("invalid invoice id")
	}

	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil || inv.DTEFolio == nil {
		return nil, apperror.NotFound("DTE not found or not generated")
	}

	sub, err := s.submissionRepo.FindLatestByInvoice(ctx, id)
	if err != nil {
		return nil, apperror.NotFound("DTE not found or not generated")
	}

	if sub.Attempts >= model.MaxSubmissionAttempts {
		return nil, apperror.Conflict("max attempts reached (%d)", model.MaxSubmissionAttempts)
	}

	receiverRUT := ""
	if inv.TaxID != nil {
		receiverRUT = *inv.TaxID
	}
	result := s.submit(ctx, sii.SubmitRequest{
		InvoiceID:    inv.ID,
		DocumentType: sub.DocumentType,
		Folio:        sub.Folio,
		XML:          sub.RequestXML,
		ReceiverRUT:  receiverRUT,
		Amount:       inv.TotalAmount,
		Resend:       true,
	})

	responseJSON, _ := json.Marshal(result)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sub.Attempts++
		sub.SIIStatus = result.Status
		sub.SIIMessage = result.Message
		sub.TrackID = result.TrackID
		sub.ResponseJSON = string(responseJSON)
		if !result.RespondedAt.IsZero() {
			respondedAt := result.RespondedAt
			sub.RespondedAt = &respondedAt
		}
		if err := s.submissionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update submission: %w", err)
		}

		if isAccepted(result.Status) {
			if err := s.invoiceRepo.UpdateDTEStatus(txCtx, inv.ID, model.InvoiceStatusSubmitted, result.Status); err != nil {
				return fmt.Errorf("failed to update invoice: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Internal(err, "failed to resend DTE")
	}

	out := &ResendDTEResult{
		InvoiceID:  inv.ID,
		Folio:      sub.Folio,
		SIIStatus:  result.Status,
		SIIMessage: result.Message,
		TrackID:    result.TrackID,
		Attempts:   sub.Attempts,
		ResentAt:   sub.RespondedAt,
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent("dte_reenviado", out)
	}

	return out, nil
}

// --- Helpers ---

// nextFolio allocates from the atomic sequence; on storage failure it derives
// a folio from the wall clock truncated to eight digits. The fallback gives up
// the no-gaps property, so it is logged as degraded operation.
func (s *dteService) nextFolio(ctx context.Context, docType int) int64 {
	folio, err := s.folioRepo.NextFolio(ctx, docType)
	if err == nil {
		return folio
	}

	log.Printf("WARNING: folio sequence unavailable, deriving folio from timestamp: %v", err)
	ms := strconv.FormatInt(time.Now().UnixMilli(), 10)
	fallback, _ := strconv.ParseInt(ms[len(ms)-8:], 10, 64)
	return fallback
}

// submit sends the document under the configured timeout. An authority
// failure or timeout is never surfaced as an error: the submission lands as
// PENDIENTE so the caller sees a consistent in-progress state.
func (s *dteService) submit(ctx context.Context, req sii.SubmitRequest) sii.SubmitResult {
	callCtx, cancel := context.WithTimeout(ctx, s.siiTimeout)
	defer cancel()

	result, err := s.siiClient.Submit(callCtx, req)
	if err != nil {
		log.Printf("WARNING: SII submission for invoice %d did not complete: %v", req.InvoiceID, err)
		return sii.SubmitResult{
			Status:  sii.StatusPending,
			Message: "DTE en cola de procesamiento",
			TrackID: fmt.Sprintf("PENDIENTE_%d_%d", time.Now().UnixMilli(), req.Folio),
		}
	}
	return result
}

// recordAccountingEntry writes the bookkeeping side record outside the
// generation transaction. Failures are logged, never propagated.
func (s *dteService) recordAccountingEntry(inv *model.Invoice) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		entry := &model.AccountingEntry{
			InvoiceID:   inv.ID,
			EntryType:   model.EntryTypeDTEGenerated,
			Amount:      inv.TotalAmount,
			EntryDate:   inv.IssueDate,
			Description: fmt.Sprintf("Asiento automático - DTE generado para %s", inv.Counterparty),
		}
		if err := s.accountingRepo.Create(ctx, entry); err != nil {
			log.Printf("WARNING: failed to create accounting entry for invoice %d: %v", inv.ID, err)
		}
	}()
}

// isAccepted reports whether an authority verdict counts as acceptance.
func isAccepted(status string) bool {
	switch status {
	case sii.StatusAccepted, sii.StatusAcceptedSimulation, sii.StatusAcceptedResend:
		return true
	}
	return false
}
