package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/sii"
)

var errNotFound = errors.New("record not found")

// Hand-rolled stubs for the repository and authority seams. Each method
// delegates to an optional function field; unset fields fall back to benign
// defaults so tests only wire what they assert on.

type invoiceRepoStub struct {
	createFn          func(ctx context.Context, inv *model.Invoice) error
	findByIDFn        func(ctx context.Context, id int64) (*model.Invoice, error)
	findWithItemsFn   func(ctx context.Context, id int64) (*model.Invoice, error)
	listFn            func(ctx context.Context, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error)
	updateDTEFn       func(ctx context.Context, id int64, status string, docType int, folio int64, sentAt time.Time, dteStatus, xml string) error
	updateDTEStatusFn func(ctx context.Context, id int64, status, dteStatus string) error
	deleteFn          func(ctx context.Context, id int64) error

	mu              sync.Mutex
	updateDTECalls  []updateDTECall
	statusCalls     []updateStatusCall
	createdInvoices []*model.Invoice
}

type updateDTECall struct {
	ID        int64
	Status    string
	DocType   int
	Folio     int64
	DTEStatus string
	XML       string
}

type updateStatusCall struct {
	ID        int64
	Status    string
	DTEStatus string
}

func (s *invoiceRepoStub) Create(ctx context.Context, inv *model.Invoice) error {
	s.mu.Lock()
	s.createdInvoices = append(s.createdInvoices, inv)
	s.mu.Unlock()
	if s.createFn != nil {
		return s.createFn(ctx, inv)
	}
	return nil
}

func (s *invoiceRepoStub) FindByID(ctx context.Context, id int64) (*model.Invoice, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, errNotFound
}

func (s *invoiceRepoStub) FindByIDWithItems(ctx context.Context, id int64) (*model.Invoice, error) {
	if s.findWithItemsFn != nil {
		return s.findWithItemsFn(ctx, id)
	}
	return nil, errNotFound
}

func (s *invoiceRepoStub) List(ctx context.Context, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (s *invoiceRepoStub) UpdateDTE(ctx context.Context, id int64, status string, docType int, folio int64, sentAt time.Time, dteStatus, xml string) error {
	s.mu.Lock()
	s.updateDTECalls = append(s.updateDTECalls, updateDTECall{
		ID: id, Status: status, DocType: docType, Folio: folio, DTEStatus: dteStatus, XML: xml,
	})
	s.mu.Unlock()
	if s.updateDTEFn != nil {
		return s.updateDTEFn(ctx, id, status, docType, folio, sentAt, dteStatus, xml)
	}
	return nil
}

func (s *invoiceRepoStub) UpdateDTEStatus(ctx context.Context, id int64, status, dteStatus string) error {
	s.mu.Lock()
	s.statusCalls = append(s.statusCalls, updateStatusCall{ID: id, Status: status, DTEStatus: dteStatus})
	s.mu.Unlock()
	if s.updateDTEStatusFn != nil {
		return s.updateDTEStatusFn(ctx, id, status, dteStatus)
	}
	return nil
}

func (s *invoiceRepoStub) Delete(ctx context.Context, id int64) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type folioRepoStub struct {
	nextFolioFn func(ctx context.Context, docType int) (int64, error)
}

func (s *folioRepoStub) NextFolio(ctx context.Context, docType int) (int64, error) {
	if s.nextFolioFn != nil {
		return s.nextFolioFn(ctx, docType)
	}
	return 1, nil
}

type submissionRepoStub struct {
	createFn     func(ctx context.Context, sub *model.DTESubmission) error
	findLatestFn func(ctx context.Context, invoiceID int64) (*model.DTESubmission, error)
	updateFn     func(ctx context.Context, sub *model.DTESubmission) error

	mu      sync.Mutex
	created []*model.DTESubmission
	updated []*model.DTESubmission
}

func (s *submissionRepoStub) Create(ctx context.Context, sub *model.DTESubmission) error {
	s.mu.Lock()
	s.created = append(s.created, sub)
	s.mu.Unlock()
	if s.createFn != nil {
		return s.createFn(ctx, sub)
	}
	sub.ID = int64(len(s.created))
	return nil
}

func (s *submissionRepoStub) FindLatestByInvoice(ctx context.Context, invoiceID int64) (*model.DTESubmission, error) {
	if s.findLatestFn != nil {
		return s.findLatestFn(ctx, invoiceID)
	}
	return nil, errNotFound
}

func (s *submissionRepoStub) Update(ctx context.Context, sub *model.DTESubmission) error {
	s.mu.Lock()
	s.updated = append(s.updated, sub)
	s.mu.Unlock()
	if s.updateFn != nil {
		return s.updateFn(ctx, sub)
	}
	return nil
}

func (s *submissionRepoStub) ListWithLatest(ctx context.Context, filter repository.DTEListFilter) ([]repository.DTEListRow, int64, error) {
	return nil, 0, nil
}

func (s *submissionRepoStub) DashboardTotals(ctx context.Context, since time.Time) (repository.DashboardTotals, error) {
	return repository.DashboardTotals{}, nil
}

func (s *submissionRepoStub) DashboardDaily(ctx context.Context, since time.Time) ([]repository.DashboardDay, error) {
	return nil, nil
}

type profileRepoStub struct {
	findActiveFn func(ctx context.Context) (*model.CompanyProfile, error)
	upsertFn     func(ctx context.Context, profile *model.CompanyProfile) error
}

func (s *profileRepoStub) FindActive(ctx context.Context) (*model.CompanyProfile, error) {
	if s.findActiveFn != nil {
		return s.findActiveFn(ctx)
	}
	return nil, nil
}

func (s *profileRepoStub) Upsert(ctx context.Context, profile *model.CompanyProfile) error {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, profile)
	}
	return nil
}

type accountingRepoStub struct {
	entries chan *model.AccountingEntry
}

func newAccountingRepoStub() *accountingRepoStub {
	return &accountingRepoStub{entries: make(chan *model.AccountingEntry, 8)}
}

func (s *accountingRepoStub) Create(ctx context.Context, entry *model.AccountingEntry) error {
	s.entries <- entry
	return nil
}

// txManagerStub executes the function inline with the original context.
type txManagerStub struct{}

func (txManagerStub) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type siiClientStub struct {
	submitFn func(ctx context.Context, req sii.SubmitRequest) (sii.SubmitResult, error)
	checkFn  func(ctx context.Context, trackID string) (sii.StatusResult, error)

	mu          sync.Mutex
	submitCalls []sii.SubmitRequest
	checkCalls  []string
}

func (s *siiClientStub) Submit(ctx context.Context, req sii.SubmitRequest) (sii.SubmitResult, error) {
	s.mu.Lock()
	s.submitCalls = append(s.submitCalls, req)
	s.mu.Unlock()
	if s.submitFn != nil {
		return s.submitFn(ctx, req)
	}
	return sii.SubmitResult{
		Status:      sii.StatusAcceptedSimulation,
		Message:     "DTE Aceptado en Simulación",
		TrackID:     "TRACK_TEST_1",
		RespondedAt: time.Now(),
	}, nil
}

func (s *siiClientStub) CheckStatus(ctx context.Context, trackID string) (sii.StatusResult, error) {
	s.mu.Lock()
	s.checkCalls = append(s.checkCalls, trackID)
	s.mu.Unlock()
	if s.checkFn != nil {
		return s.checkFn(ctx, trackID)
	}
	return sii.StatusResult{Status: sii.StatusAccepted, Message: "DTE Aceptado por SII", CheckedAt: time.Now()}, nil
}

type broadcasterStub struct {
	mu     sync.Mutex
	events []string
}

func (b *broadcasterStub) BroadcastEvent(event string, payload interface{}) {
	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()
}

func (b *broadcasterStub) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}
