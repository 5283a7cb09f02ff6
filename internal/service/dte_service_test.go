package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"erp-backend/internal/dte"
	"erp-backend/internal/model"
	"erp-backend/internal/sii"
	"erp-backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIssuerDefaults = model.CompanyProfile{
	CompanyRUT:   "76162804-6",
	CompanyName:  "Empresa Demo Ltda",
	BusinessLine: "Servicios Tecnológicos",
	ActivityCode: "620200",
	Address:      "Av. Las Condes 123",
	Commune:      "Las Condes",
	City:         "Santiago",
}

type dteServiceFixture struct {
	invoices    *invoiceRepoStub
	folios      *folioRepoStub
	submissions *submissionRepoStub
	profiles    *profileRepoStub
	accounting  *accountingRepoStub
	client      *siiClientStub
	broadcaster *broadcasterStub
	service     DTEService
}

func newDTEServiceFixture() *dteServiceFixture {
	f := &dteServiceFixture{
		invoices:    &invoiceRepoStub{},
		folios:      &folioRepoStub{},
		submissions: &submissionRepoStub{},
		profiles:    &profileRepoStub{},
		accounting:  newAccountingRepoStub(),
		client:      &siiClientStub{},
		broadcaster: &broadcasterStub{},
	}
	f.service = NewDTEService(
		f.invoices, f.folios, f.submissions, f.profiles, f.accounting,
		txManagerStub{}, f.client, dte.NewRenderer(testIssuerDefaults),
		2*time.Second, f.broadcaster,
	)
	return f
}

func pendingInvoice(id int64) *model.Invoice {
	return &model.Invoice{
		ID:           id,
		IssueDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Counterparty: "Proveedor Uno S.A.",
		TotalAmount:  decimal.NewFromInt(119000),
		Currency:     "CLP",
		Status:       model.InvoiceStatusPending,
		Items: []model.InvoiceItem{
			{
				Description: "Servicio de mantención",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(119000),
				Total:       decimal.NewFromInt(119000),
			},
		},
	}
}

func TestGenerateDTERejectsInvalidInvoiceID(t *testing.T) {
	f := newDTEServiceFixture()

	for _, id := range []string{"abc", "-1", "0", ""} {
		_, err := f.service.GenerateDTE(context.Background(), id, 33)
		require.Error(t, err, "id %q", id)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		assert.Contains(t, err.Error(), "invalid invoice id")
	}
}

func TestGenerateDTERejectsUnknownDocumentType(t *testing.T) {
	f := newDTEServiceFixture()

	_, err := f.service.GenerateDTE(context.Background(), "1", 99)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "33, 39, 52, 56, 61")
}

func TestGenerateDTEInvoiceNotFound(t *testing.T) {
	f := newDTEServiceFixture()

	_, err := f.service.GenerateDTE(context.Background(), "42", 33)
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestGenerateDTERejectsIncompleteInvoices(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(inv *model.Invoice)
		message string
	}{
		{
			name:    "missing counterparty",
			mutate:  func(inv *model.Invoice) { inv.Counterparty = "" },
			message: "counterparty",
		},
		{
			name:    "whitespace-only counterparty",
			mutate:  func(inv *model.Invoice) { inv.Counterparty = "   " },
			message: "counterparty",
		},
		{
			name:    "zero total",
			mutate:  func(inv *model.Invoice) { inv.TotalAmount = decimal.Zero },
			message: "invalid amount: total must be greater than 0",
		},
		{
			name:    "negative total",
			mutate:  func(inv *model.Invoice) { inv.TotalAmount = decimal.NewFromInt(-100) },
			message: "invalid amount: total must be greater than 0",
		},
		{
			name:    "no items",
			mutate:  func(inv *model.Invoice) { inv.Items = nil },
			message: "invoice has no items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDTEServiceFixture()
			inv := pendingInvoice(1)
			tt.mutate(inv)
			f.invoices.findWithItemsFn = func(ctx context.Context, id int64) (*model.Invoice, error) {
				return inv, nil
			}

			_, err := f.service.GenerateDTE(context.Background(), "1", 33)
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Contains(t, err.Error(), tt.message)
			assert.Empty(t, f.client.submitCalls, "authority must not be called")
		})
	}
}

func TestGenerateDTEConflictsOnExistingDocument(t *testing.T) {
	f := newDTEServiceFixture()
	inv := pendingInvoice(1)
	folio := int64(77)
	inv.DTEFolio = &folio
	inv.Status = model.InvoiceStatusSubmitted
	f.invoices.findWithItemsFn = func(ctx context.Context, id int64) (*model.Invoice, error) {
		return inv, nil
	}

	_, err := f.service.GenerateDTE(context.Background(), "1", 33)
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "folio 77")
}

func TestGenerateDTEHappyPath(t *testing.T) {
	f := newDTEServiceFixture()
	f.invoices.findWithItemsFn = func(ctx context.Context, id int64) (*model.Invoice, error) {
		return pendingInvoice(id), nil
	}
	f.folios.nextFolioFn = func(ctx context.Context, docType int) (int64, error) {
		assert.Equal(t, 33, docType)
		return 101, nil
	}

	result, err := f.service.GenerateDTE(context.Background(), "1", 33)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.InvoiceID)
	assert.Equal(t, 33, result.DocumentType)
	assert.Equal(t, "Factura Electrónica", result.TypeName)
	assert.Equal(t, int64(101), result.Folio)
	assert.Equal(t, sii.StatusAcceptedSimulation, result.SIIStatus)
	assert.True(t, result.XMLAvailable)

	require.Len(t, f.invoices.updateDTECalls, 1)
	call := f.invoices.updateDTECalls[0]
	assert.Equal(t, model.InvoiceStatusSubmitted, call.Status)
	assert.Equal(t, int64(101), call.Folio)
	assert.Contains(t, call.XML, "<Folio>101</Folio>")

	require.Len(t, f.submissions.created, 1)
	sub := f.submissions.created[0]
	assert.Equal(t, 1, sub.Attempts)
	assert.Equal(t, sii.StatusAcceptedSimulation, sub.SIIStatus)
	assert.NotEmpty(t, sub.RequestXML)

	assert.Equal(t, []string{"dte_generado"}, f.broadcaster.Events())

	select {
	case entry := <-f.accounting.entries:
		assert.Equal(t, model.EntryTypeDTEGenerated, entry.EntryType)
		assert.Equal(t, int64(1), entry.InvoiceID)
	case <-time.After(2 * time.Second):
		t.Fatal("accounting entry was never written")
	}
}

func TestGenerateDTEFolioFallbackOnSequenceFailure(t *testing.T) {
	f := newDTEServiceFixture()
	f.invoices.findWithItemsFn = func(ctx context.Context, id int64) (*model.Invoice, error) {
		return pendingInvoice(id), nil
	}
	f.folios.nextFolioFn = func(ctx context.Context, docType int) (int64, error) {
		return 0, errors.New("sequence unavailable")
	}

	result, err := f.service.GenerateDTE(context.Background(), "1", 39)
	require.NoError(t, err)

	// Timestamp-derived fallback: the last eight digits of the wall clock.
	assert.Greater(t, result.Folio, int64(0))
	assert.Less(t, result.Folio, int64(100000000))
}

func TestGenerateDTESubmissionTimeoutLandsAsPending(t *testing.T) {
	f := newDTEServiceFixture()
	f.invoices.findWithItemsFn = func(ctx context.Context, id int64) (*model.Invoice, error) {
		return pendingInvoice(id), nil
	}
	f.client.submitFn = func(ctx context.Context, req sii.SubmitRequest) (sii.SubmitResult, error) {
		return sii.SubmitResult{}, context.DeadlineExceeded
	}

	result, err := f.service.GenerateDTE(context.Background(), "1", 33)
	require.NoError(t, err)

	assert.Equal(t, sii.StatusPending, result.SIIStatus)
	assert.True(t, strings.HasPrefix(result.TrackID, "PENDIENTE_"))

	// The invoice keeps its pre-submission processing status until acceptance.
	require.Len(t, f.invoices.updateDTECalls, 1)
	assert.Equal(t, model.InvoiceStatusPending, f.invoices.updateDTECalls[0].Status)
}

func TestGenerateDTERollsBackOnSubmissionInsertFailure(t *testing.T) {
	f := newDTEServiceFixture()
	f.invoices.findWithItemsFn = func(ctx context.Context, id int64) (*model.Invoice, error) {
		return pendingInvoice(id), nil
	}
	f.submissions.createFn = func(ctx context.Context, sub *model.DTESubmission) error {
		return errors.New("insert failed")
	}

	_, err := f.service.GenerateDTE(context.Background(), "1", 33)
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.Empty(t, f.broadcaster.Events())
}

func TestResendDTERequiresGeneratedDocument(t *testing.T) {
	f := newDTEServiceFixture()
	f.invoices.findByIDFn = func(ctx context.Context, id int64) (*model.Invoice, error) {
		return pendingInvoice(id), nil // no folio yet
	}

	_, err := f.service.ResendDTE(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestResendDTEStopsAtMaxAttempts(t *testing.T) {
	f := newDTEServiceFixture()
	inv := pendingInvoice(1)
	folio := int64(55)
	inv.DTEFolio = &folio
	f.invoices.findByIDFn = func(ctx context.Context, id int64) (*model.Invoice, error) {
		return inv, nil
	}
	f.submissions.findLatestFn = func(ctx context.Context, invoiceID int64) (*model.DTESubmission, error) {
		return &model.DTESubmission{InvoiceID: 1, Folio: 55, Attempts: 3}, nil
	}

	_, err := f.service.ResendDTE(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "max attempts reached (3)")
	assert.Empty(t, f.client.submitCalls)
}

func TestResendDTEHappyPath(t *testing.T) {
	f := newDTEServiceFixture()
	inv := pendingInvoice(1)
	folio := int64(55)
	inv.DTEFolio = &folio
	f.invoices.findByIDFn = func(ctx context.Context, id int64) (*model.Invoice, error) {
		return inv, nil
	}
	f.submissions.findLatestFn = func(ctx context.Context, invoiceID int64) (*model.DTESubmission, error) {
		return &model.DTESubmission{
			InvoiceID:    1,
			DocumentType: 33,
			Folio:        55,
			Attempts:     1,
			RequestXML:   "<DTE/>",
		}, nil
	}
	f.client.submitFn = func(ctx context.Context, req sii.SubmitRequest) (sii.SubmitResult, error) {
		assert.True(t, req.Resend)
		return sii.SubmitResult{
			Status:      sii.StatusAcceptedResend,
			Message:     "DTE reenviado y aceptado (simulación)",
			TrackID:     "REENVIO_1_55",
			RespondedAt: time.Now(),
		}, nil
	}

	result, err := f.service.ResendDTE(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, int64(55), result.Folio)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, sii.StatusAcceptedResend, result.SIIStatus)

	require.Len(t, f.submissions.updated, 1)
	assert.Equal(t, 2, f.submissions.updated[0].Attempts)

	require.Len(t, f.invoices.statusCalls, 1)
	assert.Equal(t, model.InvoiceStatusSubmitted, f.invoices.statusCalls[0].Status)

	assert.Equal(t, []string{"dte_reenviado"}, f.broadcaster.Events())
}
