// Package sii models the interaction with the Chilean tax authority (SII).
// The Client interface is the replacement seam: the simulated implementation
// below sleeps briefly and fabricates verdicts, while a production client
// would perform signed network calls with the exact same contract.
package sii

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Authority verdict constants
const (
	StatusAccepted   = "ACEPTADO"
	StatusRejected   = "RECHAZADO"
	StatusPending    = "PENDIENTE"
	StatusInProgress = "EN_PROCESO"

	// Simulation-specific submit verdicts kept from the original integration
	StatusAcceptedSimulation = "ACEPTADO_SIMULACION"
	StatusAcceptedResend     = "ACEPTADO_REENVIO"
)

var statusMessages = map[string]string{
	StatusAccepted:   "DTE Aceptado por SII",
	StatusRejected:   "DTE Rechazado - Error en datos",
	StatusPending:    "DTE en cola de procesamiento",
	StatusInProgress: "DTE siendo procesado por SII",
}

// SubmitRequest carries a rendered document to the authority.
type SubmitRequest struct {
	InvoiceID    int64
	DocumentType int
	Folio        int64
	XML          string
	IssuerRUT    string
	ReceiverRUT  string
	Amount       decimal.Decimal
	Resend       bool
}

// SubmitResult is the authority's verdict on a submission.
type SubmitResult struct {
	Status      string
	Message     string
	TrackID     string
	RespondedAt time.Time
}

// StatusResult is the authority's answer to a later status check.
type StatusResult struct {
	Status    string
	Message   string
	CheckedAt time.Time
}

// Client is the authority boundary. Implementations must honour the context
// deadline on every call.
type Client interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)
	CheckStatus(ctx context.Context, trackID string) (StatusResult, error)
}

// SimulatedClient fakes the SII: submissions are always accepted after a short
// processing delay and status checks return a pseudo-random verdict. The
// random source is seeded so tests can pin the sequence.
type SimulatedClient struct {
	latency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedClient builds a simulator with the given processing latency and
// random seed for status-check verdicts.
func NewSimulatedClient(latency time.Duration, seed int64) *SimulatedClient {
	return &SimulatedClient{
		latency: latency,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Submit simulates sending a document. The verdict is always accepted; resends
// get their own verdict and track prefix, matching the original integration.
func (c *SimulatedClient) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if err := c.sleep(ctx, c.latency); err != nil {
		return SubmitResult{}, err
	}

	now := time.Now()
	if req.Resend {
		return SubmitResult{
			Status:      StatusAcceptedResend,
			Message:     "DTE reenviado y aceptado (simulación)",
			TrackID:     fmt.Sprintf("REENVIO_%d_%d", now.UnixMilli(), req.Folio),
			RespondedAt: now,
		}, nil
	}

	return SubmitResult{
		Status:      StatusAcceptedSimulation,
		Message:     "DTE Aceptado en Simulación",
		TrackID:     fmt.Sprintf("TRACK_%d_%d", now.UnixMilli(), req.Folio),
		RespondedAt: now,
	}, nil
}

// CheckStatus simulates a status query, returning one of the four authority
// verdicts chosen from the seeded random source.
func (c *SimulatedClient) CheckStatus(ctx context.Context, trackID string) (StatusResult, error) {
	if err := c.sleep(ctx, c.latency/2); err != nil {
		return StatusResult{}, err
	}

	statuses := []string{StatusAccepted, StatusRejected, StatusPending, StatusInProgress}

	c.mu.Lock()
	status := statuses[c.rng.Intn(len(statuses))]
	c.mu.Unlock()

	return StatusResult{
		Status:    status,
		Message:   statusMessages[status],
		CheckedAt: time.Now(),
	}, nil
}

// sleep waits for d or until the context is done, whichever comes first.
func (c *SimulatedClient) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
