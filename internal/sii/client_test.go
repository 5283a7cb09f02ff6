package sii

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAcceptsFirstSend(t *testing.T) {
	client := NewSimulatedClient(0, 1)

	result, err := client.Submit(context.Background(), SubmitRequest{
		InvoiceID:    1,
		DocumentType: 33,
		Folio:        42,
		Amount:       decimal.NewFromInt(119000),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusAcceptedSimulation, result.Status)
	assert.True(t, strings.HasPrefix(result.TrackID, "TRACK_"))
	assert.True(t, strings.HasSuffix(result.TrackID, "_42"))
	assert.False(t, result.RespondedAt.IsZero())
}

func TestSubmitMarksResends(t *testing.T) {
	client := NewSimulatedClient(0, 1)

	result, err := client.Submit(context.Background(), SubmitRequest{Folio: 42, Resend: true})
	require.NoError(t, err)

	assert.Equal(t, StatusAcceptedResend, result.Status)
	assert.True(t, strings.HasPrefix(result.TrackID, "REENVIO_"))
}

func TestCheckStatusIsSeedDeterministic(t *testing.T) {
	a := NewSimulatedClient(0, 7)
	b := NewSimulatedClient(0, 7)

	for i := 0; i < 20; i++ {
		ra, err := a.CheckStatus(context.Background(), "TRACK_1")
		require.NoError(t, err)
		rb, err := b.CheckStatus(context.Background(), "TRACK_1")
		require.NoError(t, err)
		assert.Equal(t, ra.Status, rb.Status, "iteration %d", i)
	}
}

func TestCheckStatusReturnsKnownVerdicts(t *testing.T) {
	client := NewSimulatedClient(0, 3)
	known := map[string]bool{
		StatusAccepted:   true,
		StatusRejected:   true,
		StatusPending:    true,
		StatusInProgress: true,
	}

	for i := 0; i < 50; i++ {
		result, err := client.CheckStatus(context.Background(), "TRACK_1")
		require.NoError(t, err)
		assert.True(t, known[result.Status], "unexpected verdict %q", result.Status)
		assert.NotEmpty(t, result.Message)
	}
}

func TestSubmitHonoursContextDeadline(t *testing.T) {
	client := NewSimulatedClient(time.Second, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Submit(ctx, SubmitRequest{Folio: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCheckStatusHonoursCancelledContext(t *testing.T) {
	client := NewSimulatedClient(time.Second, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CheckStatus(ctx, "TRACK_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
