package command_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

type fakeBroker struct {
	mu        sync.Mutex
	published []string
	failOn    string
}

func (b *fakeBroker) Publish(_ context.Context, routingKey string, _ []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if routingKey == b.failOn {
		return errors.New("broker unavailable")
	}

	b.published = append(b.published, routingKey)

	return nil
}

func TestPublisherServicePublishDrainsAndMarksPublished(t *testing.T) {
	t.Parallel()

	outbox := &fakeOutboxRepo{events: []mmodel.Event{
		{ID: "evt-1", Name: "P2P_POSTED", EntityType: "LedgerJournal", EntityID: "j1"},
		{ID: "evt-2", Name: "B2B_POSTED", EntityType: "LedgerJournal", EntityID: "j2"},
	}}
	broker := &fakeBroker{}

	svc := &command.PublisherService{UC: &command.UseCase{OutboxRepo: outbox, Broker: broker}}

	result, err := svc.Publish(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 2, result.Drained)
	require.Equal(t, 2, result.Published)

	remaining, err := outbox.Unpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestPublisherServicePublishStopsAtFirstFailureAndKeepsPriorMarks(t *testing.T) {
	t.Parallel()

	outbox := &fakeOutboxRepo{events: []mmodel.Event{
		{ID: "evt-1", Name: "P2P_POSTED"},
		{ID: "evt-2", Name: "B2B_POSTED"},
		{ID: "evt-3", Name: "MERCHANT_PAYMENT_POSTED"},
	}}
	broker := &fakeBroker{failOn: "B2B_POSTED"}

	svc := &command.PublisherService{UC: &command.UseCase{OutboxRepo: outbox, Broker: broker}}

	result, err := svc.Publish(context.Background(), 10)
	require.Error(t, err)
	require.Equal(t, 3, result.Drained)
	require.Equal(t, 1, result.Published)

	remaining, err := outbox.Unpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
}
