package sink

import (
	"context"

	"trade-lab/contract"
	"trade-lab/domain/event"
	"trade-lab/observability"
)

var _ contract.EventSink = (*TelemetrySink)(nil)

// TelemetrySink counts trade activity for the healthcheck.
type TelemetrySink struct {
	monitoring *observability.MonitoringManager
}

func NewTelemetrySink(monitoring *observability.MonitoringManager) *TelemetrySink {
	return &TelemetrySink{monitoring: monitoring}
}

func (t *TelemetrySink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.InvitationSent:
		t.monitoring.IncrInvitationsSent()
	case event.InvitationExpired:
		t.monitoring.IncrInvitationsExpired()
	case event.SessionOpened:
		t.monitoring.IncrSessionsOpened()
	case event.OfferUpdated:
		t.monitoring.IncrOfferUpdates()
	case event.SessionCancelled:
		t.monitoring.IncrSessionsCancelled()
	case event.SessionAbandoned:
		t.monitoring.IncrSessionsAbandoned()
	case event.AssetEvolved:
		t.monitoring.IncrEvolutions()
	case event.SettlementCompleted:
		t.monitoring.RecordSettlement(len(evt.Receipt.Transfers), len(evt.Receipt.Skipped))
	}
	return nil
}
