package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"trade-lab/contract"
	"trade-lab/domain"
	"trade-lab/domain/event"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	MsgInvitationExpired = "The request to trade has timed out."
	MsgTradeCancelled    = "The trade has been canceled."
	MsgTradeComplete     = "Trade complete!"
)

var _ contract.EventSink = (*DisplaySink)(nil)

// DisplaySink turns domain events into what actors see.
type DisplaySink struct {
	display contract.Display
	log     *slog.Logger
}

func NewDisplaySink(display contract.Display, log *slog.Logger) *DisplaySink {
	return &DisplaySink{display: display, log: log}
}

func (d *DisplaySink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.InvitationSent:
		d.display.Notify(evt.To, fmt.Sprintf("%s wants to trade with you in #%s.", evt.From, evt.Channel))
		d.display.Notify(evt.From, fmt.Sprintf("Trade request sent to %s.", evt.To))
	case event.InvitationExpired:
		d.notifyAll(evt.Recipients(), MsgInvitationExpired)
	case event.InvitationDeclined:
		d.display.Notify(evt.From, fmt.Sprintf("%s declined your request to trade.", evt.To))
	case event.SessionOpened:
		d.display.Render(evt.View)
		d.notifyAll(evt.Recipients(), fmt.Sprintf("Trade between %s and %s started.",
			evt.View.Sides[0].Actor, evt.View.Sides[1].Actor))
	case event.OfferUpdated:
		d.display.Render(evt.View)
	case event.ConfirmationToggled:
		d.display.Render(evt.View)
	case event.SessionCancelled:
		d.display.Render(closedView(evt.SessionID, evt.Participants))
		d.notifyAll(evt.Recipients(), MsgTradeCancelled)
	case event.SessionAbandoned:
		d.display.Render(closedView(evt.SessionID, evt.Participants))
		d.notifyAll(evt.Recipients(), fmt.Sprintf("%s %s is no longer available.", MsgTradeCancelled, evt.Missing))
	case event.AssetEvolved:
		d.display.Notify(evt.Owner, fmt.Sprintf("What? Your %s is evolving! Congratulations! Your %s evolved into %s!",
			evt.FromSpecies, evt.FromSpecies, evt.ToSpecies))
	case event.SettlementCompleted:
		d.display.Render(closedView(evt.Receipt.SessionID, evt.Receipt.Participants))
		d.notifyAll(evt.Recipients(), SettlementSummary(evt.Receipt))
	default:
		d.log.Debug(fmt.Sprintf("Not implemented event : %v", evt.Type()))
	}
	return nil
}

func (d *DisplaySink) notifyAll(actors []domain.ActorID, message string) {
	for _, actor := range actors {
		d.display.Notify(actor, message)
	}
}

// SettlementSummary names every item that could not be exchanged.
func SettlementSummary(r domain.SettlementReceipt) string {
	if r.Complete() {
		return MsgTradeComplete
	}
	skipped := lo.Map(r.Skipped, func(s domain.SkippedItem, _ int) string {
		switch s.Kind {
		case domain.OfferKindCurrency:
			return fmt.Sprintf("%d coins from %s (%s)", s.Amount, s.Actor, s.Reason)
		default:
			return fmt.Sprintf("creature #%d from %s (%s)", s.Position, s.Actor, s.Reason)
		}
	})
	return fmt.Sprintf("%s %d item(s) could not be exchanged: %s.",
		MsgTradeComplete, len(skipped), strings.Join(skipped, "; "))
}

func closedView(id uuid.UUID, participants [2]domain.ActorID) domain.SessionView {
	return domain.SessionView{
		SessionID: id,
		Status:    domain.SessionClosed,
		Sides: [2]domain.SideView{
			{Actor: participants[0]},
			{Actor: participants[1]},
		},
	}
}
