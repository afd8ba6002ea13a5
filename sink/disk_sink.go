package sink

import (
	"context"
	"fmt"
	"log/slog"

	"trade-lab/contract"
	"trade-lab/domain/event"
	"trade-lab/repositories"
)

var _ contract.EventSink = DiskSink{}

// DiskSink keeps the settlement history.
type DiskSink struct {
	repository repositories.ISettlementRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.ISettlementRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.SettlementCompleted:
		return d.repository.StoreReceipt(evt.Receipt)
	default:
		d.log.Debug(fmt.Sprintf("Not implemented event : %v", evt.Type()))
		return nil
	}
}
