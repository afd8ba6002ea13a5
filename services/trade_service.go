package services

import (
	"context"
	"fmt"
	"strconv"

	"trade-lab/contract"
	"trade-lab/domain"
	"trade-lab/errors"
	"trade-lab/projection"
	"trade-lab/repositories"
	"trade-lab/runtime"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type ITradeService interface {
	Invite(ctx context.Context, req InviteRequest) (runtime.Invitation, error)
	Accept(ctx context.Context, req AnswerRequest) (domain.SessionView, error)
	Decline(ctx context.Context, req AnswerRequest) error
	AddCurrency(ctx context.Context, actor domain.ActorID, req CurrencyRequest) (domain.Outcome, error)
	RemoveCurrency(ctx context.Context, actor domain.ActorID, req CurrencyRequest) (domain.Outcome, error)
	AddAssets(ctx context.Context, actor domain.ActorID, req AssetsRequest) (BatchResult, error)
	RemoveAssets(ctx context.Context, actor domain.ActorID, req AssetsRequest) (BatchResult, error)
	Confirm(ctx context.Context, actor domain.ActorID) (domain.Outcome, error)
	Cancel(ctx context.Context, actor domain.ActorID) (domain.Outcome, error)
	View(actor domain.ActorID, page int) (projection.Page, error)
	Notifications(actor domain.ActorID) []projection.Notice
	Settlements(cursor *string) ([]domain.SettlementReceipt, *string, error)
}

// Submitter queues commands for the trading core.
type Submitter interface {
	Submit(ctx context.Context, cmd domain.Command) (domain.Outcome, error)
}

// Inviter holds trade requests until they are answered.
type Inviter interface {
	Invite(ctx context.Context, from, to domain.ActorID, channel domain.ChannelID) (runtime.Invitation, error)
	Accept(ctx context.Context, invitee, inviter domain.ActorID) (domain.SessionView, error)
	Decline(ctx context.Context, invitee, inviter domain.ActorID) error
}

// ItemResult is the outcome of one creature of a multi-item request.
type ItemResult struct {
	Ref   string `json:"ref"`
	Error string `json:"error,omitempty"`
}

type BatchResult struct {
	View  domain.SessionView `json:"view"`
	Items []ItemResult       `json:"items"`
}

// Failed counts the items that were refused.
func (b BatchResult) Failed() int {
	return lo.CountBy(b.Items, func(i ItemResult) bool { return i.Error != "" })
}

type TradeService struct {
	submitter   Submitter
	invitations Inviter
	ledger      contract.AssetLedger
	board       *projection.Board
	settlements repositories.ISettlementRepository
}

func NewTradeService(submitter Submitter, invitations Inviter, ledger contract.AssetLedger,
	board *projection.Board, settlements repositories.ISettlementRepository) *TradeService {
	return &TradeService{
		submitter:   submitter,
		invitations: invitations,
		ledger:      ledger,
		board:       board,
		settlements: settlements,
	}
}

func (s *TradeService) Invite(ctx context.Context, req InviteRequest) (runtime.Invitation, error) {
	if err := validateRequest(req); err != nil {
		return runtime.Invitation{}, err
	}
	return s.invitations.Invite(ctx, domain.ActorID(req.From), domain.ActorID(req.To), domain.ChannelID(req.Channel))
}

func (s *TradeService) Accept(ctx context.Context, req AnswerRequest) (domain.SessionView, error) {
	if err := validateRequest(req); err != nil {
		return domain.SessionView{}, err
	}
	return s.invitations.Accept(ctx, domain.ActorID(req.Actor), domain.ActorID(req.Inviter))
}

func (s *TradeService) Decline(ctx context.Context, req AnswerRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	return s.invitations.Decline(ctx, domain.ActorID(req.Actor), domain.ActorID(req.Inviter))
}

func (s *TradeService) AddCurrency(ctx context.Context, actor domain.ActorID, req CurrencyRequest) (domain.Outcome, error) {
	if err := validateRequest(req); err != nil {
		return domain.Outcome{}, err
	}
	return s.submitter.Submit(ctx, domain.AddCurrencyCommand{
		Sender: actor, Channel: domain.ChannelID(req.Channel), Amount: req.Amount,
	})
}

func (s *TradeService) RemoveCurrency(ctx context.Context, actor domain.ActorID, req CurrencyRequest) (domain.Outcome, error) {
	if err := validateRequest(req); err != nil {
		return domain.Outcome{}, err
	}
	return s.submitter.Submit(ctx, domain.RemoveCurrencyCommand{
		Sender: actor, Channel: domain.ChannelID(req.Channel), Amount: req.Amount,
	})
}

// AddAssets offers several creatures at once. Each item succeeds or fails on
// its own; an error is returned only when none went through.
func (s *TradeService) AddAssets(ctx context.Context, actor domain.ActorID, req AssetsRequest) (BatchResult, error) {
	return s.batch(ctx, actor, req, func(id uuid.UUID) domain.Command {
		return domain.AddAssetCommand{Sender: actor, Channel: domain.ChannelID(req.Channel), AssetID: id}
	})
}

func (s *TradeService) RemoveAssets(ctx context.Context, actor domain.ActorID, req AssetsRequest) (BatchResult, error) {
	return s.batch(ctx, actor, req, func(id uuid.UUID) domain.Command {
		return domain.RemoveAssetCommand{Sender: actor, Channel: domain.ChannelID(req.Channel), AssetID: id}
	})
}

func (s *TradeService) Confirm(ctx context.Context, actor domain.ActorID) (domain.Outcome, error) {
	return s.submitter.Submit(ctx, domain.ToggleConfirmCommand{Sender: actor})
}

func (s *TradeService) Cancel(ctx context.Context, actor domain.ActorID) (domain.Outcome, error) {
	return s.submitter.Submit(ctx, domain.CancelCommand{Sender: actor})
}

func (s *TradeService) View(actor domain.ActorID, page int) (projection.Page, error) {
	p, ok := s.board.Page(actor, page)
	if !ok {
		return projection.Page{}, errors.ErrNotInSession
	}
	return p, nil
}

func (s *TradeService) Notifications(actor domain.ActorID) []projection.Notice {
	return s.board.Notices(actor)
}

func (s *TradeService) Settlements(cursor *string) ([]domain.SettlementReceipt, *string, error) {
	return s.settlements.GetReceipts(cursor)
}

type ref struct {
	label string
	id    uuid.UUID
	err   error
}

func (s *TradeService) batch(ctx context.Context, actor domain.ActorID, req AssetsRequest,
	toCommand func(uuid.UUID) domain.Command) (BatchResult, error) {
	if err := validateRequest(req); err != nil {
		return BatchResult{}, err
	}

	var (
		result  BatchResult
		lastErr error
		applied bool
	)
	for _, r := range s.resolve(ctx, actor, req) {
		if r.err != nil {
			result.Items = append(result.Items, ItemResult{Ref: r.label, Error: r.err.Error()})
			lastErr = r.err
			continue
		}
		outcome, err := s.submitter.Submit(ctx, toCommand(r.id))
		if err != nil {
			result.Items = append(result.Items, ItemResult{Ref: r.label, Error: err.Error()})
			lastErr = err
			continue
		}
		applied = true
		result.View = outcome.View
		result.Items = append(result.Items, ItemResult{Ref: r.label})
	}
	if !applied {
		return result, lastErr
	}
	return result, nil
}

// resolve turns ids and positions into asset ids. Positions are read from the
// actor's collection as it is now.
func (s *TradeService) resolve(ctx context.Context, actor domain.ActorID, req AssetsRequest) []ref {
	refs := lo.Map(req.AssetIDs, func(raw string, _ int) ref {
		id, err := uuid.Parse(raw)
		if err != nil {
			return ref{label: raw, err: fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)}
		}
		return ref{label: raw, id: id}
	})
	for _, position := range req.Positions {
		label := strconv.Itoa(position)
		asset, err := s.ledger.GetAssetAt(ctx, actor, position-1)
		if err != nil {
			refs = append(refs, ref{label: label, err: err})
			continue
		}
		refs = append(refs, ref{label: label, id: asset.ID})
	}
	return refs
}
