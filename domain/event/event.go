package event

import (
	"time"

	"trade-lab/domain"

	"github.com/google/uuid"
)

type Type string

const (
	InvitationSentType      Type = "INVITATION_SENT"
	InvitationExpiredType   Type = "INVITATION_EXPIRED"
	InvitationDeclinedType  Type = "INVITATION_DECLINED"
	SessionOpenedType       Type = "SESSION_OPENED"
	OfferUpdatedType        Type = "OFFER_UPDATED"
	ConfirmationToggledType Type = "CONFIRMATION_TOGGLED"
	SessionCancelledType    Type = "SESSION_CANCELLED"
	SessionAbandonedType    Type = "SESSION_ABANDONED"
	AssetEvolvedType        Type = "ASSET_EVOLVED"
	SettlementCompletedType Type = "SETTLEMENT_COMPLETED"
)

// DomainEvent is published by the trading core once a command went through.
// Recipients are the actors that should be told about it.
type DomainEvent interface {
	Type() Type
	Recipients() []domain.ActorID
}

type InvitationSent struct {
	ID        uuid.UUID
	From      domain.ActorID
	To        domain.ActorID
	Channel   domain.ChannelID
	ExpiresAt time.Time
}

func (e InvitationSent) Type() Type { return InvitationSentType }

func (e InvitationSent) Recipients() []domain.ActorID { return []domain.ActorID{e.From, e.To} }

type InvitationExpired struct {
	ID   uuid.UUID
	From domain.ActorID
	To   domain.ActorID
}

func (e InvitationExpired) Type() Type { return InvitationExpiredType }

func (e InvitationExpired) Recipients() []domain.ActorID { return []domain.ActorID{e.From, e.To} }

type InvitationDeclined struct {
	ID   uuid.UUID
	From domain.ActorID
	To   domain.ActorID
}

func (e InvitationDeclined) Type() Type { return InvitationDeclinedType }

func (e InvitationDeclined) Recipients() []domain.ActorID { return []domain.ActorID{e.From} }

type SessionOpened struct {
	View domain.SessionView
	At   time.Time
}

func (e SessionOpened) Type() Type { return SessionOpenedType }

func (e SessionOpened) Recipients() []domain.ActorID { return e.View.Participants() }

// OfferUpdated carries the session as it looks after an add or a remove.
type OfferUpdated struct {
	View  domain.SessionView
	Actor domain.ActorID
}

func (e OfferUpdated) Type() Type { return OfferUpdatedType }

func (e OfferUpdated) Recipients() []domain.ActorID { return e.View.Participants() }

type ConfirmationToggled struct {
	View      domain.SessionView
	Actor     domain.ActorID
	Confirmed bool
}

func (e ConfirmationToggled) Type() Type { return ConfirmationToggledType }

func (e ConfirmationToggled) Recipients() []domain.ActorID { return e.View.Participants() }

type SessionCancelled struct {
	SessionID    uuid.UUID
	By           domain.ActorID
	Participants [2]domain.ActorID
}

func (e SessionCancelled) Type() Type { return SessionCancelledType }

func (e SessionCancelled) Recipients() []domain.ActorID { return e.Participants[:] }

type SessionAbandoned struct {
	SessionID    uuid.UUID
	Missing      domain.ActorID
	Participants [2]domain.ActorID
}

func (e SessionAbandoned) Type() Type { return SessionAbandonedType }

func (e SessionAbandoned) Recipients() []domain.ActorID { return e.Participants[:] }

// AssetEvolved is addressed to the new owner only.
type AssetEvolved struct {
	SessionID   uuid.UUID
	Owner       domain.ActorID
	Asset       domain.Asset
	FromSpecies string
	ToSpecies   string
}

func (e AssetEvolved) Type() Type { return AssetEvolvedType }

func (e AssetEvolved) Recipients() []domain.ActorID { return []domain.ActorID{e.Owner} }

type SettlementCompleted struct {
	Receipt domain.SettlementReceipt
}

func (e SettlementCompleted) Type() Type { return SettlementCompletedType }

func (e SettlementCompleted) Recipients() []domain.ActorID { return e.Receipt.Participants[:] }
