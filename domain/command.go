package domain

import (
	"github.com/google/uuid"
)

// Command is a request from one actor against the trade they are in.
type Command interface {
	Actor() ActorID
}

type AddCurrencyCommand struct {
	Sender  ActorID
	Channel ChannelID
	Amount  int64
}

func (c AddCurrencyCommand) Actor() ActorID { return c.Sender }

type RemoveCurrencyCommand struct {
	Sender  ActorID
	Channel ChannelID
	Amount  int64
}

func (c RemoveCurrencyCommand) Actor() ActorID { return c.Sender }

type AddAssetCommand struct {
	Sender  ActorID
	Channel ChannelID
	AssetID uuid.UUID
}

func (c AddAssetCommand) Actor() ActorID { return c.Sender }

type RemoveAssetCommand struct {
	Sender  ActorID
	Channel ChannelID
	AssetID uuid.UUID
}

func (c RemoveAssetCommand) Actor() ActorID { return c.Sender }

type ToggleConfirmCommand struct {
	Sender ActorID
}

func (c ToggleConfirmCommand) Actor() ActorID { return c.Sender }

type CancelCommand struct {
	Sender ActorID
}

func (c CancelCommand) Actor() ActorID { return c.Sender }

// Outcome is what a command leaves behind. Receipt is set only by the
// confirmation that settled the trade.
type Outcome struct {
	View    SessionView
	Receipt *SettlementReceipt
}
