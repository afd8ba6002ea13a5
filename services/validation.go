package services

import (
	"fmt"

	"trade-lab/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type InviteRequest struct {
	From    string `json:"from" validate:"required,max=64"`
	To      string `json:"to" validate:"required,max=64,nefield=From"`
	Channel string `json:"channel" validate:"required,max=64"`
}

// AnswerRequest accepts or declines the invitation sent by Inviter.
type AnswerRequest struct {
	Actor   string `json:"actor" validate:"required,max=64"`
	Inviter string `json:"inviter" validate:"required,max=64"`
}

type CurrencyRequest struct {
	Channel string `json:"channel" validate:"required,max=64"`
	Amount  int64  `json:"amount" validate:"required,gt=0"`
}

// AssetsRequest names creatures by id or by their 1-based position in the
// actor's collection.
type AssetsRequest struct {
	Channel   string   `json:"channel" validate:"required,max=64"`
	AssetIDs  []string `json:"asset_ids" validate:"required_without=Positions,max=30,dive,uuid"`
	Positions []int    `json:"positions" validate:"required_without=AssetIDs,max=30,dive,min=1"`
}

func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}
