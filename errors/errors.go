package errors

import "fmt"

// Validation errors, surfaced synchronously to the actor that sent the command.
// None of them mutate session state.
var (
	ErrAlreadyInSession    = fmt.Errorf("actor is already in a trade")
	ErrWrongContext        = fmt.Errorf("command must be sent from the trade channel")
	ErrNotFound            = fmt.Errorf("item not found")
	ErrDuplicateOffer      = fmt.Errorf("item is already in the trade")
	ErrAlreadySelected     = fmt.Errorf("selected asset cannot be traded")
	ErrProtected           = fmt.Errorf("favorited asset cannot be traded")
	ErrInsufficientBalance = fmt.Errorf("insufficient balance")
	ErrInvalidAmount       = fmt.Errorf("amount must be positive")
	ErrSelfTrade           = fmt.Errorf("actor cannot trade with itself")
	ErrNotInSession        = fmt.Errorf("actor is not in a trade")
	ErrSessionClosed       = fmt.Errorf("trade is no longer negotiating")
	ErrSessionAbandoned    = fmt.Errorf("trade has been abandoned")
	ErrUnknownCommand      = fmt.Errorf("unknown command")
	ErrInvalidRequest      = fmt.Errorf("invalid request")
)

// Settlement errors, recovered per item.
var (
	ErrStaleReference = fmt.Errorf("offered item no longer matches live state")
	ErrLedgerFailure  = fmt.Errorf("ledger failure")
)

// Invitations.
var (
	ErrInvitationPending  = fmt.Errorf("a trade request is already pending")
	ErrInvitationNotFound = fmt.Errorf("no pending trade request")
)

// Ledger administration.
var (
	ErrMemberExists = fmt.Errorf("member already exists")
	ErrInvalidIndex = fmt.Errorf("index out of range")
)

// Runtime.
var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrOrchestratorStopped = fmt.Errorf("orchestrator stopped")
)
