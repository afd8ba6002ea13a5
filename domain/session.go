package domain

import (
	"math"
	"sync"

	"trade-lab/errors"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionNegotiating = SessionStatus("negotiating")
	SessionSettling    = SessionStatus("settling")
	SessionClosed      = SessionStatus("closed")
)

// Session is the shared negotiation state between exactly two actors.
// The registry indexes the same *Session under both participants.
//
// Every method except ID, Participants and Channel expects the caller to hold
// the session lock for the whole command.
type Session struct {
	mu sync.Mutex

	id           uuid.UUID
	participants [2]ActorID
	channel      ChannelID

	status    SessionStatus
	offers    map[ActorID][]OfferItem
	confirmed map[ActorID]bool
}

func NewSession(a, b ActorID, channel ChannelID) *Session {
	return &Session{
		id:           uuid.New(),
		participants: [2]ActorID{a, b},
		channel:      channel,
		status:       SessionNegotiating,
		offers:       map[ActorID][]OfferItem{a: nil, b: nil},
		confirmed:    map[ActorID]bool{a: false, b: false},
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) Participants() [2]ActorID { return s.participants }

func (s *Session) Channel() ChannelID { return s.channel }

func (s *Session) Status() SessionStatus { return s.status }

func (s *Session) Confirmed(a ActorID) bool { return s.confirmed[a] }

func (s *Session) HasParticipant(a ActorID) bool {
	return s.participants[0] == a || s.participants[1] == a
}

// Counterpart returns the other participant.
func (s *Session) Counterpart(a ActorID) (ActorID, bool) {
	switch a {
	case s.participants[0]:
		return s.participants[1], true
	case s.participants[1]:
		return s.participants[0], true
	}
	return "", false
}

// Offers returns a copy of the actor's side in insertion order.
func (s *Session) Offers(a ActorID) []OfferItem {
	out := make([]OfferItem, len(s.offers[a]))
	copy(out, s.offers[a])
	return out
}

// CurrencyOffered is the amount of coins currently on the actor's side.
func (s *Session) CurrencyOffered(a ActorID) int64 {
	for _, item := range s.offers[a] {
		if c, ok := item.(CurrencyOffer); ok {
			return c.Amount
		}
	}
	return 0
}

func (s *Session) HasAsset(a ActorID, assetID uuid.UUID) bool {
	for _, item := range s.offers[a] {
		if o, ok := item.(AssetOffer); ok && o.AssetID == assetID {
			return true
		}
	}
	return false
}

// AddCurrency merges amount into the actor's currency offer, creating it if needed.
func (s *Session) AddCurrency(a ActorID, amount int64) error {
	if err := s.checkMutable(a); err != nil {
		return err
	}
	if amount <= 0 {
		return errors.ErrInvalidAmount
	}
	side := s.offers[a]
	for i, item := range side {
		if c, ok := item.(CurrencyOffer); ok {
			if c.Amount > math.MaxInt64-amount {
				return errors.ErrInvalidAmount
			}
			side[i] = CurrencyOffer{Amount: c.Amount + amount}
			s.resetConfirmations()
			return nil
		}
	}
	s.offers[a] = append(side, CurrencyOffer{Amount: amount})
	s.resetConfirmations()
	return nil
}

// RemoveCurrency takes amount back from the actor's currency offer. The entry is
// dropped once it reaches zero.
func (s *Session) RemoveCurrency(a ActorID, amount int64) error {
	if err := s.checkMutable(a); err != nil {
		return err
	}
	if amount <= 0 {
		return errors.ErrInvalidAmount
	}
	side := s.offers[a]
	for i, item := range side {
		c, ok := item.(CurrencyOffer)
		if !ok {
			continue
		}
		switch {
		case amount > c.Amount:
			return errors.ErrNotFound
		case amount == c.Amount:
			s.offers[a] = append(side[:i:i], side[i+1:]...)
		default:
			side[i] = CurrencyOffer{Amount: c.Amount - amount}
		}
		s.resetConfirmations()
		return nil
	}
	return errors.ErrNotFound
}

func (s *Session) AddAsset(a ActorID, offer AssetOffer) error {
	if err := s.checkMutable(a); err != nil {
		return err
	}
	if s.HasAsset(a, offer.AssetID) {
		return errors.ErrDuplicateOffer
	}
	s.offers[a] = append(s.offers[a], offer)
	s.resetConfirmations()
	return nil
}

func (s *Session) RemoveAsset(a ActorID, assetID uuid.UUID) error {
	if err := s.checkMutable(a); err != nil {
		return err
	}
	side := s.offers[a]
	for i, item := range side {
		if o, ok := item.(AssetOffer); ok && o.AssetID == assetID {
			s.offers[a] = append(side[:i:i], side[i+1:]...)
			s.resetConfirmations()
			return nil
		}
	}
	return errors.ErrNotFound
}

// ToggleConfirm flips the actor's confirmation. When both sides end up confirmed
// the session moves to Settling and settle is true; from then on every mutation
// is rejected.
func (s *Session) ToggleConfirm(a ActorID) (settle bool, err error) {
	if err = s.checkMutable(a); err != nil {
		return false, err
	}
	s.confirmed[a] = !s.confirmed[a]
	if s.confirmed[s.participants[0]] && s.confirmed[s.participants[1]] {
		s.status = SessionSettling
		return true, nil
	}
	return false, nil
}

// Cancel closes a negotiating session without settling it.
func (s *Session) Cancel(a ActorID) error {
	if err := s.checkMutable(a); err != nil {
		return err
	}
	s.status = SessionClosed
	return nil
}

// Abandon force-closes a negotiating session, e.g. when a participant vanished.
func (s *Session) Abandon() {
	if s.status == SessionNegotiating {
		s.status = SessionClosed
	}
}

// MarkSettled ends the Settling phase.
func (s *Session) MarkSettled() {
	if s.status == SessionSettling {
		s.status = SessionClosed
	}
}

func (s *Session) View() SessionView {
	view := SessionView{
		SessionID: s.id,
		Channel:   s.channel,
		Status:    s.status,
	}
	for i, p := range s.participants {
		lines := make([]OfferLine, 0, len(s.offers[p]))
		for _, item := range s.offers[p] {
			lines = append(lines, ToLine(item))
		}
		view.Sides[i] = SideView{Actor: p, Confirmed: s.confirmed[p], Lines: lines}
	}
	return view
}

func (s *Session) checkMutable(a ActorID) error {
	if !s.HasParticipant(a) {
		return errors.ErrNotInSession
	}
	if s.status != SessionNegotiating {
		return errors.ErrSessionClosed
	}
	return nil
}

func (s *Session) resetConfirmations() {
	for _, p := range s.participants {
		s.confirmed[p] = false
	}
}
