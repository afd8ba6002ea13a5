package domain

import (
	"github.com/google/uuid"
)

// SideView is one actor's half of a SessionView.
type SideView struct {
	Actor     ActorID     `json:"actor"`
	Confirmed bool        `json:"confirmed"`
	Lines     []OfferLine `json:"lines"`
}

// SessionView is an immutable snapshot of a session, safe to hand to other goroutines.
type SessionView struct {
	SessionID uuid.UUID     `json:"session_id"`
	Channel   ChannelID     `json:"channel"`
	Status    SessionStatus `json:"status"`
	Sides     [2]SideView   `json:"sides"`
}

// Side returns the half belonging to actor.
func (v SessionView) Side(actor ActorID) (SideView, bool) {
	for _, s := range v.Sides {
		if s.Actor == actor {
			return s, true
		}
	}
	return SideView{}, false
}

func (v SessionView) Participants() []ActorID {
	return []ActorID{v.Sides[0].Actor, v.Sides[1].Actor}
}
