// Package domain contains core concepts of the trading system.
// This file defines participant identities and the channel a trade is bound to.
// No runtime, network, or UI logic should be added here.
package domain

// ActorID identifies a trainer taking part in a trade.
type ActorID string

// ChannelID identifies the conversation a trade was opened in.
// Offer mutations are only accepted from that channel.
type ChannelID string
