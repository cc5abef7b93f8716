package booking

import "bluewave/internal/domain"

// effect is a financial side effect a transition fires inside the same
// transaction as the status write and the history append.
type effect int

const (
	effectRefundSpentCashback effect = iota
	effectCreditEarnedCashback
	effectDeductEarnedCashback
)

type transitionKey struct {
	from domain.BookingStatus
	to   domain.BookingStatus
}

type transitionRule struct {
	actors         []domain.ActorType
	reasonRequired bool
	effects        []effect
	events         []domain.EventType
}

func (r transitionRule) allows(a domain.ActorType) bool {
	for _, t := range r.actors {
		if t == a {
			return true
		}
	}
	return false
}

// transitionTable is the complete set of legal status changes. Any
// pair absent from this map is rejected; there is no default case.
// Aggregate user stats (completed count, lifetime spend) are derived
// by query on read, so transitions that only affect stats carry no
// effects here.
var transitionTable = map[transitionKey]transitionRule{
	{domain.BookingPending, domain.BookingConfirmed}: {
		actors: []domain.ActorType{domain.ActorAdmin, domain.ActorVendor, domain.ActorSystem},
		events: []domain.EventType{domain.EventBookingConfirmed},
	},
	{domain.BookingPending, domain.BookingPaid}: {
		actors: []domain.ActorType{domain.ActorSystem},
		events: []domain.EventType{domain.EventBookingPaid, domain.EventAdminAlert},
	},
	{domain.BookingPending, domain.BookingCancelled}: {
		actors:  []domain.ActorType{domain.ActorUser, domain.ActorAdmin, domain.ActorVendor},
		effects: []effect{effectRefundSpentCashback},
		events:  []domain.EventType{domain.EventBookingCancelled},
	},
	{domain.BookingConfirmed, domain.BookingPaid}: {
		actors:  []domain.ActorType{domain.ActorSystem, domain.ActorAdmin},
		effects: []effect{effectCreditEarnedCashback},
		events:  []domain.EventType{domain.EventBookingPaid},
	},
	{domain.BookingConfirmed, domain.BookingCancelled}: {
		actors:  []domain.ActorType{domain.ActorUser, domain.ActorAdmin, domain.ActorVendor},
		effects: []effect{effectRefundSpentCashback},
		events:  []domain.EventType{domain.EventBookingCancelled},
	},
	{domain.BookingPaid, domain.BookingCompleted}: {
		actors: []domain.ActorType{domain.ActorAdmin, domain.ActorVendor, domain.ActorSystem},
		events: []domain.EventType{domain.EventBookingCompleted},
	},
	{domain.BookingPaid, domain.BookingCancelled}: {
		actors:         []domain.ActorType{domain.ActorAdmin},
		reasonRequired: true,
		effects:        []effect{effectDeductEarnedCashback},
		events:         []domain.EventType{domain.EventBookingCancelled, domain.EventAdminAlert},
	},
	{domain.BookingPaid, domain.BookingRefunded}: {
		actors:         []domain.ActorType{domain.ActorAdmin, domain.ActorSystem},
		reasonRequired: true,
		effects:        []effect{effectDeductEarnedCashback},
		events:         []domain.EventType{domain.EventBookingRefunded, domain.EventAdminAlert},
	},
	{domain.BookingPaid, domain.BookingNoShow}: {
		actors: []domain.ActorType{domain.ActorAdmin, domain.ActorVendor},
		events: []domain.EventType{domain.EventBookingNoShow},
	},
	{domain.BookingCompleted, domain.BookingRefunded}: {
		actors:         []domain.ActorType{domain.ActorAdmin},
		reasonRequired: true,
		effects:        []effect{effectDeductEarnedCashback},
		events:         []domain.EventType{domain.EventBookingRefunded, domain.EventAdminAlert},
	},
}
