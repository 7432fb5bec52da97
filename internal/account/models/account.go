package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is one customer's ATM-accessible account. Identity doubles as the
// primary key and never changes after creation. The PIN must be exactly four
// decimal digits, enforced whenever it is set. Balance is whole NIS and never
// goes negative.
type Account struct {
	Identity string
	PIN      string
	Balance  int64
}

// Receipt is the snapshot handed to the presentation layer when the customer
// asks for a printout. Reference makes individual printouts distinguishable.
type Receipt struct {
	Identity  string
	IssuedAt  time.Time
	Balance   int64
	Reference uuid.UUID
}
