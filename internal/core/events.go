package core

import "time"

// Collection names one of the store's five collections.
type Collection string

const (
	CollectionAccounts Collection = "accounts"
	CollectionLoans    Collection = "loans"
	CollectionServices Collection = "services"
	CollectionPayments Collection = "payments"
	CollectionIncomes  Collection = "incomes"
)

// Operations recorded on change events.
const (
	OpAdd     = "add"
	OpUpdate  = "update"
	OpPayment = "payment"
	OpReload  = "reload"
)

// ChangeEvent describes one committed store mutation.
type ChangeEvent struct {
	Collection Collection
	Operation  string
	ID         string
	Revision   uint64
	At         time.Time
}
