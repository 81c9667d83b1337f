package domain

import "github.com/shopspring/decimal"

// TransactionType classifies the business-level operation a wallet
// transaction represents.
type TransactionType string

const (
	TypeTopUp       TransactionType = "TOPUP"
	TypePurchase    TransactionType = "PURCHASE"
	TypeTransferIn  TransactionType = "TRANSFER_IN"
	TypeTransferOut TransactionType = "TRANSFER_OUT"
	TypeRefund      TransactionType = "REFUND"
	TypeFee         TransactionType = "FEE"
	TypeReward      TransactionType = "REWARD"
	TypeAdjustment  TransactionType = "ADJUSTMENT"
)

// IsDebit reports whether the type debits the wallet (reduces its balance).
// Adjustments carry their own direction and are handled separately.
func (t TransactionType) IsDebit() bool {
	switch t {
	case TypePurchase, TypeTransferOut, TypeFee:
		return true
	default:
		return false
	}
}

// TransactionStatus tracks the lifecycle of a wallet transaction.
type TransactionStatus string

const (
	TxnPending   TransactionStatus = "PENDING"
	TxnCompleted TransactionStatus = "COMPLETED"
	TxnFailed    TransactionStatus = "FAILED"
	TxnReversed  TransactionStatus = "REVERSED"
)

// transitionTable is the exhaustive set of legal status transitions.
// PENDING resolves to COMPLETED or FAILED; only COMPLETED may become REVERSED.
var transitionTable = map[TransactionStatus][]TransactionStatus{
	TxnPending:   {TxnCompleted, TxnFailed},
	TxnCompleted: {TxnReversed},
	TxnFailed:    {},
	TxnReversed:  {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transitionTable[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s TransactionStatus) IsTerminal() bool {
	return len(transitionTable[s]) == 0
}

// WalletTransaction is one row per business-level operation. The
// TransactionReference is the idempotency key: replays with the same
// reference and payload return the recorded row instead of re-executing.
type WalletTransaction struct {
	TransactionID        string            `json:"transactionID"`        // Primary Key (UUID)
	TransactionReference string            `json:"transactionReference"` // Unique idempotency key
	WalletID             string            `json:"walletID"`
	CounterpartyWalletID *string           `json:"counterpartyWalletID,omitempty"` // Set for transfers
	Type                 TransactionType   `json:"type"`
	Amount               decimal.Decimal   `json:"amount"` // Always positive
	CurrencyCode         string            `json:"currencyCode"`
	Status               TransactionStatus `json:"status"`
	LedgerBatchRef       *string           `json:"ledgerBatchRef,omitempty"` // Set when COMPLETED
	ExternalReference    string            `json:"externalReference"`        // Collaborator-side reference
	Description          string            `json:"description"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	FailureReason        *string           `json:"failureReason,omitempty"`
	ReversalOfID         *string           `json:"reversalOfID,omitempty"` // Set on compensating transactions
	ReversedByID         *string           `json:"reversedByID,omitempty"` // Set on the original once reversed
	AuditFields
}
