package accounting

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

var (
	// ErrEmptyBatch is returned for batches with fewer than two entries.
	// A single-entry batch can never balance and is never valid.
	ErrEmptyBatch = errors.New("ledger batch must have at least two entries")
	// ErrUnbalancedBatch is returned when debit and credit sums differ.
	ErrUnbalancedBatch = errors.New("ledger batch debits and credits do not balance")
	// ErrBothSidesSet is returned when an entry carries both a debit and a credit amount.
	ErrBothSidesSet = errors.New("ledger entry must have exactly one of debit or credit set")
)

// BatchInput describes one business operation to be turned into a balanced
// set of ledger entries. Counterparty is only set for transfers.
type BatchInput struct {
	BatchReference            string
	TransactionID             string
	CounterpartyTransactionID string
	Wallet                    domain.Wallet
	Counterparty              *domain.Wallet
	Type                      domain.TransactionType
	AdjustmentSide            domain.EntrySide // Wallet-side direction for ADJUSTMENT
	Amount                    decimal.Decimal
	Description               string
	Now                       time.Time
	UserID                    string
}

// BuildEntries derives the balanced ledger batch for a wallet operation.
// Wallet balances live on liability accounts, so crediting a wallet account
// increases its balance and debiting decreases it. Transfers route through a
// clearing account and span both wallets in one four-entry batch.
func BuildEntries(in BatchInput) ([]domain.LedgerEntry, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", ErrUnbalancedBatch, in.Amount.String())
	}

	cur := in.Wallet.CurrencyCode
	b := batchBuilder{in: in}

	switch in.Type {
	case domain.TypeTopUp:
		b.debit(in.TransactionID, domain.CashAccountCode(cur), domain.Asset)
		b.credit(in.TransactionID, in.Wallet.AccountCode(), domain.Liability)
	case domain.TypePurchase:
		b.debit(in.TransactionID, in.Wallet.AccountCode(), domain.Liability)
		b.credit(in.TransactionID, domain.RevenueAccountCode(cur), domain.Revenue)
	case domain.TypeRefund:
		b.debit(in.TransactionID, domain.RevenueAccountCode(cur), domain.Revenue)
		b.credit(in.TransactionID, in.Wallet.AccountCode(), domain.Liability)
	case domain.TypeFee:
		b.debit(in.TransactionID, in.Wallet.AccountCode(), domain.Liability)
		b.credit(in.TransactionID, domain.FeeAccountCode(cur), domain.Revenue)
	case domain.TypeReward:
		b.debit(in.TransactionID, domain.RewardAccountCode(cur), domain.Expense)
		b.credit(in.TransactionID, in.Wallet.AccountCode(), domain.Liability)
	case domain.TypeAdjustment:
		if in.AdjustmentSide == domain.SideDebit {
			b.debit(in.TransactionID, in.Wallet.AccountCode(), domain.Liability)
			b.credit(in.TransactionID, domain.AdjustAccountCode(cur), domain.Expense)
		} else {
			b.debit(in.TransactionID, domain.AdjustAccountCode(cur), domain.Expense)
			b.credit(in.TransactionID, in.Wallet.AccountCode(), domain.Liability)
		}
	case domain.TypeTransferOut:
		if in.Counterparty == nil {
			return nil, fmt.Errorf("transfer requires a counterparty wallet")
		}
		b.debit(in.TransactionID, in.Wallet.AccountCode(), domain.Liability)
		b.credit(in.TransactionID, domain.TransferAccountCode(cur), domain.Liability)
		b.debit(in.CounterpartyTransactionID, domain.TransferAccountCode(cur), domain.Liability)
		b.credit(in.CounterpartyTransactionID, in.Counterparty.AccountCode(), domain.Liability)
	default:
		return nil, fmt.Errorf("no entry derivation for transaction type %s", in.Type)
	}

	if err := ValidateBatch(b.entries); err != nil {
		return nil, err
	}
	return b.entries, nil
}

// BuildReversalEntries mirrors a committed batch: every debit becomes a
// credit of the same magnitude and vice versa, restoring all balances.
func BuildReversalEntries(original []domain.LedgerEntry, batchReference, transactionID, description string, now time.Time, userID string) ([]domain.LedgerEntry, error) {
	if len(original) < 2 {
		return nil, ErrEmptyBatch
	}
	reversed := make([]domain.LedgerEntry, len(original))
	for i, orig := range original {
		reversed[i] = domain.LedgerEntry{
			EntryID:        uuid.NewString(),
			BatchReference: batchReference,
			TransactionID:  transactionID,
			AccountCode:    orig.AccountCode,
			AccountType:    orig.AccountType,
			Sequence:       i + 1,
			DebitAmount:    orig.CreditAmount,
			CreditAmount:   orig.DebitAmount,
			CurrencyCode:   orig.CurrencyCode,
			Description:    description,
			CreatedAt:      now,
			CreatedBy:      userID,
		}
	}
	if err := ValidateBatch(reversed); err != nil {
		return nil, err
	}
	return reversed, nil
}

// ValidateBatch enforces the journal invariants: at least two entries,
// exactly one side set per entry, and equal debit/credit sums.
func ValidateBatch(entries []domain.LedgerEntry) error {
	if len(entries) < 2 {
		return ErrEmptyBatch
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for _, e := range entries {
		if !e.DebitAmount.IsZero() && !e.CreditAmount.IsZero() {
			return fmt.Errorf("%w: entry %s for account %s", ErrBothSidesSet, e.EntryID, e.AccountCode)
		}
		if e.DebitAmount.IsNegative() || e.CreditAmount.IsNegative() {
			return fmt.Errorf("%w: entry %s has a negative amount", ErrUnbalancedBatch, e.EntryID)
		}
		debits = debits.Add(e.DebitAmount)
		credits = credits.Add(e.CreditAmount)
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits sum to %s, credits sum to %s", ErrUnbalancedBatch, debits.String(), credits.String())
	}
	return nil
}

// AccountDelta computes the signed balance change a batch implies for one
// account code.
func AccountDelta(entries []domain.LedgerEntry, accountCode string) decimal.Decimal {
	delta := decimal.Zero
	for _, e := range entries {
		if e.AccountCode == accountCode {
			delta = delta.Add(e.SignedAmount())
		}
	}
	return delta
}

// SystemDeltas groups the signed balance changes for every non-wallet
// account touched by a batch, keyed by account code.
func SystemDeltas(entries []domain.LedgerEntry, walletCodes map[string]bool) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if walletCodes[e.AccountCode] {
			continue
		}
		deltas[e.AccountCode] = deltas[e.AccountCode].Add(e.SignedAmount())
	}
	return deltas
}

type batchBuilder struct {
	in      BatchInput
	entries []domain.LedgerEntry
}

func (b *batchBuilder) debit(txnID, code string, accType domain.AccountType) {
	b.add(txnID, code, accType, b.in.Amount, decimal.Zero)
}

func (b *batchBuilder) credit(txnID, code string, accType domain.AccountType) {
	b.add(txnID, code, accType, decimal.Zero, b.in.Amount)
}

func (b *batchBuilder) add(txnID, code string, accType domain.AccountType, debit, credit decimal.Decimal) {
	b.entries = append(b.entries, domain.LedgerEntry{
		EntryID:        uuid.NewString(),
		BatchReference: b.in.BatchReference,
		TransactionID:  txnID,
		AccountCode:    code,
		AccountType:    accType,
		Sequence:       len(b.entries) + 1,
		DebitAmount:    debit,
		CreditAmount:   credit,
		CurrencyCode:   b.in.Wallet.CurrencyCode,
		Description:    b.in.Description,
		CreatedAt:      b.in.Now,
		CreatedBy:      b.in.UserID,
	})
}
