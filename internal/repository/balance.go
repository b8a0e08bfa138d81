package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/model"
)

func (r *Repository) GetUserBalance(ctx context.Context, userID int64) (float64, error) {
	var balance float64
	err := r.db.GetContext(ctx, &balance, "SELECT balance FROM users WHERE id = $1", userID)
	return balance, err
}

// AdjustBalance applies a credit or debit atomically and writes an audit row.
// The row is locked for the duration so concurrent adjustments serialize on
// the user, never read-modify-write a stale value.
//
// Debits clamp at zero instead of failing: a reversal must always complete,
// and a wallet that was partially withdrawn in the meantime simply gives back
// what it still holds. The audit row records the amount actually applied.
// Returns the new balance.
func (r *Repository) AdjustBalance(ctx context.Context, userID int64, amount float64, txType model.TransactionType, description string, referenceID *uuid.UUID) (float64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balanceBefore float64
	err = tx.GetContext(ctx, &balanceBefore, "SELECT balance FROM users WHERE id = $1 FOR UPDATE", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	balanceAfter := balanceBefore + amount
	if balanceAfter < 0 {
		balanceAfter = 0
	}
	applied := balanceAfter - balanceBefore

	switch {
	case amount > 0:
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET balance = $1, total_earned = total_earned + $2, updated_at = NOW() WHERE id = $3",
			balanceAfter, amount, userID)
	case txType == model.TransactionTypePayoutReversal:
		// a reversal also takes back the earned counter
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET balance = $1, total_earned = GREATEST(total_earned + $2, 0), updated_at = NOW() WHERE id = $3",
			balanceAfter, amount, userID)
	default:
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET balance = $1, updated_at = NOW() WHERE id = $2",
			balanceAfter, userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	var desc *string
	if description != "" {
		desc = &description
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO balance_transactions (user_id, amount, type, description, reference_id, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, applied, txType, desc, referenceID, balanceBefore, balanceAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to create transaction record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return balanceAfter, nil
}

func (r *Repository) GetBalanceTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.BalanceTransaction, error) {
	var transactions []model.BalanceTransaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM balance_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}
