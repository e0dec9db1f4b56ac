package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"photoshoot-server/internal/domain"
)

// CreditLedgerPG implements domain.CreditLedger over the payment_credits
// table. Credits are inserted by the payment webhook and only updated here.
type CreditLedgerPG struct {
	pool *pgxpool.Pool
}

// NewCreditLedger creates a credit ledger backed by PostgreSQL.
func NewCreditLedger(pool *pgxpool.Pool) *CreditLedgerPG {
	return &CreditLedgerPG{pool: pool}
}

const creditColumns = `id, user_id, amount, currency, reference, redeemed, paid_at, redeemed_at`

// LatestUnredeemed returns the user's most recently paid credit that has not
// been redeemed.
func (r *CreditLedgerPG) LatestUnredeemed(ctx context.Context, userID string) (*domain.PaymentCredit, error) {
	query := `
SELECT ` + creditColumns + `
FROM payment_credits
WHERE user_id = $1 AND redeemed = FALSE
ORDER BY paid_at DESC
LIMIT 1;
`
	return r.scanCredit(r.pool.QueryRow(ctx, query, userID))
}

// FindByReference looks a credit up by its identity or external payment
// reference.
func (r *CreditLedgerPG) FindByReference(ctx context.Context, userID, reference string) (*domain.PaymentCredit, error) {
	query := `
SELECT ` + creditColumns + `
FROM payment_credits
WHERE user_id = $1 AND (id::text = $2 OR reference = $2)
LIMIT 1;
`
	return r.scanCredit(r.pool.QueryRow(ctx, query, userID, reference))
}

// Redeem flips the credit to redeemed if and only if it is still unredeemed.
// The WHERE clause makes the transition a single conditional update, so
// concurrent callers cannot both win.
func (r *CreditLedgerPG) Redeem(ctx context.Context, creditID string, at time.Time) (bool, error) {
	query := `
UPDATE payment_credits
SET redeemed = TRUE, redeemed_at = $2
WHERE id = $1 AND redeemed = FALSE;
`
	tag, err := r.pool.Exec(ctx, query, creditID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CreditLedgerPG) scanCredit(row pgx.Row) (*domain.PaymentCredit, error) {
	var credit domain.PaymentCredit
	if err := row.Scan(
		&credit.ID,
		&credit.UserID,
		&credit.Amount,
		&credit.Currency,
		&credit.Reference,
		&credit.Redeemed,
		&credit.PaidAt,
		&credit.RedeemedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &credit, nil
}

var _ domain.CreditLedger = (*CreditLedgerPG)(nil)
