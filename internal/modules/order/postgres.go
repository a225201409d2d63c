package order

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectSQL = `
	SELECT id, items, amount_total, stripe_session_id, customer_email,
	       customer_name, address_line1, address_line2, address_city,
	       address_state, address_postal_code, address_country, status, created_at
	FROM orders`

func (r *postgresRepo) Create(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders
		  (id, items, amount_total, stripe_session_id, customer_email,
		   customer_name, address_line1, address_line2, address_city,
		   address_state, address_postal_code, address_country, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		o.ID, items, o.AmountTotal, o.StripeSessionID,
		nilIfEmpty(o.CustomerEmail), nilIfEmpty(o.CustomerName),
		o.CustomerAddress.Line1, o.CustomerAddress.Line2,
		o.CustomerAddress.City, o.CustomerAddress.State,
		o.CustomerAddress.PostalCode, o.CustomerAddress.Country,
		o.Status)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return ErrDuplicateSession
	}
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.scan(r.db.QueryRowContext(ctx, selectSQL+` WHERE id=$1`, uid))
}

func (r *postgresRepo) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectSQL+` WHERE stripe_session_id=$1`, sessionID))
}

func (r *postgresRepo) List(ctx context.Context) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, selectSQL+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Order, error) {
	o := &Order{}
	var items []byte
	var email, name sql.NullString
	err := row.Scan(&o.ID, &items, &o.AmountTotal, &o.StripeSessionID,
		&email, &name,
		&o.CustomerAddress.Line1, &o.CustomerAddress.Line2,
		&o.CustomerAddress.City, &o.CustomerAddress.State,
		&o.CustomerAddress.PostalCode, &o.CustomerAddress.Country,
		&o.Status, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.CustomerEmail = email.String
	o.CustomerName = name.String
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
