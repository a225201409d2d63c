package catalog

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectSQL = `
	SELECT id, name, price, description, image, stock, created_at, updated_at
	FROM products`

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, description, image, stock)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.Price, p.Description, nilIfEmpty(p.Image), p.Stock)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx, selectSQL+` WHERE id=$1`, uid).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, selectSQL+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name=$1, price=$2, description=$3, image=$4, stock=$5, updated_at=NOW()
		WHERE id=$6`,
		p.Name, p.Price, p.Description, nilIfEmpty(p.Image), p.Stock, p.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1`, uid)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *postgresRepo) DecrementStock(ctx context.Context, id string, qty int) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET stock = stock - $1, updated_at=NOW() WHERE id=$2`,
		qty, uid)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *postgresRepo) ReplaceAll(ctx context.Context, products []*Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return err
	}
	for _, p := range products {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, price, description, image, stock)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			p.ID, p.Name, p.Price, p.Description, nilIfEmpty(p.Image), p.Stock)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanProduct(scan func(...interface{}) error) (*Product, error) {
	p := &Product{}
	var description, image sql.NullString
	err := scan(&p.ID, &p.Name, &p.Price, &description, &image, &p.Stock,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Image = image.String
	return p, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
