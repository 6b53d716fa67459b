package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
)

const customerColumns = `id, name, email, tax_id, password_hash, created_at`

// CustomerRepo mirrors the customers table.
type CustomerRepo struct{ DB *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{DB: db} }

func (r *CustomerRepo) getBy(ctx context.Context, column string, value any) (*model.Customer, error) {
	var c model.Customer
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE "+column+"=? LIMIT 1", value).
		Scan(&c.ID, &c.Name, &c.Email, &c.TaxID, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err, "customer", value)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

// GetCustomer fetches a customer by id.
func (r *CustomerRepo) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return r.getBy(ctx, "id", id)
}

// GetCustomerByTaxID fetches a customer by normalized tax id.
func (r *CustomerRepo) GetCustomerByTaxID(ctx context.Context, taxID string) (*model.Customer, error) {
	return r.getBy(ctx, "tax_id", taxID)
}

// CreateCustomer inserts the customer. A tax id that is already registered
// yields model.ErrConflict.
func (r *CustomerRepo) CreateCustomer(ctx context.Context, c *model.Customer) error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO customers ("+customerColumns+") VALUES (?,?,?,?,?,?)",
		c.ID, c.Name, c.Email, c.TaxID, c.PasswordHash, c.CreatedAt)
	if isDuplicate(err) {
		return fmt.Errorf("customer with tax id %s: %w", c.TaxID, model.ErrConflict)
	}
	return classify(err)
}
