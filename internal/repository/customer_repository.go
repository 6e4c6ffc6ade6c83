package repository

import (
    "context"
    "database/sql"

    "github.com/stayflow/reservation-ingestor/internal/model"
)

// CustomerRepo resolves customers by their external identifier.
type CustomerRepo struct{ db *sql.DB }

// NewCustomerRepo returns a CustomerRepo bound to the given database.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// UpsertTx inserts the customer or, when the external id already exists,
// overwrites its mutable attributes (last write wins, no history).  The
// LAST_INSERT_ID(id) assignment makes LastInsertId return the row's internal
// id on both the insert and the update path, so callers get the resolved
// identity from a single statement.  Any constraint violation other than the
// expected external-id conflict propagates to fail the enclosing
// transaction.
func (r *CustomerRepo) UpsertTx(ctx context.Context, tx *sql.Tx, c *model.Customer) (uint64, error) {
    const q = `INSERT INTO customers (external_id, name, email, document)
               VALUES (?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE
                   name = VALUES(name),
                   email = VALUES(email),
                   document = VALUES(document),
                   id = LAST_INSERT_ID(id)`
    res, err := tx.ExecContext(ctx, q, c.ExternalID, c.Name, c.Email, c.Document)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    c.ID = uint64(id)
    return c.ID, nil
}
