package repository

import (
    "context"
    "database/sql"

    "github.com/stayflow/reservation-ingestor/internal/model"
)

// HotelRepo resolves hotels by their external identifier.
type HotelRepo struct{ db *sql.DB }

// NewHotelRepo returns a HotelRepo bound to the given database.
func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{db: db} }

// UpsertTx inserts the hotel or refreshes its attributes when the external
// id already exists.  Same contract as CustomerRepo.UpsertTx: latest event
// wins and the resolved internal id is returned on both paths.
func (r *HotelRepo) UpsertTx(ctx context.Context, tx *sql.Tx, h *model.Hotel) (uint64, error) {
    const q = `INSERT INTO hotels (external_id, name, city, state)
               VALUES (?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE
                   name = VALUES(name),
                   city = VALUES(city),
                   state = VALUES(state),
                   id = LAST_INSERT_ID(id)`
    res, err := tx.ExecContext(ctx, q, h.ExternalID, h.Name, h.City, h.State)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    h.ID = uint64(id)
    return h.ID, nil
}
