package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    "github.com/shopspring/decimal"

    "github.com/stayflow/reservation-ingestor/internal/model"
    "github.com/stayflow/reservation-ingestor/internal/pricing"
    "github.com/stayflow/reservation-ingestor/internal/queue"
)

// ReservationRepo persists reservation events and serves the read-side
// reservation listing.  All write work for one event happens inside a single
// transaction: customer and hotel upserts, the reservation insert-or-lookup,
// the room set replacement and the aggregate total update either all commit
// or all roll back.
type ReservationRepo struct {
    db        *sql.DB
    customers *CustomerRepo
    hotels    *HotelRepo
}

// NewReservationRepo returns a ReservationRepo bound to the given database
// and entity resolvers.
func NewReservationRepo(db *sql.DB, customers *CustomerRepo, hotels *HotelRepo) *ReservationRepo {
    return &ReservationRepo{db: db, customers: customers, hotels: hotels}
}

// Persist writes one reservation event and returns the internal reservation
// id.  It is idempotent under redelivery: the uuid unique key keeps the
// reservation row singular, and the room set is replaced wholesale so rows
// never accumulate.  One connection is held for the duration of the
// transaction and released on every path.
func (r *ReservationRepo) Persist(ctx context.Context, ev *queue.ReservationEvent) (uint64, error) {
    if ev.UUID == "" {
        return 0, ErrMissingUUID
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, fmt.Errorf("begin: %w", err)
    }
    id, err := r.persistTx(ctx, tx, ev)
    if err != nil {
        _ = tx.Rollback()
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, fmt.Errorf("commit: %w", err)
    }
    return id, nil
}

func (r *ReservationRepo) persistTx(ctx context.Context, tx *sql.Tx, ev *queue.ReservationEvent) (uint64, error) {
    var customerID, hotelID *uint64

    if ev.Customer != nil && ev.Customer.ID != "" {
        id, err := r.customers.UpsertTx(ctx, tx, &model.Customer{
            ExternalID: ev.Customer.ID,
            Name:       ev.Customer.Name,
            Email:      ev.Customer.Email,
            Document:   ev.Customer.Document,
        })
        if err != nil {
            return 0, fmt.Errorf("upsert customer: %w", err)
        }
        customerID = &id
    }

    if ev.Hotel != nil && ev.Hotel.ID != "" {
        id, err := r.hotels.UpsertTx(ctx, tx, &model.Hotel{
            ExternalID: ev.Hotel.ID,
            Name:       ev.Hotel.Name,
            City:       ev.Hotel.City,
            State:      ev.Hotel.State,
        })
        if err != nil {
            return 0, fmt.Errorf("upsert hotel: %w", err)
        }
        hotelID = &id
    }

    resID, err := r.insertOrLookupTx(ctx, tx, ev, customerID, hotelID)
    if err != nil {
        return 0, err
    }

    if err := r.replaceRoomsTx(ctx, tx, resID, ev.Rooms); err != nil {
        return 0, err
    }

    total, err := r.sumRoomTotalsTx(ctx, tx, resID)
    if err != nil {
        return 0, err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE reservations SET total_value = ? WHERE id = ?`, total, resID); err != nil {
        return 0, fmt.Errorf("update total: %w", err)
    }
    return resID, nil
}

// insertOrLookupTx attempts to create the reservation row and falls back to
// looking up the existing id when the uuid is already present (duplicate
// delivery).  Both statements run on the same transaction; the uuid unique
// key is the serialization point for concurrent deliveries of the same
// identifier.  Attributes of an existing reservation are left untouched —
// only its rooms and total are recomputed by the caller.
func (r *ReservationRepo) insertOrLookupTx(ctx context.Context, tx *sql.Tx, ev *queue.ReservationEvent, customerID, hotelID *uint64) (uint64, error) {
    rec := model.Reservation{
        UUID:              ev.UUID,
        Type:              ev.Type,
        CustomerID:        customerID,
        HotelID:           hotelID,
        Status:            ev.Status,
        Guests:            ev.Guests,
        BreakfastIncluded: ev.BreakfastIncluded,
        Payment:           ev.Payment,
        Metadata:          ev.Metadata,
        CreatedAt:         ev.CreatedAt,
    }
    const q = `INSERT INTO reservations
                   (uuid, type, customer_id, hotel_id, status, guests, breakfast_included, payment, metadata, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE id = id`
    res, err := tx.ExecContext(ctx, q,
        rec.UUID, rec.Type, rec.CustomerID, rec.HotelID, rec.Status, rec.Guests, rec.BreakfastIncluded,
        rawOrNil(rec.Payment), rawOrNil(rec.Metadata), rec.CreatedAt)
    if err != nil {
        return 0, fmt.Errorf("insert reservation: %w", err)
    }
    // RowsAffected is 1 for a fresh insert and 0 for the duplicate no-op.
    if n, err := res.RowsAffected(); err == nil && n == 1 {
        id, err := res.LastInsertId()
        if err != nil {
            return 0, err
        }
        return uint64(id), nil
    }
    var id uint64
    if err := tx.QueryRowContext(ctx,
        `SELECT id FROM reservations WHERE uuid = ?`, ev.UUID).Scan(&id); err != nil {
        return 0, fmt.Errorf("lookup reservation by uuid: %w", err)
    }
    return id, nil
}

// replaceRoomsTx deletes the reservation's previous room set and inserts the
// rooms carried by the event in a single multi-row statement.  Replacing the
// whole set keeps redelivery idempotent: the persisted rooms always equal
// the latest event's rooms.  Missing numeric fields default to 0 and line
// totals are computed with the shared pricing functions.
func (r *ReservationRepo) replaceRoomsTx(ctx context.Context, tx *sql.Tx, reservationID uint64, rooms []queue.EventRoom) error {
    if _, err := tx.ExecContext(ctx,
        `DELETE FROM booked_rooms WHERE reservation_id = ?`, reservationID); err != nil {
        return fmt.Errorf("delete rooms: %w", err)
    }
    if len(rooms) == 0 {
        return nil
    }

    query := `INSERT INTO booked_rooms
                  (reservation_id, external_room_id, room_number, daily_rate, number_of_days,
                   checkin_date, checkout_date, category, total_value) VALUES `
    args := make([]interface{}, 0, len(rooms)*9)
    for i, room := range rooms {
        rec := model.BookedRoom{
            ReservationID:  reservationID,
            ExternalRoomID: strOrNil(room.ID),
            RoomNumber:     strOrNil(room.RoomNumber),
            DailyRate:      decimal.NewFromFloat(room.DailyRate),
            NumberOfDays:   room.NumberOfDays,
            CheckinDate:    strOrNil(room.CheckinDate),
            CheckoutDate:   strOrNil(room.CheckoutDate),
            Category:       strOrNil(room.Category),
        }
        rec.TotalValue = pricing.LineTotal(rec.DailyRate, rec.NumberOfDays)

        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?, ?, ?)"
        args = append(args, rec.ReservationID, rec.ExternalRoomID, rec.RoomNumber,
            rec.DailyRate, rec.NumberOfDays, rec.CheckinDate, rec.CheckoutDate,
            rec.Category, rec.TotalValue)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return fmt.Errorf("insert rooms: %w", err)
    }
    return nil
}

// sumRoomTotalsTx recomputes the aggregate total from the room rows as
// persisted inside this transaction.  The inbound event's total is never
// trusted.
func (r *ReservationRepo) sumRoomTotalsTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (decimal.Decimal, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT total_value FROM booked_rooms WHERE reservation_id = ?`, reservationID)
    if err != nil {
        return decimal.Zero, fmt.Errorf("sum room totals: %w", err)
    }
    defer rows.Close()

    var totals []decimal.Decimal
    for rows.Next() {
        var t decimal.Decimal
        if err := rows.Scan(&t); err != nil {
            return decimal.Zero, err
        }
        totals = append(totals, t)
    }
    if err := rows.Err(); err != nil {
        return decimal.Zero, err
    }
    return pricing.AggregateTotal(totals), nil
}

func rawOrNil(m json.RawMessage) interface{} {
    if len(m) == 0 {
        return nil
    }
    return []byte(m)
}

func strOrNil(s string) *string {
    if s == "" {
        return nil
    }
    return &s
}

// ReservationFilter narrows the read-side listing.  All fields are optional;
// empty values match everything.
type ReservationFilter struct {
    UUID       string // reservation uuid
    CustomerID string // customer external id
    HotelID    string // hotel external id
    RoomID     string // external room id of any booked room
}

// CustomerDetail is the nested customer block of a listing entry.
type CustomerDetail struct {
    ID       string `json:"id"`
    Name     string `json:"name"`
    Email    string `json:"email"`
    Document string `json:"document"`
}

// HotelDetail is the nested hotel block of a listing entry.
type HotelDetail struct {
    ID    string `json:"id"`
    Name  string `json:"name"`
    City  string `json:"city"`
    State string `json:"state"`
}

// RoomDetail is one booked room of a listing entry.
type RoomDetail struct {
    ID           *string `json:"id"`
    RoomNumber   *string `json:"room_number"`
    DailyRate    float64 `json:"daily_rate"`
    NumberOfDays int     `json:"number_of_days"`
    CheckinDate  *string `json:"checkin_date"`
    CheckoutDate *string `json:"checkout_date"`
    Category     *string `json:"category"`
    TotalValue   float64 `json:"total_value"`
}

// ReservationDetail is a denormalized reservation with its customer, hotel
// and booked rooms, as returned by the read API.
type ReservationDetail struct {
    UUID              string          `json:"uuid"`
    CreatedAt         *string         `json:"created_at"`
    Type              string          `json:"type"`
    Customer          *CustomerDetail `json:"customer"`
    Hotel             *HotelDetail    `json:"hotel"`
    Rooms             []RoomDetail    `json:"rooms"`
    Status            string          `json:"status"`
    Guests            int             `json:"guests"`
    BreakfastIncluded bool            `json:"breakfast_included"`
    Payment           json.RawMessage `json:"payment"`
    Metadata          json.RawMessage `json:"metadata"`
    ComputedTotal     float64         `json:"computed_total"`
}

// List returns up to 100 reservations matching the filter, newest first,
// with customer, hotel and room details populated.  Rooms for all matched
// reservations are fetched in one query.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]ReservationDetail, error) {
    where := []string{"1=1"}
    args := make([]interface{}, 0, 4)
    if f.UUID != "" {
        where = append(where, "r.uuid = ?")
        args = append(args, f.UUID)
    }
    if f.CustomerID != "" {
        where = append(where, "c.external_id = ?")
        args = append(args, f.CustomerID)
    }
    if f.HotelID != "" {
        where = append(where, "h.external_id = ?")
        args = append(args, f.HotelID)
    }
    if f.RoomID != "" {
        where = append(where, "EXISTS (SELECT 1 FROM booked_rooms b WHERE b.reservation_id = r.id AND b.external_room_id = ?)")
        args = append(args, f.RoomID)
    }

    q := `SELECT r.id, r.uuid, r.type, r.created_at, r.status, r.guests, r.breakfast_included,
                 r.payment, r.metadata, r.total_value,
                 c.external_id, c.name, c.email, c.document,
                 h.external_id, h.name, h.city, h.state
          FROM reservations r
          LEFT JOIN customers c ON c.id = r.customer_id
          LEFT JOIN hotels h ON h.id = r.hotel_id
          WHERE ` + strings.Join(where, " AND ") + `
          ORDER BY r.created_at DESC, r.id DESC
          LIMIT 100`

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    details := make([]ReservationDetail, 0)
    ids := make([]uint64, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var (
            d          ReservationDetail
            id         uint64
            createdAt  sql.NullTime
            payment    []byte
            metadata   []byte
            total      decimal.Decimal
            custID     sql.NullString
            custName   sql.NullString
            custEmail  sql.NullString
            custDoc    sql.NullString
            hotelID    sql.NullString
            hotelName  sql.NullString
            hotelCity  sql.NullString
            hotelState sql.NullString
        )
        if err := rows.Scan(
            &id, &d.UUID, &d.Type, &createdAt, &d.Status, &d.Guests, &d.BreakfastIncluded,
            &payment, &metadata, &total,
            &custID, &custName, &custEmail, &custDoc,
            &hotelID, &hotelName, &hotelCity, &hotelState,
        ); err != nil {
            return nil, err
        }
        if createdAt.Valid {
            iso := createdAt.Time.UTC().Format(time.RFC3339)
            d.CreatedAt = &iso
        }
        if custID.Valid {
            d.Customer = &CustomerDetail{
                ID:       custID.String,
                Name:     custName.String,
                Email:    custEmail.String,
                Document: custDoc.String,
            }
        }
        if hotelID.Valid {
            d.Hotel = &HotelDetail{
                ID:    hotelID.String,
                Name:  hotelName.String,
                City:  hotelCity.String,
                State: hotelState.String,
            }
        }
        if len(payment) > 0 {
            d.Payment = json.RawMessage(payment)
        }
        if len(metadata) > 0 {
            d.Metadata = json.RawMessage(metadata)
        }
        d.ComputedTotal = total.InexactFloat64()
        d.Rooms = []RoomDetail{}

        index[id] = len(details)
        details = append(details, d)
        ids = append(ids, id)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return details, nil
    }

    // Populate rooms for all reservations in a single query
    placeholders := make([]string, 0, len(ids))
    roomArgs := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        placeholders = append(placeholders, "?")
        roomArgs = append(roomArgs, id)
    }
    roomQ := `SELECT reservation_id, external_room_id, room_number, daily_rate, number_of_days,
                     checkin_date, checkout_date, category, total_value
              FROM booked_rooms
              WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
              ORDER BY reservation_id, id`
    rrows, err := r.db.QueryContext(ctx, roomQ, roomArgs...)
    if err != nil {
        return nil, err
    }
    defer rrows.Close()
    for rrows.Next() {
        var (
            resID    uint64
            room     RoomDetail
            rate     decimal.Decimal
            total    decimal.Decimal
            checkin  sql.NullTime
            checkout sql.NullTime
        )
        if err := rrows.Scan(&resID, &room.ID, &room.RoomNumber, &rate, &room.NumberOfDays,
            &checkin, &checkout, &room.Category, &total); err != nil {
            return nil, err
        }
        room.DailyRate = rate.InexactFloat64()
        room.TotalValue = total.InexactFloat64()
        if checkin.Valid {
            day := checkin.Time.Format("2006-01-02")
            room.CheckinDate = &day
        }
        if checkout.Valid {
            day := checkout.Time.Format("2006-01-02")
            room.CheckoutDate = &day
        }
        idx, ok := index[resID]
        if !ok {
            continue
        }
        details[idx].Rooms = append(details[idx].Rooms, room)
    }
    if err := rrows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}
