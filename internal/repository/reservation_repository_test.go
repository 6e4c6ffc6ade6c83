package repository_test

import (
    "context"
    "database/sql"
    "errors"
    "os"
    "testing"
    "time"

    "github.com/shopspring/decimal"

    "github.com/stayflow/reservation-ingestor/internal/database"
    "github.com/stayflow/reservation-ingestor/internal/queue"
    "github.com/stayflow/reservation-ingestor/internal/repository"
)

// These tests exercise the transactional writer against a real MySQL
// instance because the idempotence and atomicity properties live in the
// database's unique keys and rollback semantics, not in Go code alone.
// They are skipped unless INTEGRATION_TESTS is set.

func setupDB(t *testing.T) *sql.DB {
    t.Helper()
    if os.Getenv("INTEGRATION_TESTS") == "" {
        t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires MySQL)")
    }
    db, err := database.Open(
        envOr("DB_USER", "root"), os.Getenv("DB_PASS"),
        envOr("DB_HOST", "127.0.0.1"), envOr("DB_PORT", "3306"),
        envOr("DB_NAME", "reservations_test"))
    if err != nil {
        t.Fatalf("open database: %v", err)
    }
    ctx := context.Background()
    if err := database.Migrate(ctx, db); err != nil {
        t.Fatalf("migrate: %v", err)
    }
    truncate(t, db)
    t.Cleanup(func() {
        truncate(t, db)
        _ = db.Close()
    })
    return db
}

func truncate(t *testing.T, db *sql.DB) {
    t.Helper()
    // Child tables first to satisfy foreign keys.
    for _, table := range []string{"booked_rooms", "reservations", "customers", "hotels"} {
        if _, err := db.Exec("DELETE FROM " + table); err != nil {
            t.Fatalf("clean %s: %v", table, err)
        }
    }
}

func envOr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func newRepo(db *sql.DB) *repository.ReservationRepo {
    return repository.NewReservationRepo(db,
        repository.NewCustomerRepo(db), repository.NewHotelRepo(db))
}

func sampleEvent() *queue.ReservationEvent {
    created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
    return &queue.ReservationEvent{
        UUID:              "res-0001",
        Type:              "booking",
        Status:            "CONFIRMED",
        Guests:            2,
        BreakfastIncluded: true,
        Payment:           []byte(`{"method":"card"}`),
        Metadata:          []byte(`{"channel":"web"}`),
        CreatedAt:         &created,
        Customer: &queue.EventCustomer{
            ID: "cust-1", Name: "Ana Souza", Email: "ana@example.com", Document: "12345678900",
        },
        Hotel: &queue.EventHotel{
            ID: "hotel-1", Name: "Hotel Central", City: "Curitiba", State: "PR",
        },
        Rooms: []queue.EventRoom{
            {ID: "room-1", RoomNumber: "101", DailyRate: 100.00, NumberOfDays: 3,
                CheckinDate: "2025-07-01", CheckoutDate: "2025-07-04", Category: "standard"},
            {ID: "room-2", RoomNumber: "102", DailyRate: 100.00, NumberOfDays: 3,
                CheckinDate: "2025-07-01", CheckoutDate: "2025-07-04", Category: "standard"},
        },
    }
}

func countRows(t *testing.T, db *sql.DB, table string) int {
    t.Helper()
    var n int
    if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
        t.Fatalf("count %s: %v", table, err)
    }
    return n
}

func storedTotal(t *testing.T, db *sql.DB, uuid string) decimal.Decimal {
    t.Helper()
    var total decimal.Decimal
    if err := db.QueryRow("SELECT total_value FROM reservations WHERE uuid = ?", uuid).Scan(&total); err != nil {
        t.Fatalf("read total for %s: %v", uuid, err)
    }
    return total
}

// Runs without a database: the uuid check precedes any connection use.
func TestPersistRequiresUUID(t *testing.T) {
    repo := repository.NewReservationRepo(nil, nil, nil)
    _, err := repo.Persist(context.Background(), &queue.ReservationEvent{Status: "CONFIRMED"})
    if !errors.Is(err, repository.ErrMissingUUID) {
        t.Fatalf("err = %v, want ErrMissingUUID", err)
    }
}

func TestPersistIdempotence(t *testing.T) {
    db := setupDB(t)
    repo := newRepo(db)
    ctx := context.Background()
    ev := sampleEvent()

    first, err := repo.Persist(ctx, ev)
    if err != nil {
        t.Fatalf("first persist: %v", err)
    }
    second, err := repo.Persist(ctx, ev)
    if err != nil {
        t.Fatalf("second persist: %v", err)
    }
    if first != second {
        t.Errorf("redelivery resolved to id %d, want %d", second, first)
    }
    if n := countRows(t, db, "reservations"); n != 1 {
        t.Errorf("reservation rows = %d, want 1", n)
    }
    if n := countRows(t, db, "booked_rooms"); n != 2 {
        t.Errorf("room rows after redelivery = %d, want 2 (not the union of both deliveries)", n)
    }
    if total := storedTotal(t, db, ev.UUID); !total.Equal(decimal.RequireFromString("600.00")) {
        t.Errorf("aggregate total = %s, want 600.00", total)
    }
}

func TestPersistRedeliveryReplacesRoomSet(t *testing.T) {
    db := setupDB(t)
    repo := newRepo(db)
    ctx := context.Background()

    ev := sampleEvent()
    if _, err := repo.Persist(ctx, ev); err != nil {
        t.Fatalf("first persist: %v", err)
    }

    // Later delivery for the same uuid carries a single room.
    ev.Rooms = ev.Rooms[:1]
    if _, err := repo.Persist(ctx, ev); err != nil {
        t.Fatalf("second persist: %v", err)
    }
    if n := countRows(t, db, "booked_rooms"); n != 1 {
        t.Errorf("room rows = %d, want 1 (latest event wins)", n)
    }
    if total := storedTotal(t, db, ev.UUID); !total.Equal(decimal.RequireFromString("300.00")) {
        t.Errorf("aggregate total = %s, want 300.00", total)
    }
}

func TestPersistWithoutRooms(t *testing.T) {
    db := setupDB(t)
    repo := newRepo(db)
    ctx := context.Background()

    ev := sampleEvent()
    ev.Rooms = nil
    if _, err := repo.Persist(ctx, ev); err != nil {
        t.Fatalf("persist: %v", err)
    }
    if n := countRows(t, db, "booked_rooms"); n != 0 {
        t.Errorf("room rows = %d, want 0", n)
    }
    if total := storedTotal(t, db, ev.UUID); !total.IsZero() {
        t.Errorf("aggregate total = %s, want 0", total)
    }
}

func TestPersistWithoutCustomerOrHotel(t *testing.T) {
    db := setupDB(t)
    repo := newRepo(db)
    ctx := context.Background()

    ev := sampleEvent()
    ev.Customer = nil
    ev.Hotel = nil
    if _, err := repo.Persist(ctx, ev); err != nil {
        t.Fatalf("persist: %v", err)
    }
    var customerID, hotelID sql.NullInt64
    if err := db.QueryRow("SELECT customer_id, hotel_id FROM reservations WHERE uuid = ?", ev.UUID).
        Scan(&customerID, &hotelID); err != nil {
        t.Fatalf("read refs: %v", err)
    }
    if customerID.Valid || hotelID.Valid {
        t.Errorf("customer_id=%v hotel_id=%v, want both NULL", customerID, hotelID)
    }
}

func TestCustomerUpsertRefresh(t *testing.T) {
    db := setupDB(t)
    repo := newRepo(db)
    ctx := context.Background()

    ev := sampleEvent()
    if _, err := repo.Persist(ctx, ev); err != nil {
        t.Fatalf("first persist: %v", err)
    }

    // Second reservation from the same customer with a changed email.
    ev2 := sampleEvent()
    ev2.UUID = "res-0002"
    ev2.Customer.Email = "ana.souza@example.com"
    if _, err := repo.Persist(ctx, ev2); err != nil {
        t.Fatalf("second persist: %v", err)
    }

    if n := countRows(t, db, "customers"); n != 1 {
        t.Errorf("customer rows = %d, want 1", n)
    }
    var email string
    if err := db.QueryRow("SELECT email FROM customers WHERE external_id = ?", "cust-1").Scan(&email); err != nil {
        t.Fatalf("read email: %v", err)
    }
    if email != "ana.souza@example.com" {
        t.Errorf("stored email = %q, want the refreshed value", email)
    }
}

func TestPersistRollsBackOnRoomFailure(t *testing.T) {
    db := setupDB(t)
    repo := newRepo(db)
    ctx := context.Background()

    ev := sampleEvent()
    // Out of range for DECIMAL(12,2): the room insert fails after the
    // customer/hotel upserts and the reservation insert already ran.
    ev.Rooms[1].DailyRate = 1e15

    if _, err := repo.Persist(ctx, ev); err == nil {
        t.Fatal("expected persist to fail on out-of-range rate")
    }
    for _, table := range []string{"reservations", "booked_rooms", "customers", "hotels"} {
        if n := countRows(t, db, table); n != 0 {
            t.Errorf("%s rows after rollback = %d, want 0", table, n)
        }
    }

    // Redelivery of a corrected payload succeeds from a clean slate.
    ev.Rooms[1].DailyRate = 100.00
    if _, err := repo.Persist(ctx, ev); err != nil {
        t.Fatalf("redelivery after rollback: %v", err)
    }
    if n := countRows(t, db, "reservations"); n != 1 {
        t.Errorf("reservation rows = %d, want 1", n)
    }
    if n := countRows(t, db, "customers"); n != 1 {
        t.Errorf("customer rows = %d, want 1", n)
    }
}

func TestListByFilters(t *testing.T) {
    db := setupDB(t)
    repo := newRepo(db)
    ctx := context.Background()

    ev := sampleEvent()
    if _, err := repo.Persist(ctx, ev); err != nil {
        t.Fatalf("persist: %v", err)
    }

    details, err := repo.List(ctx, repository.ReservationFilter{UUID: ev.UUID})
    if err != nil {
        t.Fatalf("list by uuid: %v", err)
    }
    if len(details) != 1 {
        t.Fatalf("list returned %d entries, want 1", len(details))
    }
    d := details[0]
    if d.Customer == nil || d.Customer.ID != "cust-1" {
        t.Errorf("customer = %+v, want external id cust-1", d.Customer)
    }
    if d.Hotel == nil || d.Hotel.City != "Curitiba" {
        t.Errorf("hotel = %+v, want city Curitiba", d.Hotel)
    }
    if len(d.Rooms) != 2 {
        t.Errorf("rooms = %d, want 2", len(d.Rooms))
    }
    if d.ComputedTotal != 600.00 {
        t.Errorf("computed_total = %v, want 600.00", d.ComputedTotal)
    }

    byRoom, err := repo.List(ctx, repository.ReservationFilter{RoomID: "room-1"})
    if err != nil {
        t.Fatalf("list by room: %v", err)
    }
    if len(byRoom) != 1 {
        t.Errorf("list by room returned %d entries, want 1", len(byRoom))
    }

    none, err := repo.List(ctx, repository.ReservationFilter{CustomerID: "cust-unknown"})
    if err != nil {
        t.Fatalf("list by unknown customer: %v", err)
    }
    if len(none) != 0 {
        t.Errorf("list by unknown customer returned %d entries, want 0", len(none))
    }
}
