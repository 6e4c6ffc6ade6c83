package model

import (
    "encoding/json"
    "time"

    "github.com/shopspring/decimal"
)

// Reservation records a persisted reservation event.  The UUID is the
// idempotency key: at most one row exists per external reservation
// identifier regardless of how many times the event is delivered.  The
// total value is always derived from the reservation's booked rooms, never
// trusted from the inbound event.
//
// Fields:
//  ID                – primary key identifier.
//  UUID              – globally unique external identifier.
//  Type              – reservation type tag from the source system.
//  CustomerID        – resolved customer, nil when the event carried none.
//  HotelID           – resolved hotel, nil when the event carried none.
//  Status            – reservation status string.
//  Guests            – number of guests.
//  BreakfastIncluded – whether breakfast is part of the booking.
//  Payment           – opaque payment descriptor blob.
//  Metadata          – opaque metadata blob.
//  CreatedAt         – creation timestamp from the source event, nullable.
//  TotalValue        – sum of the booked room line totals, 2 decimals.
//  IngestedAt        – when this row was first written.
type Reservation struct {
    ID                uint64          // reservations.id
    UUID              string          // reservations.uuid
    Type              string          // reservations.type
    CustomerID        *uint64         // reservations.customer_id (nullable)
    HotelID           *uint64         // reservations.hotel_id (nullable)
    Status            string          // reservations.status
    Guests            int             // reservations.guests
    BreakfastIncluded bool            // reservations.breakfast_included
    Payment           json.RawMessage // reservations.payment (nullable)
    Metadata          json.RawMessage // reservations.metadata (nullable)
    CreatedAt         *time.Time      // reservations.created_at (nullable)
    TotalValue        decimal.Decimal // reservations.total_value
    IngestedAt        time.Time       // reservations.ingested_at
}
