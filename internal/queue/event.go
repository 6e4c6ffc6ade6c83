// Package queue contains the reservation event payload and the background
// consumer that persists events delivered by the message broker.
package queue

import (
    "encoding/json"
    "time"
)

// ReservationEvent is the inbound message payload.  The UUID is the
// idempotency key; everything else is optional and defaults to its zero
// value when absent so a sparse event never fails the whole delivery.
// Payment and Metadata are opaque blobs passed through to storage untouched.
type ReservationEvent struct {
    UUID              string          `json:"uuid"`
    Type              string          `json:"type"`
    Status            string          `json:"status"`
    Guests            int             `json:"guests"`
    BreakfastIncluded bool            `json:"breakfast_included"`
    Payment           json.RawMessage `json:"payment,omitempty"`
    Metadata          json.RawMessage `json:"metadata,omitempty"`
    CreatedAt         *time.Time      `json:"created_at,omitempty"`
    Customer          *EventCustomer  `json:"customer,omitempty"`
    Hotel             *EventHotel     `json:"hotel,omitempty"`
    Rooms             []EventRoom     `json:"rooms,omitempty"`
}

// EventCustomer carries the customer attributes attached to an event.  ID is
// the customer's external identifier; an empty ID means the reservation
// references no customer.
type EventCustomer struct {
    ID       string `json:"id"`
    Name     string `json:"name"`
    Email    string `json:"email"`
    Document string `json:"document"`
}

// EventHotel carries the hotel attributes attached to an event.
type EventHotel struct {
    ID    string `json:"id"`
    Name  string `json:"name"`
    City  string `json:"city"`
    State string `json:"state"`
}

// EventRoom is one room line of an event.  Missing numeric fields decode to
// zero rather than failing the event.
type EventRoom struct {
    ID           string  `json:"id"`
    RoomNumber   string  `json:"room_number"`
    DailyRate    float64 `json:"daily_rate"`
    NumberOfDays int     `json:"number_of_days"`
    CheckinDate  string  `json:"checkin_date"`
    CheckoutDate string  `json:"checkout_date"`
    Category     string  `json:"category"`
}
