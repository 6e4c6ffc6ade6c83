package model

import "github.com/shopspring/decimal"

// BookedRoom is a single room line under a reservation.  Rooms are owned
// exclusively by their reservation: on redelivery the whole set is replaced,
// so rows never accumulate across deliveries.
//
// Fields:
//  ID             – primary key identifier.
//  ReservationID  – owning reservation.
//  ExternalRoomID – room identifier from the source system, nullable.
//  RoomNumber     – human-facing room number, nullable.
//  DailyRate      – nightly rate, 2 decimals.
//  NumberOfDays   – nights booked.
//  CheckinDate    – check-in date (YYYY-MM-DD), nullable.
//  CheckoutDate   – check-out date (YYYY-MM-DD), nullable.
//  Category       – room category, nullable.
//  TotalValue     – line total = round(daily_rate * number_of_days, 2).
type BookedRoom struct {
    ID             uint64          // booked_rooms.id
    ReservationID  uint64          // booked_rooms.reservation_id
    ExternalRoomID *string         // booked_rooms.external_room_id (nullable)
    RoomNumber     *string         // booked_rooms.room_number (nullable)
    DailyRate      decimal.Decimal // booked_rooms.daily_rate
    NumberOfDays   int             // booked_rooms.number_of_days
    CheckinDate    *string         // booked_rooms.checkin_date (nullable)
    CheckoutDate   *string         // booked_rooms.checkout_date (nullable)
    Category       *string         // booked_rooms.category (nullable)
    TotalValue     decimal.Decimal // booked_rooms.total_value
}
