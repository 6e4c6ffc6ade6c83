package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/stayflow/reservation-ingestor/internal/repository"
)

// ReservationHandler serves the read-only projection over the persisted
// reservation schema.  It never writes; all writes arrive via the consumer.
type ReservationHandler struct {
    repo *repository.ReservationRepo
    log  *logrus.Logger
}

// NewReservationHandler returns a handler backed by the given repository.
func NewReservationHandler(repo *repository.ReservationRepo, log *logrus.Logger) *ReservationHandler {
    return &ReservationHandler{repo: repo, log: log}
}

// List handles GET /reserves.  Optional query parameters narrow the result:
//   uuid        – reservation external identifier
//   customer_id – customer external identifier
//   hotel_id    – hotel external identifier
//   room_id     – external room identifier of any booked room
// The response is a JSON array of denormalized reservations, newest first,
// capped at 100 entries.
func (h *ReservationHandler) List(c echo.Context) error {
    filter := repository.ReservationFilter{
        UUID:       c.QueryParam("uuid"),
        CustomerID: c.QueryParam("customer_id"),
        HotelID:    c.QueryParam("hotel_id"),
        RoomID:     c.QueryParam("room_id"),
    }
    details, err := h.repo.List(c.Request().Context(), filter)
    if err != nil {
        h.log.WithError(err).Error("reserves: list failed")
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
    }
    return c.JSON(http.StatusOK, details)
}
