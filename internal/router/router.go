package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/stayflow/reservation-ingestor/internal/handler"
)

// RegisterRoutes registers the read API on the provided Echo instance.
// cacheMW caches GET responses in Redis and may be a pass-through when
// caching is disabled.  The service exposes no write endpoints: every write
// arrives through the message consumer.
func RegisterRoutes(e *echo.Echo, h *handler.ReservationHandler, cacheMW echo.MiddlewareFunc) {
    // Health check for load balancers and monitoring.
    e.GET("/healthz", handler.Health)
    // Denormalized reservation listing with optional uuid/customer_id/
    // hotel_id/room_id filters.
    e.GET("/reserves", h.List, cacheMW)
}
