package model

import "time"

// Customer represents a row in the `customers` table.  Customers are
// created the first time their external identifier appears in an event and
// refreshed on every subsequent sighting: the latest event always wins and
// no attribute history is kept.
//
// Fields:
//  ID         – primary key identifier.
//  ExternalID – stable key assigned by the upstream source system; unique.
//  Name       – display name.
//  Email      – contact email.
//  Document   – legal document number.
//  CreatedAt  – timestamp of first sighting.
//  UpdatedAt  – timestamp of the last refresh.
type Customer struct {
    ID         uint64    // customers.id
    ExternalID string    // customers.external_id
    Name       string    // customers.name
    Email      string    // customers.email
    Document   string    // customers.document
    CreatedAt  time.Time // customers.created_at
    UpdatedAt  time.Time // customers.updated_at
}
