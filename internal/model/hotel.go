package model

import "time"

// Hotel represents a row in the `hotels` table.  Hotels follow the same
// upsert lifecycle as customers: first sighting creates the row, later
// sightings overwrite the mutable attributes.
//
// Fields:
//  ID         – primary key identifier.
//  ExternalID – stable key assigned by the upstream source system; unique.
//  Name       – hotel name.
//  City       – city the hotel is located in.
//  State      – state or region.
//  CreatedAt  – timestamp of first sighting.
//  UpdatedAt  – timestamp of the last refresh.
type Hotel struct {
    ID         uint64    // hotels.id
    ExternalID string    // hotels.external_id
    Name       string    // hotels.name
    City       string    // hotels.city
    State      string    // hotels.state
    CreatedAt  time.Time // hotels.created_at
    UpdatedAt  time.Time // hotels.updated_at
}
