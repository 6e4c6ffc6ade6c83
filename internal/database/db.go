package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings: the pool is the process-wide resource shared by every
	// in-flight message transaction and by the read API.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the reservation schema if it does not exist.  The DDL is
// idempotent so the service can be restarted or pointed at a fresh database
// without manual steps.  The same statements live under migrations/ for
// operators who manage schema out of band.
//
// The unique keys on customers.external_id, hotels.external_id and
// reservations.uuid are load-bearing: they are the serialization points that
// make concurrent duplicate deliveries safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			external_id VARCHAR(64)  NOT NULL,
			name        VARCHAR(255) NOT NULL DEFAULT '',
			email       VARCHAR(255) NOT NULL DEFAULT '',
			document    VARCHAR(64)  NOT NULL DEFAULT '',
			created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_customers_external_id (external_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS hotels (
			id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			external_id VARCHAR(64)  NOT NULL,
			name        VARCHAR(255) NOT NULL DEFAULT '',
			city        VARCHAR(128) NOT NULL DEFAULT '',
			state       VARCHAR(64)  NOT NULL DEFAULT '',
			created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_hotels_external_id (external_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			uuid               VARCHAR(64)  NOT NULL,
			type               VARCHAR(64)  NOT NULL DEFAULT '',
			customer_id        BIGINT UNSIGNED NULL,
			hotel_id           BIGINT UNSIGNED NULL,
			status             VARCHAR(64)  NOT NULL DEFAULT '',
			guests             INT          NOT NULL DEFAULT 0,
			breakfast_included TINYINT(1)   NOT NULL DEFAULT 0,
			payment            JSON         NULL,
			metadata           JSON         NULL,
			created_at         DATETIME     NULL,
			total_value        DECIMAL(12,2) NOT NULL DEFAULT 0,
			ingested_at        DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_reservations_uuid (uuid),
			KEY ix_reservations_customer (customer_id),
			KEY ix_reservations_hotel (hotel_id),
			CONSTRAINT fk_reservations_customer FOREIGN KEY (customer_id) REFERENCES customers (id),
			CONSTRAINT fk_reservations_hotel FOREIGN KEY (hotel_id) REFERENCES hotels (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS booked_rooms (
			id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			reservation_id   BIGINT UNSIGNED NOT NULL,
			external_room_id VARCHAR(64)  NULL,
			room_number      VARCHAR(32)  NULL,
			daily_rate       DECIMAL(12,2) NOT NULL DEFAULT 0,
			number_of_days   INT          NOT NULL DEFAULT 0,
			checkin_date     DATE         NULL,
			checkout_date    DATE         NULL,
			category         VARCHAR(64)  NULL,
			total_value      DECIMAL(12,2) NOT NULL DEFAULT 0,
			PRIMARY KEY (id),
			KEY ix_booked_rooms_reservation (reservation_id),
			CONSTRAINT fk_booked_rooms_reservation FOREIGN KEY (reservation_id)
				REFERENCES reservations (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
