// Package database opens the optional MySQL connection used for the seat
// inventory and the click archive.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	mc := mysql.NewConfig()
	mc.User = user
	mc.Passwd = pass
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, port)
	mc.DBName = name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", mc.Addr, err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS seat_blocks (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		event_key   VARCHAR(191) NOT NULL,
		section     VARCHAR(32)  NOT NULL,
		row_label   VARCHAR(16)  NOT NULL,
		seat_start  INT UNSIGNED NOT NULL,
		seat_end    INT UNSIGNED NOT NULL,
		price_cents INT UNSIGNED NOT NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_seat_blocks_event (event_key)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS click_events (
		id           CHAR(36)     NOT NULL PRIMARY KEY,
		provider     VARCHAR(32)  NOT NULL,
		event_name   VARCHAR(255) NOT NULL,
		group_size   INT NULL,
		max_rows     INT NULL,
		bucket_label VARCHAR(32)  NOT NULL,
		campaign_id  VARCHAR(128) NULL,
		client_ip    VARCHAR(64)  NULL,
		user_agent   VARCHAR(512) NOT NULL DEFAULT '',
		clicked_at   DATETIME NOT NULL,
		KEY idx_click_events_time (clicked_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the service reads and writes when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	log.Info().Int("tables", len(schema)).Msg("database: schema ready")
	return nil
}
