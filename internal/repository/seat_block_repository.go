package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// SeatBlockRepo reads listed seat blocks for an event from MySQL.
//
// Table seat_blocks:
//	id          BIGINT UNSIGNED PK
//	event_key   VARCHAR(191)  normalized event query (see EventKey)
//	section     VARCHAR(32)
//	row_label   VARCHAR(16)
//	seat_start  INT UNSIGNED
//	seat_end    INT UNSIGNED
//	price_cents INT UNSIGNED
type SeatBlockRepo struct {
	db *sql.DB
}

func NewSeatBlockRepo(db *sql.DB) *SeatBlockRepo {
	return &SeatBlockRepo{db: db}
}

// EventKey normalizes a free-text event query into the stored key:
// lower case with runs of whitespace collapsed.
func EventKey(eventName string) string {
	return strings.Join(strings.Fields(strings.ToLower(eventName)), " ")
}

// ListByEvent returns the blocks listed for eventName in insertion order,
// which the grouping engine uses as its tie-break order.
func (r *SeatBlockRepo) ListByEvent(ctx context.Context, eventName string) ([]model.SeatBlock, error) {
	const q = `SELECT section, row_label, seat_start, seat_end, price_cents
	           FROM seat_blocks
	           WHERE event_key = ?
	           ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, EventKey(eventName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SeatBlock
	for rows.Next() {
		var (
			b          model.SeatBlock
			priceCents uint32
		)
		if err := rows.Scan(&b.Section, &b.Row, &b.SeatStart, &b.SeatEnd, &priceCents); err != nil {
			return nil, err
		}
		b.PricePerSeat = float64(priceCents) / 100.0
		out = append(out, b)
	}
	return out, rows.Err()
}
