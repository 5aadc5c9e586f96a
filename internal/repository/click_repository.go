package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// ClickRepo archives click events in MySQL for long-range reporting; the
// in-memory click log only covers recent traffic.
type ClickRepo struct {
	db *sql.DB
}

func NewClickRepo(db *sql.DB) *ClickRepo {
	return &ClickRepo{db: db}
}

// Insert stores one click.  Replayed deliveries of the same event id are
// ignored.
func (r *ClickRepo) Insert(ctx context.Context, ev model.ClickEvent) error {
	const q = `INSERT IGNORE INTO click_events
	           (id, provider, event_name, group_size, max_rows, bucket_label, campaign_id, client_ip, user_agent, clicked_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		ev.ID,
		ev.Provider,
		ev.EventName,
		nullInt(ev.GroupSize),
		nullInt(ev.MaxRows),
		ev.BucketLabel,
		nullString(ev.CampaignID),
		nullString(ev.ClientIP),
		ev.UserAgent,
		time.Unix(ev.TimestampUnix, 0).UTC(),
	)
	return err
}

// CountByProviderSince returns click counts per provider since t.
func (r *ClickRepo) CountByProviderSince(ctx context.Context, since time.Time) (map[string]int, error) {
	const q = `SELECT LOWER(provider), COUNT(*)
	           FROM click_events
	           WHERE clicked_at >= ?
	           GROUP BY LOWER(provider)`
	rows, err := r.db.QueryContext(ctx, q, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			provider string
			n        int
		)
		if err := rows.Scan(&provider, &n); err != nil {
			return nil, err
		}
		out[provider] = n
	}
	return out, rows.Err()
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
