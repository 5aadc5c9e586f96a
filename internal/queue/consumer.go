package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// ClickArchive stores consumed clicks durably.  *repository.ClickRepo
// satisfies it.
type ClickArchive interface {
	Insert(ctx context.Context, ev model.ClickEvent) error
}

// RetryDelay is how long a delivery that failed on storage waits before it
// is requeued.
const RetryDelay = 2 * time.Second

// retryableError marks a failure of the archive or the log file.  The
// delivery is requeued instead of dropped.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// IsRetryable reports whether err came from storage rather than from a bad
// message body.
func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

// Consumer drains the affiliate.click queue.  Each message becomes one
// click_events row when Archive is set, then one line in LogDir/clicks.log.
type Consumer struct {
	URL        string
	LogDir     string
	Archive    ClickArchive
	RetryDelay time.Duration

	mu sync.Mutex // serializes writes to clicks.log
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff when the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.DialConfig(c.URL, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(DefaultDialTimeout),
		})
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("click-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("click-consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("click-consumer: set QoS failed")
	}
	if err := declareClickQueue(ch); err != nil {
		return err
	}
	msgs, err := ch.Consume(ClickQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	log.Info().Str("queue", ClickQueueName).Msg("click-consumer: consuming")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(ctx, d.Body); err != nil {
				if IsRetryable(err) {
					log.Warn().Err(err).Str("message_id", d.MessageId).Msg("click-consumer: storage failed, requeueing")
					stopped := !sleep(ctx, c.retryDelay())
					_ = d.Nack(false, true)
					if stopped {
						return ctx.Err()
					}
					continue
				}
				log.Error().Err(err).Str("message_id", d.MessageId).Msg("click-consumer: dropping bad message")
				_ = d.Nack(false, false) // a bad body would loop forever
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one message body, archives it and appends it to
// clicks.log.  The archive write comes first and ignores duplicate ids, so
// a requeued delivery never leaves a log line without its row.
func (c *Consumer) HandleMessage(ctx context.Context, body []byte) error {
	var msg ClickMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if msg.ID == "" || msg.Provider == "" {
		return errors.New("click message without id or provider")
	}
	if c.Archive != nil {
		if err := c.Archive.Insert(ctx, msg.ClickEvent); err != nil {
			return &retryableError{fmt.Errorf("archive: %w", err)}
		}
	}
	if err := c.appendLine(msg); err != nil {
		return &retryableError{err}
	}
	return nil
}

func (c *Consumer) retryDelay() time.Duration {
	if c.RetryDelay > 0 {
		return c.RetryDelay
	}
	return RetryDelay
}

func (c *Consumer) appendLine(msg ClickMessage) error {
	dir := c.LogDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.OpenFile(filepath.Join(dir, "clicks.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(msg)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(msg ClickMessage) string {
	campaign := msg.CampaignID
	if campaign == "" {
		campaign = "none"
	}
	group := "-"
	if msg.GroupSize != nil {
		group = fmt.Sprint(*msg.GroupSize)
	}
	ts := time.Unix(msg.TimestampUnix, 0).UTC().Format(time.RFC3339)
	return fmt.Sprintf("[%s] Affiliate click | id=%s | provider=%s | bucket=%s | campaign=%s | event=%q | group_size=%s\n",
		ts, msg.ID, msg.Provider, msg.BucketLabel, campaign, msg.EventName, group)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
