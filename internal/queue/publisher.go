package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// Publisher defaults.
const (
	DefaultPublishBuffer  = 256
	DefaultDialTimeout    = 2 * time.Second
	DefaultPublishTimeout = 2 * time.Second
)

var (
	// ErrPublishBufferFull is returned when clicks arrive faster than the
	// broker accepts them; the click is dropped.
	ErrPublishBufferFull = errors.New("click publish buffer full")
	// ErrPublisherClosed is returned after Close.
	ErrPublisherClosed = errors.New("click publisher closed")
)

// Publisher sends recorded clicks to the affiliate.click queue.
// PublishClick only enqueues; a single goroutine drains the buffer, keeps
// one connection and channel open and redials lazily after a failure.
type Publisher struct {
	url            string
	dialTimeout    time.Duration
	publishTimeout time.Duration

	events    chan model.ClickEvent
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex // guards conn and ch
	conn *amqp.Connection
	ch   *amqp.Channel
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithBuffer sets how many clicks may wait for the broker.
func WithBuffer(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.events = make(chan model.ClickEvent, n)
		}
	}
}

// WithTimeouts bounds the broker handshake and each publish.
func WithTimeouts(dial, publish time.Duration) PublisherOption {
	return func(p *Publisher) {
		if dial > 0 {
			p.dialTimeout = dial
		}
		if publish > 0 {
			p.publishTimeout = publish
		}
	}
}

// NewPublisher returns a running publisher for the broker at url.  No
// connection is made until the first click is drained.
func NewPublisher(url string, opts ...PublisherOption) *Publisher {
	p := newPublisher(url, opts...)
	go p.drain()
	return p
}

func newPublisher(url string, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		url:            url,
		dialTimeout:    DefaultDialTimeout,
		publishTimeout: DefaultPublishTimeout,
		events:         make(chan model.ClickEvent, DefaultPublishBuffer),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishClick queues ev for publishing and never blocks.  A full buffer
// drops the click and returns ErrPublishBufferFull.
func (p *Publisher) PublishClick(_ context.Context, ev model.ClickEvent) error {
	if p.closed() {
		return ErrPublisherClosed
	}
	select {
	case p.events <- ev:
		return nil
	default:
		log.Warn().Str("click_id", ev.ID).Int("buffer", cap(p.events)).Msg("rabbitmq: publish buffer full, click dropped")
		return ErrPublishBufferFull
	}
}

// Close stops the drain goroutine and releases the broker connection.
// Clicks still buffered are discarded.
func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.quit)
		select {
		case <-p.done:
		case <-time.After(p.dialTimeout + p.publishTimeout):
			log.Warn().Msg("rabbitmq: publisher still busy at close")
		}
		p.mu.Lock()
		err = p.closeConn()
		p.mu.Unlock()
	})
	return err
}

func (p *Publisher) closed() bool {
	select {
	case <-p.quit:
		return true
	default:
		return false
	}
}

func (p *Publisher) drain() {
	defer close(p.done)
	for {
		select {
		case <-p.quit:
			return
		case ev := <-p.events:
			if p.closed() {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), p.publishTimeout)
			_ = p.publish(ctx, ev)
			cancel()
		}
	}
}

// publish sends one click synchronously.  Errors are logged and returned.
func (p *Publisher) publish(ctx context.Context, ev model.ClickEvent) error {
	body, err := json.Marshal(newClickMessage(ev, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal click: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed() {
		return ErrPublisherClosed
	}

	ch, err := p.channel()
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq: connect failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ClickQueueName, false, false, pub); err != nil {
		log.Warn().Err(err).Str("click_id", ev.ID).Msg("rabbitmq: publish failed")
		_ = p.closeConn()
		return err
	}
	return nil
}

// channel returns the open channel, dialing when needed.  Caller holds mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	_ = p.closeConn()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := declareClickQueue(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// closeConn drops the channel and connection.  Caller holds mu.
func (p *Publisher) closeConn() error {
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return err
}

func declareClickQueue(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(ClickQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
