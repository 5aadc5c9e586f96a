// Package queue moves recorded affiliate clicks through RabbitMQ: the
// publisher runs on the request path, the consumer turns messages into
// the clicks.log file and the MySQL archive.
package queue

import (
	"time"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// ClickQueueName is the durable queue carrying recorded clicks.
const ClickQueueName = "affiliate.click"

// ClickMessage is the JSON body of one affiliate.click message.  The click
// fields are inlined so downstream tools can read the event directly.
type ClickMessage struct {
	model.ClickEvent
	PublishedAt string `json:"published_at"`
}

func newClickMessage(ev model.ClickEvent, now time.Time) ClickMessage {
	return ClickMessage{ClickEvent: ev, PublishedAt: now.UTC().Format(time.RFC3339)}
}
