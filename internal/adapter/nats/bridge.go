// Package nats mirrors pipeline lifecycle events onto a NATS subject so
// external consumers can observe runs without linking the process. Delivery
// is plain core NATS, at-most-once; the in-process bus stays authoritative.
package nats

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/toolweaver/toolweaver/internal/bus"
)

// Bridge forwards bus events to NATS.
type Bridge struct {
	nc      *nats.Conn
	subject string
	log     *slog.Logger
	unsubs  []func()
}

// New connects to the NATS server at url. subject is the publish prefix;
// events land on "<subject>.<kind>".
func New(url, subject string, log *slog.Logger) (*Bridge, error) {
	nc, err := nats.Connect(url,
		nats.Name("toolweaver"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Bridge{nc: nc, subject: subject, log: log}, nil
}

// Attach subscribes the bridge to the pipeline lifecycle kinds on b and
// republishes each event to NATS. Call Close to detach.
func (br *Bridge) Attach(b *bus.Bus) {
	kinds := []bus.Kind{
		bus.KindPipelineStarted,
		bus.KindStepCompleted,
		bus.KindStepFailed,
		bus.KindPipelineFinished,
		bus.KindCacheInvalidated,
	}
	for _, kind := range kinds {
		br.unsubs = append(br.unsubs, b.Subscribe(kind, br.forward))
	}
}

func (br *Bridge) forward(ev bus.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		br.log.Warn("nats bridge: marshal event", "kind", ev.Kind, "error", err)
		return
	}
	subj := fmt.Sprintf("%s.%s", br.subject, ev.Kind)
	if err := br.nc.Publish(subj, data); err != nil {
		br.log.Warn("nats bridge: publish", "subject", subj, "error", err)
	}
}

// Close detaches from the bus, flushes pending publishes, and drops the
// connection.
func (br *Bridge) Close() {
	for _, unsub := range br.unsubs {
		unsub()
	}
	br.unsubs = nil
	if err := br.nc.Flush(); err != nil {
		br.log.Warn("nats bridge: flush", "error", err)
	}
	br.nc.Close()
}
