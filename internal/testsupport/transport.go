package testsupport

import (
	"context"
	"sync"

	"punchout/internal/export"
	"punchout/internal/outbox"
)

// Transport is a scripted export transport. Outcomes are returned in order;
// once exhausted the last one repeats. With no outcomes every delivery
// succeeds.
type Transport struct {
	mu        sync.Mutex
	outcomes  []export.Outcome
	delivered []string
}

// NewTransport returns a transport that replays outcomes.
func NewTransport(outcomes ...export.Outcome) *Transport {
	return &Transport{outcomes: outcomes}
}

// Deliver records the export id and returns the next scripted outcome.
func (f *Transport) Deliver(_ context.Context, item *outbox.Item) export.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, item.ExportID)
	if len(f.outcomes) == 0 {
		return export.Outcome{Delivered: true, StatusCode: 200}
	}
	outcome := f.outcomes[0]
	if len(f.outcomes) > 1 {
		f.outcomes = f.outcomes[1:]
	}
	return outcome
}

// Delivered returns the export ids seen so far.
func (f *Transport) Delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.delivered...)
}
