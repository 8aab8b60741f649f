// Package payload implements the External Payload Gateway (4.C): transparent upload of oversized
// workflow/task inputs and outputs to external storage, and download of them back.
package payload

import (
	"context"
	"fmt"
	"time"

	"github.com/conductor-oss/decider-go/converter"
	"github.com/conductor-oss/decider-go/corerrors"
	"github.com/conductor-oss/decider-go/internal/backoff"
	"github.com/conductor-oss/decider-go/model"
)

// Store is the abstract external payload storage backend (out of core scope per §1; the gateway
// only depends on this narrow interface).
type Store interface {
	Upload(ctx context.Context, path string, data []byte) error
	Download(ctx context.Context, path string) ([]byte, error)
}

// UsageRecorder records per-(name, op, kind) payload-gateway usage, per 4.C ("Usage counters are
// emitted per (name, op, kind)").
type UsageRecorder interface {
	RecordPayloadOp(name string, op string, kind model.PayloadKind)
}

type noopUsageRecorder struct{}

func (noopUsageRecorder) RecordPayloadOp(string, string, model.PayloadKind) {}

// Gateway is the External Payload Gateway. Zero value is not usable; build with NewGateway.
type Gateway struct {
	store         Store
	converter     converter.PayloadConverter
	thresholdByte int
	usage         UsageRecorder
	retryPolicy   backoff.RetryPolicy
}

// Option configures a Gateway at construction.
type Option func(*Gateway)

// WithUsageRecorder attaches a usage-metrics sink.
func WithUsageRecorder(u UsageRecorder) Option {
	return func(g *Gateway) { g.usage = u }
}

// WithPayloadConverter overrides the default JSON converter.
func WithPayloadConverter(c converter.PayloadConverter) Option {
	return func(g *Gateway) { g.converter = c }
}

// NewGateway builds a Gateway. thresholdBytes is the serialized-size cutoff above which a payload
// is persisted externally instead of carried in-memory (4.C).
func NewGateway(store Store, thresholdBytes int, opts ...Option) *Gateway {
	g := &Gateway{
		store:         store,
		converter:     converter.JSON,
		thresholdByte: thresholdBytes,
		usage:         noopUsageRecorder{},
		retryPolicy:   backoff.NewExponentialRetryPolicy(100 * time.Millisecond).WithMaximumAttempts(3),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Download fetches and decodes the map stored at path.
func (g *Gateway) Download(ctx context.Context, path string) (map[string]interface{}, error) {
	var data []byte
	err := backoff.Retry(ctx, func() error {
		var innerErr error
		data, innerErr = g.store.Download(ctx, path)
		return innerErr
	}, g.retryPolicy, nil)
	if err != nil {
		return nil, corerrors.NewTransientIO("payload download", err)
	}

	var out map[string]interface{}
	if err := g.converter.FromPayload(&converter.Payload{Data: data}, &out); err != nil {
		return nil, corerrors.NewInternal("decode downloaded payload at %s: %v", path, err)
	}
	return out, nil
}

// VerifyAndUpload implements 4.C's verifyAndUpload: if the serialized *data exceeds the configured
// threshold, it is persisted externally, *data is replaced with an empty map, and *externalPath is
// set to the new location; otherwise both are left untouched. name identifies the owning
// entity (workflow id or task id) for usage accounting; kind is one of the four payload slots.
func (g *Gateway) VerifyAndUpload(ctx context.Context, name string, kind model.PayloadKind, data *map[string]interface{}, externalPath *string) error {
	g.usage.RecordPayloadOp(name, "verifyAndUpload", kind)

	payload, err := g.converter.ToPayload(*data)
	if err != nil {
		return corerrors.NewInternal("encode payload for %s/%s: %v", name, kind, err)
	}

	if payload.Size() <= g.thresholdByte {
		return nil
	}

	path := externalPathFor(name, kind)
	err = backoff.Retry(ctx, func() error {
		return g.store.Upload(ctx, path, payload.Data)
	}, g.retryPolicy, nil)
	if err != nil {
		return corerrors.NewTransientIO("payload upload", err)
	}

	*data = map[string]interface{}{}
	*externalPath = path
	return nil
}

func externalPathFor(name string, kind model.PayloadKind) string {
	return fmt.Sprintf("%s/%s/%d", kind, name, time.Now().UnixNano())
}
