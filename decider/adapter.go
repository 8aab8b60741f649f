package decider

import (
	"context"

	"github.com/conductor-oss/decider-go/model"
	"github.com/conductor-oss/decider-go/payload"
)

// GatewayAdapter adapts a *payload.Gateway (whose methods are context-aware, since they may block
// on external I/O) to the Decider's PayloadResolver, which is not: the Decider's algorithm (4.D)
// has no notion of cancellation, so the bound context is fixed at construction by the caller that
// owns the request's lifetime.
type GatewayAdapter struct {
	Ctx     context.Context
	Gateway *payload.Gateway
}

func (a GatewayAdapter) Download(path string) (map[string]interface{}, error) {
	return a.Gateway.Download(a.Ctx, path)
}

func (a GatewayAdapter) VerifyAndUpload(name string, kind model.PayloadKind, data *map[string]interface{}, externalPath *string) error {
	return a.Gateway.VerifyAndUpload(a.Ctx, name, kind, data, externalPath)
}
