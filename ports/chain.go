package ports

import (
	"context"

	"github.com/layer-3/remitwise/core"
)

// ContractInvoker builds unsigned contract invocation transactions
type ContractInvoker interface {
	BuildInvocation(ctx context.Context, inv core.Invocation) (string, error)
}
