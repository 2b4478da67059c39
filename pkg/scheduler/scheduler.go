package scheduler

import (
	"context"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/models"
)

// ResyncScheduler defers the recomputation of an agent's cached balance, e.g. after
// the synchronizer gave up on a transient failure.
//
//go:generate mockery --name ResyncScheduler --output ./mocks --outpkg mocks
type ResyncScheduler interface {
	// ScheduleResync enqueues a resync request to be delivered after delay.
	ScheduleResync(ctx context.Context, req *models.ResyncRequest, delay time.Duration) error
}
