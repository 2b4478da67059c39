package storage

import (
	"context"

	"github.com/chris/agent-wallet-ledger/pkg/models"
)

// TopupStore defines the persistence of top-up requests.
type TopupStore interface {
	InsertTopupRequest(ctx context.Context, req *models.TopupRequest) error
	GetTopupRequest(ctx context.Context, requestID string) (*models.TopupRequest, error)
	ListTopupRequestsByAgent(ctx context.Context, agentID string) ([]models.TopupRequest, error)

	// ApproveTopup marks a pending request approved and inserts its ledger entry
	// atomically: either both are committed or neither is.
	ApproveTopup(ctx context.Context, requestID string, approval models.TopupApproval) (*models.TopupRequest, error)

	// UpdateTopupRequestStatus moves a pending request to a terminal status without
	// touching the ledger.
	UpdateTopupRequestStatus(ctx context.Context, requestID string, status models.Status, adminID string) (*models.TopupRequest, error)

	// DeleteTopupRequest removes a request. Pending requests are never deleted and
	// yield ErrInvalidState.
	DeleteTopupRequest(ctx context.Context, requestID string) error
}
