package storage

import "context"

// Archive stores immutable snapshots of completed aggregation runs. The
// serving path never reads from it; snapshots exist for audit and offline
// analysis.
type Archive interface {
	SaveSnapshot(ctx context.Context, name string, data []byte) error
	LoadSnapshot(ctx context.Context, name string) ([]byte, error)
	ListSnapshots(ctx context.Context, prefix string) ([]string, error)
}
