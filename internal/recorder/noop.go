package recorder

import (
	"context"

	"go.uber.org/zap"
)

// NoopStore is a dry-run store: it lists no rows and only logs what would be written.
type NoopStore struct {
	logger *zap.Logger
}

func NewNoopStore(logger *zap.Logger) *NoopStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopStore{logger: logger}
}

func (n *NoopStore) Name() string { return "noop" }

func (n *NoopStore) ListRows(_ context.Context) ([]Row, error) { return nil, nil }

func (n *NoopStore) Create(_ context.Context, f Fields) (string, error) {
	n.logger.Info("dry-run create", zap.String("pair", f.Name), zap.Float64("price", f.CurrentPrice))
	return "", nil
}

func (n *NoopStore) Update(_ context.Context, handle string, f Fields) error {
	n.logger.Info("dry-run update", zap.String("pair", f.Name), zap.String("handle", handle), zap.Float64("price", f.CurrentPrice))
	return nil
}

func (n *NoopStore) Close() error { return nil }
