package ledger

import (
	"log/slog"
)

// Service implements the order ledger: order lifecycle, payment recording and
// customer balance aggregation. Operations that touch more than one entity run
// inside a single repository transaction so the chain commits or rolls back as
// one unit.
type Service struct {
	repo   Repository
	cache  *BalanceCache
	logger *slog.Logger
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo Repository, cache *BalanceCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}
