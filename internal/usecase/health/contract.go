package health

import "context"

// ProviderChecker checks that the search provider is usable.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// OutputChecker checks that records can be written.
type OutputChecker interface {
	Writable(ctx context.Context) error
}
