package serprank

import "github.com/kailas-cloud/serprank/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrProviderError = domain.ErrProviderError
	ErrInvalidQuery  = domain.ErrInvalidQuery
	ErrNotConfigured = domain.ErrNotConfigured
)

// ProviderError carries the upstream status code and body. Use errors.As() to inspect.
type ProviderError = domain.ProviderError
