// Package source defines the boundary to the external price provider.
package source

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceSource fetches current USD prices for the supported currency set.
type PriceSource interface {
	// Name returns the unique identifier for this source
	Name() string

	// FetchAll returns one entry per currency the provider reported. A
	// currency missing from the result is not an error; a transport or
	// status failure is, and no partial result accompanies it.
	FetchAll(ctx context.Context) (map[string]decimal.Decimal, error)
}
