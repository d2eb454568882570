// Package auth verifies bearer credentials and yields the caller's identity.
package auth

import (
	"context"
	"fmt"

	"foodlink/pkg/types"
)

type Verifier interface {
	Verify(ctx context.Context, token string) (types.Identity, error)
}

func unauthenticated(reason string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", reason, types.ErrUnauthenticated)
	}
	return fmt.Errorf("%s: %v: %w", reason, err, types.ErrUnauthenticated)
}
