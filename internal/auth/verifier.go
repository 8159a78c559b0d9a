package auth

import (
	"context"
	"strings"
)

// Verifier decides whether signature proves control of address.
type Verifier interface {
	Verify(ctx context.Context, address, signature string) error
}

// DemoVerifier accepts any non-empty signature. Real signature recovery is
// done upstream of this service.
type DemoVerifier struct{}

func (DemoVerifier) Verify(_ context.Context, address, signature string) error {
	if strings.TrimSpace(address) == "" || strings.TrimSpace(signature) == "" {
		return ErrInvalidSignature
	}
	return nil
}
