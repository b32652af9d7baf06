package port

import (
	"context"
	"errors"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
)

// ErrIdentityTokenInvalid is the single error identity verifiers return for
// any verification failure: bad signature, wrong audience, rejected
// introspection, network or parse failure, or missing provider
// configuration. No partial profiles are ever returned.
var ErrIdentityTokenInvalid = errors.New("identity: token invalid")

// IdentityVerifier checks a credential issued by an external identity
// provider and returns the normalized profile it attests to.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (domain.ExternalProfile, error)
}
