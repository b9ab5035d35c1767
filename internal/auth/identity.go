package auth

import (
	"context"
	"strings"

	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/models"
)

// State says how far a request got in identifying its caller.
type State int

const (
	// Anonymous requests carried no bearer credential.
	Anonymous State = iota
	// Authenticated requests carried a valid token for an active user.
	Authenticated
	// Invalid requests carried a credential that failed verification.
	// Policies treat them as anonymous unless configured to reject them.
	Invalid
	// Unavailable requests carried a valid token but the user could not be
	// loaded. The request cannot be served.
	Unavailable
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Invalid:
		return "invalid"
	case Unavailable:
		return "unavailable"
	default:
		return "anonymous"
	}
}

// Identity is the caller of a request.
type Identity struct {
	State State
	User  *models.User
	// Reason is why verification failed, for Invalid and Unavailable
	// identities.
	Reason error
}

func (i Identity) IsAuthenticated() bool {
	return i.State == Authenticated && i.User != nil
}

func (i Identity) IsStaff() bool {
	return i.IsAuthenticated() && i.User.IsStaff
}

// UserID is zero for unauthenticated callers.
func (i Identity) UserID() uint {
	if !i.IsAuthenticated() {
		return 0
	}
	return i.User.ID
}

// UserLookup finds users by id.
type UserLookup interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// Verifier resolves Authorization headers to identities.
type Verifier struct {
	tokens *Tokens
	users  UserLookup
}

func NewVerifier(tokens *Tokens, users UserLookup) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

var errInactive = errors.New("user is inactive")

// Identify never fails: a missing or non-bearer header is Anonymous, a
// bearer token that does not verify or names no user is Invalid, and a
// user lookup that errors for any other reason is Unavailable.
func (v *Verifier) Identify(ctx context.Context, header string) Identity {
	token, ok := BearerToken(header)
	if !ok {
		return Identity{State: Anonymous}
	}

	claims, err := v.tokens.Parse(token, AccessToken)
	if err != nil {
		return Identity{State: Invalid, Reason: err}
	}

	user, err := v.users.Get(ctx, claims.UserID)
	if errors.Is(err, errors.ErrNotFound) {
		return Identity{State: Invalid, Reason: err}
	}
	if err != nil {
		return Identity{State: Unavailable, Reason: err}
	}
	if !user.IsActive {
		return Identity{State: Invalid, Reason: errInactive}
	}

	return Identity{State: Authenticated, User: user}
}

// BearerToken extracts the credential of a "Bearer <token>" header. The
// scheme is case-insensitive. ok is false for any other scheme; an empty
// token after the scheme is returned as is.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer"

	header = strings.TrimSpace(header)
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	rest := header[len(prefix):]
	if rest != "" && rest[0] != ' ' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
