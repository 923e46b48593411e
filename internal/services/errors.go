package services

import (
	"github.com/abrezinsky/prizewheel/internal/errors"
	"github.com/abrezinsky/prizewheel/internal/repository"
)

// Service errors
var (
	ErrNoPrizesAvailable  = errors.Conflict("no prizes available")
	ErrPrizeExhausted     = errors.Conflict("prize exhausted, please spin again")
	ErrProjectNotActive   = errors.Conflict("project is not active")
	ErrAlreadyRedeemed    = errors.Conflict("prize already redeemed")
	ErrEmailTaken         = errors.Conflict("email is already registered")
	ErrContactRequired    = errors.Validation("contact is required")
	ErrInvalidContact     = errors.Validation("contact must be an email address or phone number")
	ErrTokenNotFound      = errors.NotFound("redemption token not found")
	ErrTenantNotFound     = errors.NotFound("tenant not found")
	ErrProjectNotFound    = errors.NotFound("project not found")
	ErrPrizeNotFound      = errors.NotFound("prize not found")
	ErrInvalidCredentials = errors.Unauthorized("invalid email or password")
)

// spinLimitMessage is the message of the RateLimited error built per request
const spinLimitMessage = "daily spin limit reached"

// notFoundAs maps repository.ErrNotFound to the given service error
func notFoundAs(err error, notFound error) error {
	if err == repository.ErrNotFound {
		return notFound
	}
	return err
}
