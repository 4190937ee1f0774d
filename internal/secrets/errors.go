package secrets

import (
	"errors"
)

// ErrSecretUnavailable is returned when the secret backend can not serve a
// requested secret. May be transient; callers decide whether to retry.
var ErrSecretUnavailable = errors.New("secret unavailable")
