package session

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a record is absent or expired.
// This is a final, logical rejection; callers must not retry it.
var ErrSessionNotFound = errors.New("session not found")

// ErrCookieInvalid is returned when the sealed session cookie can not be
// opened or carries no session ID.
var ErrCookieInvalid = errors.New("invalid session cookie")

// StorageError indicates the backing store was unreachable or rejected an
// operation. Unlike logical rejections it may be transient and the caller
// may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session store %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
