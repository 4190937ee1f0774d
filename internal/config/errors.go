package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrInvalidSessionMode error if auth.sessionMode is neither "cookie" nor "store".
	ErrInvalidSessionMode = errors.New("toml config auth.sessionMode must be \"cookie\" or \"store\"")
)
