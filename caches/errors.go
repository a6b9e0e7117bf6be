package caches

import (
	"errors"
	"fmt"
)

// ValidationError is returned by cache constructors when their input is unusable.
type ValidationError struct {
	Reason string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("creation of cache failed for reason : %s ", ve.Reason)
}

func (ve ValidationError) Unwrap() error {
	return ErrValidation
}

var (
	ErrCacheItemExpired = errors.New("cache item expired")
	ErrNoCacheItem      = errors.New("no value found in cache")
	ErrValidation       = errors.New("cache validation failed")
)
