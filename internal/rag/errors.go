package rag

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by lookups made before any successful ingestion.
var ErrNotReady = errors.New("no documents have been processed yet")

// ServiceError is a query-time failure of the embedding or chat service.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
