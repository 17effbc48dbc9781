package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStorage          = errors.New("storage failure")
	ErrNotFound         = errors.New("not found")
	ErrUpstream         = errors.New("upstream failure")
	ErrNotConfigured    = errors.New("not configured")
)

// StorageError wraps a failed persistence call. It matches ErrStorage with
// errors.Is while keeping the driver error reachable through Unwrap.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

const defaultStorageTimeout = 5 * time.Second

// withTimeout bounds one storage call. A deadline hit inside gorm comes back
// as context.DeadlineExceeded and is reported as a StorageError by callers.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		d = defaultStorageTimeout
	}
	return context.WithTimeout(ctx, d)
}
