// Package tmerrors defines the error taxonomy shared by every layer of the
// topic manager, so that callers can use errors.Is/errors.As regardless of
// which component (admin wrapper, raw consumer, offset fetcher, or the
// orchestrator) produced the failure.
package tmerrors

import (
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
)

// Sentinel errors. Wrap these with fmt.Errorf("...: %w", Err*) at the call
// site rather than constructing new values, so errors.Is keeps working.
var (
	// ErrTopicDoesNotExist is returned when an operation targets a topic
	// the cluster has no record of.
	ErrTopicDoesNotExist = errors.New("topic does not exist")

	// ErrTopicExists is returned internally during create when the topic
	// is already present; callers normally never see this, since create
	// recovers from it by treating the topic as already provisioned.
	ErrTopicExists = errors.New("topic already exists")

	// ErrUnsubscribedTopicPartition is returned when an operation is
	// attempted against a topic-partition the raw consumer was never
	// subscribed to.
	ErrUnsubscribedTopicPartition = errors.New("topic-partition is not subscribed")

	// ErrDeletionBusy is returned when a delete is requested for a topic
	// that already has a deletion in flight.
	ErrDeletionBusy = errors.New("topic deletion already in progress")
)

// TimeoutError reports that a retry cycle exhausted its deadline before the
// operation succeeded. It carries the elapsed duration and the last
// observed cause so callers can log a useful message without re-deriving
// either.
type TimeoutError struct {
	Op      string
	Elapsed time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: timed out after %s: %v", e.Op, e.Elapsed, e.Cause)
	}
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.Elapsed)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// NewTimeoutError builds a TimeoutError for operation op.
func NewTimeoutError(op string, elapsed time.Duration, cause error) error {
	return &TimeoutError{Op: op, Elapsed: elapsed, Cause: cause}
}

// Classify maps a raw error from the Kafka client into this package's
// taxonomy. Errors it does not recognize are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var kerrErr *kerr.Error
	if errors.As(err, &kerrErr) {
		switch kerrErr {
		case kerr.UnknownTopicOrPartition:
			return fmt.Errorf("%w: %v", ErrTopicDoesNotExist, err)
		case kerr.TopicAlreadyExists:
			return fmt.Errorf("%w: %v", ErrTopicExists, err)
		}
	}
	return err
}

// IsRetriable reports whether err represents a transient broker fault that
// is worth retrying: the Kafka protocol marked the error code retriable.
// Any other error, including a context deadline, reports false; a
// caller-level retry loop's own deadline accounts for those.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	var kerrErr *kerr.Error
	if errors.As(err, &kerrErr) {
		return kerrErr.Retriable
	}
	return false
}
