package topicmgr

import (
	"github.com/flowbase-io/topicmgr/tmerrors"
)

// Re-exported so callers never need to import tmerrors directly; the
// taxonomy lives in its own package only to avoid an import cycle between
// this package and the component packages that also need to produce these
// errors.
var (
	ErrTopicDoesNotExist          = tmerrors.ErrTopicDoesNotExist
	ErrTopicExists                = tmerrors.ErrTopicExists
	ErrUnsubscribedTopicPartition = tmerrors.ErrUnsubscribedTopicPartition
	ErrDeletionBusy               = tmerrors.ErrDeletionBusy
)

// TimeoutError reports that a retry cycle exhausted its deadline. This is
// the port's rendition of the source system's
// VeniceOperationAgainstKafkaTimedOut: a deadline-exhaustion error carrying
// the elapsed duration and the last observed cause.
type TimeoutError = tmerrors.TimeoutError

// IsRetriable reports whether err represents a transient broker fault.
func IsRetriable(err error) bool { return tmerrors.IsRetriable(err) }
