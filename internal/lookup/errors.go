package lookup

import (
	"github.com/cockroachdb/errors"

	"github.com/dan1650/plates-bot/internal/session"
)

var (
	// ErrStorage marks connection or query failures against the registry.
	// They are reported to the user once and never retried.
	ErrStorage = errors.New("registry storage error")

	// ErrUnrecognized is returned when an unrecognized intent reaches the planner.
	ErrUnrecognized = errors.New("unrecognized query")

	// ErrSelectionExpired is returned when a selection token is no longer cached.
	ErrSelectionExpired = session.ErrSelectionExpired
)

func storageError(err error, op string) error {
	return errors.Mark(errors.Wrap(err, op), ErrStorage)
}
