package notifier

import "errors"

// ErrInvalidEvent — в событии нет user_id или flow_id.
var ErrInvalidEvent = errors.New("invalid progress event")
