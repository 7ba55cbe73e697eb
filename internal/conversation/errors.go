package conversation

import "errors"

// ErrChannelRequired is returned when a window operation has no channel id.
var ErrChannelRequired = errors.New("channel id is required")
