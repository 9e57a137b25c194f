package eventstream

import "errors"

// ErrNilTopicEvent indicates a nil topic event payload was provided to a publisher.
var ErrNilTopicEvent = errors.New("nil topic event")
