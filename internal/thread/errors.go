package thread

import "errors"

// ErrKeysExhausted is returned by NewKey when the registry already holds the
// maximum number of live keys.
var ErrKeysExhausted = errors.New("thread keys exhausted")
