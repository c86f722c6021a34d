// Package process terminates browser process trees left behind by a crashed
// or abandoned Chrome instance.
package process

import "errors"

// ErrInvalidPID rejects pids that would target init or the caller's own group.
var ErrInvalidPID = errors.New("invalid browser pid")
