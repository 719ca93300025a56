package bumper

import (
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnsupportedOption is returned by a Registrar that cannot honor the
// listener options.
var ErrUnsupportedOption = eris.New("bumper: unsupported listener option")

// ListenerOptions are hints for event registration.
type ListenerOptions struct {
	Passive bool
	Capture bool
}

// Registrar subscribes handlers to host UI events.
type Registrar interface {
	Register(event string, opts *ListenerOptions, handler func(Event)) error
}

// Event is a host UI event delivered through a Registrar.
type Event struct {
	Type     string
	X, Y     float64
	Viewport Viewport
	Browser  Browser
}

// register subscribes handler with opts, retrying without options when the
// host rejects them. Failures are logged and never returned: a missing
// listener only means fewer signals.
func register(r Registrar, event string, opts *ListenerOptions, handler func(Event)) bool {
	err := r.Register(event, opts, handler)
	if err == nil {
		return true
	}
	if opts != nil && errors.Is(err, ErrUnsupportedOption) {
		zap.L().Debug("bumper: listener options unsupported, registering without", zap.String("event", event))
		if err = r.Register(event, nil, handler); err == nil {
			return true
		}
	}
	zap.L().Warn("bumper: register listener", zap.String("event", event), zap.Error(err))
	return false
}
