package playback

import (
	"fmt"
)

// ErrorType is the broad category an engine assigns to a failure.
type ErrorType int

const (
	ErrorTypeOther ErrorType = iota
	ErrorTypeNetwork
	ErrorTypeMedia
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeMedia:
		return "media"
	default:
		return "other"
	}
}

// ErrorDetail narrows an ErrorType to the operation that failed.
type ErrorDetail string

const (
	DetailManifestLoadError    ErrorDetail = "manifestLoadError"
	DetailManifestLoadTimeout  ErrorDetail = "manifestLoadTimeOut"
	DetailManifestParsingError ErrorDetail = "manifestParsingError"
	DetailLevelLoadError       ErrorDetail = "levelLoadError"
	DetailFragmentLoadError    ErrorDetail = "fragLoadError"
	DetailFragmentLoadTimeout  ErrorDetail = "fragLoadTimeOut"
	DetailBufferAppendError    ErrorDetail = "bufferAppendError"
	DetailBufferStalledError   ErrorDetail = "bufferStalledError"
	DetailInternalException    ErrorDetail = "internalException"
)

// EngineError is a failure reported by a playback engine. Fatal errors halt
// the engine unless the session recovers it.
type EngineError struct {
	Type   ErrorType
	Detail ErrorDetail
	Fatal  bool
	Err    error
}

func (e EngineError) Error() string {
	msg := fmt.Sprintf("%s error (%s)", e.Type, e.Detail)
	if e.Fatal {
		msg = "fatal " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e EngineError) Unwrap() error {
	return e.Err
}

// Class is the recovery policy chosen for an engine error.
type Class int

const (
	// ClassNetwork is recovered by restarting network loading.
	ClassNetwork Class = iota
	// ClassMedia is recovered by resetting the media pipeline.
	ClassMedia
	// ClassFatalUnrecoverable ends the session in the error state.
	ClassFatalUnrecoverable
)

func (c Class) String() string {
	switch c {
	case ClassNetwork:
		return "network"
	case ClassMedia:
		return "media"
	default:
		return "fatal"
	}
}

// Classify maps an engine error to a recovery class. The boolean reports
// whether the error is fatal; non-fatal errors need no action since the
// engine heals them itself.
//
// A network failure while loading the top-level manifest is unrecoverable:
// the origin is unreachable and reloading would only delay the error.
func Classify(e EngineError) (Class, bool) {
	switch {
	case e.Type == ErrorTypeNetwork && e.Detail == DetailManifestLoadError:
		return ClassFatalUnrecoverable, e.Fatal
	case e.Type == ErrorTypeNetwork:
		return ClassNetwork, e.Fatal
	case e.Type == ErrorTypeMedia:
		return ClassMedia, e.Fatal
	default:
		return ClassFatalUnrecoverable, e.Fatal
	}
}

// User-facing failure messages.
const (
	MessageLoadTimeout = "stream is taking too long to load, try another channel"
	MessageCannotReach = "cannot connect to stream, check connection or try another channel"
	MessageLoadFailed  = "failed to load stream, try another channel"
)

// UserMessage returns the message shown when e ends a session.
func UserMessage(e EngineError) string {
	if e.Type == ErrorTypeNetwork && e.Detail == DetailManifestLoadError {
		return MessageCannotReach
	}
	return MessageLoadFailed
}
