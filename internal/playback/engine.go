package playback

// Engine is an adaptive streaming client. Load starts fetching the manifest
// asynchronously; progress and failures arrive through EngineEvents.
type Engine interface {
	Load(url string) error
	// StartLoad restarts network loading after a recoverable network error.
	StartLoad()
	// RecoverMediaError resets the media pipeline and keeps the network
	// session.
	RecoverMediaError()
	// Destroy releases the engine and its upstream connection. The engine
	// is not used again afterwards.
	Destroy()
}

// EngineEvents receives engine callbacks. Implementations may be called
// from any goroutine.
type EngineEvents interface {
	ManifestParsed()
	Error(err EngineError)
}

// EngineFactory creates an engine reporting to events.
type EngineFactory func(events EngineEvents) Engine
