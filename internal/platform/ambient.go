package platform

// AmbientCallback is notified when the display enters or leaves ambient mode.
type AmbientCallback interface {
	OnEnterAmbient(details map[string]any)
	OnExitAmbient()
}

// AmbientCallbackProvider is implemented by screens that support ambient mode.
type AmbientCallbackProvider interface {
	AmbientCallback() AmbientCallback
}
