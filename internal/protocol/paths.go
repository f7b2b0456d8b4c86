package protocol

// Message paths. Inbound paths are sent by the handheld, outbound by the watch.
const (
	PathStartActivity = "/start-activity" // in, background listener
	PathStart         = "/start"          // in
	PathStarted       = "/started"        // out
	PathStop          = "/stop"           // in
	PathStopped       = "/stopped"        // out
	PathFinish        = "/finish"         // in
	PathAuthorize     = "/authorize"      // in, authorize revision only
	PathPermission    = "/permission"     // out, int payload
	PathHeartRate     = "/heart-rate"     // data item, float payload
)

// IsInbound reports whether path is one the handheld may send to the watch.
func IsInbound(path string) bool {
	switch path {
	case PathStartActivity, PathStart, PathStop, PathFinish, PathAuthorize:
		return true
	}
	return false
}
