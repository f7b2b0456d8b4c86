package protocol

// PermissionsRequestCode identifies the body-sensor permission prompt.
const PermissionsRequestCode = 66

// PermissionBodySensors is the permission guarding heart-rate access.
const PermissionBodySensors = "android.permission.BODY_SENSORS"

// Grant results reported by a permission prompt.
const (
	PermissionGranted = 0
	PermissionDenied  = -1
)

// PermissionState is the outcome of a permission check as sent on the wire.
type PermissionState int

const (
	PermissionNotRequested PermissionState = 0
	PermissionStateDenied  PermissionState = 1
	PermissionStateGranted PermissionState = 2
)

func (s PermissionState) String() string {
	switch s {
	case PermissionStateGranted:
		return "granted"
	case PermissionStateDenied:
		return "denied"
	default:
		return "not_requested"
	}
}

// PermissionResultCode encodes the first grant result of a prompt.
// An empty result (cancelled prompt) counts as denied.
func PermissionResultCode(grantResults []int) PermissionState {
	if len(grantResults) > 0 && grantResults[0] == PermissionGranted {
		return PermissionStateGranted
	}
	return PermissionStateDenied
}

// PermissionPayload builds the /permission payload. The path literal doubles
// as the map key, so a second put on the same map replaces the first.
func PermissionPayload(state PermissionState) DataMap {
	m := DataMap{}
	m.PutInt(PathPermission, int(state))
	return m
}

// HeartRatePayload builds the /heart-rate data item payload.
func HeartRatePayload(bpm float32) DataMap {
	m := DataMap{}
	m.PutFloat(PathHeartRate, bpm)
	return m
}
