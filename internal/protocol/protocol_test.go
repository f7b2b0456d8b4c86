package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionResultCode(t *testing.T) {
	cases := []struct {
		name   string
		grants []int
		want   PermissionState
	}{
		{"granted", []int{PermissionGranted}, PermissionStateGranted},
		{"denied", []int{PermissionDenied}, PermissionStateDenied},
		{"only first result counts", []int{PermissionDenied, PermissionGranted}, PermissionStateDenied},
		{"cancelled prompt", nil, PermissionStateDenied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PermissionResultCode(tc.grants))
		})
	}
}

func TestPermissionState_WireValues(t *testing.T) {
	assert.Equal(t, 0, int(PermissionNotRequested))
	assert.Equal(t, 1, int(PermissionStateDenied))
	assert.Equal(t, 2, int(PermissionStateGranted))
	assert.Equal(t, "granted", PermissionStateGranted.String())
	assert.Equal(t, "not_requested", PermissionState(7).String())
}

func TestDataMap_BytesRoundTrip(t *testing.T) {
	in := PermissionPayload(PermissionStateGranted)
	b, err := in.Bytes()
	require.NoError(t, err)
	require.NotEmpty(t, b)

	out, err := ParseDataMap(b)
	require.NoError(t, err)
	v, ok := out.GetInt(PathPermission)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestDataMap_HeartRateFloat(t *testing.T) {
	b, err := HeartRatePayload(72.5).Bytes()
	require.NoError(t, err)

	out, err := ParseDataMap(b)
	require.NoError(t, err)
	v, ok := out.GetFloat(PathHeartRate)
	require.True(t, ok)
	assert.Equal(t, float32(72.5), v)
}

func TestDataMap_LastWriteWinsOnSharedKey(t *testing.T) {
	m := DataMap{}
	m.PutInt(PathPermission, int(PermissionStateDenied))
	m.PutInt(PathPermission, int(PermissionStateGranted))

	assert.Equal(t, []string{PathPermission}, m.Keys())
	v, _ := m.GetInt(PathPermission)
	assert.Equal(t, 2, v)
}

func TestDataMap_NilAndEmpty(t *testing.T) {
	var m DataMap
	b, err := m.Bytes()
	require.NoError(t, err)
	assert.Nil(t, b)

	out, err := ParseDataMap(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = ParseDataMap([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestDataMap_GetWrongType(t *testing.T) {
	m := DataMap{"k": "text", "f": 1.5}
	_, ok := m.GetInt("k")
	assert.False(t, ok)
	_, ok = m.GetInt("f")
	assert.False(t, ok)
	_, ok = m.GetFloat("missing")
	assert.False(t, ok)
}

func TestIsInbound(t *testing.T) {
	for _, p := range []string{PathStartActivity, PathStart, PathStop, PathFinish, PathAuthorize} {
		assert.True(t, IsInbound(p), p)
	}
	for _, p := range []string{PathStarted, PathStopped, PathPermission, PathHeartRate, "/other"} {
		assert.False(t, IsInbound(p), p)
	}
}
