package service

import (
	"context"
	"testing"
	"time"

	"wear_relay/internal/models"
	"wear_relay/internal/permission"
	"wear_relay/internal/protocol"
	"wear_relay/internal/repository"
	"wear_relay/internal/repository/db"
	"wear_relay/internal/sensor"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RelayFlow(t *testing.T) {
	conn, err := db.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewFakeClock()
	sensors := sensor.NewManager(sensor.NewSimulator(clock, 3), nil)
	t.Cleanup(sensors.Close)
	perms := permission.NewStore(permission.PolicyPrompt, nil)
	tr := &fakeTransport{nodes: []models.Node{{ID: "far"}, {ID: "phone", Nearby: true}}}

	svc := NewService(ctx, repository.NewRepository(conn), Config{
		Auth: AuthConfig{SigningKey: "k"},
	}, Deps{
		Transport:   tr,
		Sensors:     sensors,
		Permissions: perms,
		Clock:       clock,
	})

	// background listener opens the screen
	_, err = svc.Status()
	require.ErrorIs(t, err, ErrNoScreen)
	tr.deliver(protocol.PathStartActivity)
	st, err := svc.Status()
	require.NoError(t, err)
	assert.True(t, st.Created)
	assert.Equal(t, RevisionAuthorize, st.Revision)

	// start button prompts, the answer is relayed
	require.NoError(t, svc.PressStart())
	require.NoError(t, svc.Answer(protocol.PermissionsRequestCode, true))
	c, ok := svc.host.Current()
	require.True(t, ok)
	c.Wait()
	msg, ok := tr.lastSent()
	require.True(t, ok)
	assert.Equal(t, "phone", msg.nodeID)
	assert.Equal(t, protocol.PathPermission, msg.path)

	// the second press streams readings into the data-sync store
	require.NoError(t, svc.PressStart())
	c.Wait()
	assert.True(t, sensors.Active())

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(200 * time.Millisecond)

	require.Eventually(t, func() bool {
		_, err := svc.DataItems.Get(ctx, protocol.PathHeartRate)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	item, err := svc.DataItems.Get(ctx, protocol.PathHeartRate)
	require.NoError(t, err)
	bpm, ok := protocol.DataMap(item.Values).GetFloat(protocol.PathHeartRate)
	require.True(t, ok)
	assert.GreaterOrEqual(t, bpm, float32(sensor.MinBPM))

	// stop from the handheld
	tr.deliver(protocol.PathStop)
	c.Wait()
	assert.False(t, sensors.Active())
	assert.Equal(t, []string{protocol.PathPermission, protocol.PathStarted, protocol.PathStopped}, tr.sentPaths())

	svc.Close()
	_, err = svc.Status()
	assert.ErrorIs(t, err, ErrNoScreen)

	events, err := svc.List(ctx, LogFilter{})
	require.NoError(t, err)
	types := make(map[string]int)
	for _, e := range events {
		types[e.Type]++
	}
	assert.Equal(t, 1, types[models.EventLaunch])
	assert.Equal(t, 1, types[models.EventPermission])
	assert.Equal(t, 3, types[models.EventSend])
	assert.Equal(t, 1, types[models.EventCommand])
	assert.Equal(t, 1, types[models.EventFinish])
}
