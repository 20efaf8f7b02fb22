package presence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"onyx/internal/realtime/models"
	"onyx/internal/realtime/registry"
	"onyx/pkg/domain"
)

type capturingPusher struct {
	frames []any
	accept bool
}

func (p *capturingPusher) Push(frame any) bool {
	if !p.accept {
		return false
	}
	p.frames = append(p.frames, frame)
	return true
}

func (p *capturingPusher) snapshots() []models.PresenceSnapshot {
	var out []models.PresenceSnapshot
	for _, f := range p.frames {
		if snap, ok := f.(models.PresenceSnapshot); ok {
			out = append(out, snap)
		}
	}
	return out
}

func TestConnectBroadcastsFullSnapshotToEveryone(t *testing.T) {
	reg := registry.New()
	New(reg)

	p1 := &capturingPusher{accept: true}
	reg.Register(domain.UserID("u1"), p1)

	p2 := &capturingPusher{accept: true}
	reg.Register(domain.UserID("u2"), p2)

	// u1 saw both broadcasts, u2 only the second.
	snaps1 := p1.snapshots()
	require.Len(t, snaps1, 2)
	require.ElementsMatch(t, []string{"u1"}, snaps1[0].OnlineUserIDs)
	require.ElementsMatch(t, []string{"u1", "u2"}, snaps1[1].OnlineUserIDs)

	snaps2 := p2.snapshots()
	require.Len(t, snaps2, 1)
	require.ElementsMatch(t, []string{"u1", "u2"}, snaps2[0].OnlineUserIDs)

	for _, snap := range append(snaps1, snaps2...) {
		require.Equal(t, models.FrameTypePresenceSnapshot, snap.Type)
	}
}

func TestDisconnectReannouncesRemainingSet(t *testing.T) {
	reg := registry.New()
	New(reg)

	p1 := &capturingPusher{accept: true}
	reg.Register(domain.UserID("u1"), p1)
	reg.Register(domain.UserID("u2"), &capturingPusher{accept: true})
	reg.Unregister(domain.UserID("u2"))

	snaps := p1.snapshots()
	require.Len(t, snaps, 3)
	require.ElementsMatch(t, []string{"u1"}, snaps[2].OnlineUserIDs)
}

func TestOnDemandSnapshotGoesToRequesterOnly(t *testing.T) {
	reg := registry.New()
	b := New(reg)

	p1 := &capturingPusher{accept: true}
	conn1, _ := reg.Register(domain.UserID("u1"), p1)
	p2 := &capturingPusher{accept: true}
	reg.Register(domain.UserID("u2"), p2)

	before1, before2 := len(p1.snapshots()), len(p2.snapshots())
	b.SendSnapshot(conn1)

	require.Len(t, p1.snapshots(), before1+1)
	require.Len(t, p2.snapshots(), before2, "no side effect on other connections")
}

func TestLaggingConnectionDoesNotBlockBroadcast(t *testing.T) {
	reg := registry.New()
	New(reg)

	lagging := &capturingPusher{accept: false}
	reg.Register(domain.UserID("u1"), lagging)

	healthy := &capturingPusher{accept: true}
	reg.Register(domain.UserID("u2"), healthy)

	require.Empty(t, lagging.snapshots())
	require.NotEmpty(t, healthy.snapshots())
}
