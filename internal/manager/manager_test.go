package manager_test

import (
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/manager"
	"github.com/parallelstone/mcserver-core/internal/metrics"
	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/session"
)

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(*session.Session, int32, *packetview.View) (session.Outcome, error) {
	return session.Continue(), nil
}

func newSession(t *testing.T, id string) *session.Session {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })
	return session.New(id, server, nopDispatcher{}, zap.NewNop(), session.DefaultOptions(), nil)
}

func TestAdmitEnforcesGlobalCap(t *testing.T) {
	limits := manager.DefaultLimits()
	limits.MaxSessions = 1
	limits.MaxPerIP = 10
	limits.SweepPeriod = time.Hour
	mgr := manager.New(zap.NewNop(), limits, nil)
	defer mgr.Stop()

	ok, _ := mgr.Admit("10.0.0.1")
	require.True(t, ok)

	s := newSession(t, "s1")
	mgr.Register(s)

	ok, reason := mgr.Admit("10.0.0.2")
	require.False(t, ok)
	require.Equal(t, "server_full", reason)
}

func TestAdmitEnforcesPerIPCap(t *testing.T) {
	limits := manager.DefaultLimits()
	limits.MaxSessions = 100
	limits.MaxPerIP = 1
	limits.SweepPeriod = time.Hour
	mgr := manager.New(zap.NewNop(), limits, nil)
	defer mgr.Stop()

	s := newSession(t, "s1")
	mgr.Register(s)

	// net.Pipe's RemoteAddr().String() is the fixed literal "pipe" (no
	// host:port to split), so ipOf("pipe") reduces to "pipe" itself; probe
	// the same bucket Register populated.
	ok, reason := mgr.Admit("pipe")
	require.False(t, ok)
	require.Equal(t, "per_ip_limit", reason)
}

func TestUnregisterFreesCapacity(t *testing.T) {
	limits := manager.DefaultLimits()
	limits.MaxSessions = 1
	limits.SweepPeriod = time.Hour
	mgr := manager.New(zap.NewNop(), limits, nil)
	defer mgr.Stop()

	s := newSession(t, "s1")
	mgr.Register(s)
	require.Equal(t, 1, mgr.Count())

	mgr.Unregister(s, session.ClientClose())
	require.Equal(t, 0, mgr.Count())

	ok, _ := mgr.Admit("10.0.0.9")
	require.True(t, ok)
}

func TestHeartbeatPopulatesStateGaugeAndTrafficCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	limits := manager.DefaultLimits()
	limits.SweepPeriod = 10 * time.Millisecond
	mgr := manager.New(zap.NewNop(), limits, m)
	defer mgr.Stop()

	client, server := net.Pipe()
	defer client.Close()
	s := session.New("s1", server, nopDispatcher{}, zap.NewNop(), session.DefaultOptions(), nil)
	go s.Run()
	mgr.Register(s)

	go func() { _, _ = client.Write([]byte{0x01, 0x00}) }()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.SessionsByState.WithLabelValues(s.State().String())) >= 1
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.BytesIn) > 0
	}, time.Second, 5*time.Millisecond)
}
