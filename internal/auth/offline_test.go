package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parallelstone/mcserver-core/internal/auth"
)

func TestValidateUsername(t *testing.T) {
	require.NoError(t, auth.ValidateUsername("Steve"))
	require.NoError(t, auth.ValidateUsername("a_b_c"))
	require.Error(t, auth.ValidateUsername("ab"))
	require.Error(t, auth.ValidateUsername("this_name_is_way_too_long"))
	require.Error(t, auth.ValidateUsername("bad name"))
	require.Error(t, auth.ValidateUsername("bad!"))
}

func TestOfflineUUIDIsDeterministicAndVersioned(t *testing.T) {
	u1 := auth.OfflineUUID("Steve")
	u2 := auth.OfflineUUID("Steve")
	require.Equal(t, u1, u2)

	g := u1.ToGoogleUUID()
	require.Equal(t, uint64(3), uint64(g.Version()))
	require.Equal(t, "RFC4122", g.Variant().String())

	other := auth.OfflineUUID("Alex")
	require.NotEqual(t, u1, other)
}
