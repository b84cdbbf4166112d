package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/carthage-erp/carthage-erp/internal/testing/guard"
)

func TestInTestModeUnderGoTest(t *testing.T) {
	// The guard import sets CARTHAGE_TEST_MODE before this package loads.
	RefreshTestMode()
	require.True(t, InTestMode())
}

func TestRefreshTestModeTracksEnv(t *testing.T) {
	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())
}
