package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcceleration(t *testing.T) {
	for in, want := range map[string]Acceleration{
		"software": AccelSoftware, "sw": AccelSoftware, "off": AccelSoftware,
		"hardware": AccelHardware, "hw": AccelHardware, "on": AccelHardware,
	} {
		got, err := ParseAcceleration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAcceleration("auto")
	assert.Error(t, err)
	_, err = ParseAcceleration("")
	assert.Error(t, err)
}

func TestEmulatorFlag(t *testing.T) {
	assert.Equal(t, "off", AccelSoftware.EmulatorFlag())
	assert.Equal(t, "on", AccelHardware.EmulatorFlag())
}
