package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/projecteru2/prebake/supervisor"
)

func TestPrintErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errors.New("invalid config: instance_id is required"))
	assert.Equal(t, "Error: invalid config: instance_id is required\n", buf.String())
}

func TestPrintErrorDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	f := &supervisor.Failure{
		Kind:        supervisor.ErrBootTimeout,
		Message:     "guest not ready after 15m0s",
		Diagnostics: []string{"last 1 lines of emulator.log:", "INFO: waiting for adb"},
	}
	PrintError(&buf, fmt.Errorf("bake demo34: %w", f))

	out := buf.String()
	rule := strings.Repeat("-", defaultRuleWidth)
	assert.True(t, strings.HasPrefix(out, "Error: bake demo34: boot timeout: guest not ready after 15m0s\n"+rule+"\n"))
	assert.Contains(t, out, "INFO: waiting for adb\n"+rule+"\n")
}
