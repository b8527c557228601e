package adb

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/projecteru2/prebake/control"
)

// compile-time interface check.
var _ control.Channel = (*Client)(nil)

// Client talks to one emulator through the adb CLI, addressed by serial.
type Client struct {
	binary string
	serial string
}

// New returns a Client for the emulator listening on consolePort.
func New(binary string, consolePort int) *Client {
	return &Client{binary: binary, serial: Serial(consolePort)}
}

// Serial is the adb device serial of the emulator on consolePort.
func Serial(consolePort int) string { return "emulator-" + strconv.Itoa(consolePort) }

func (c *Client) GetProperty(ctx context.Context, name string) (string, error) {
	out, err := c.run(ctx, "shell", "getprop", name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RequestShutdownWithSnapshot issues "emu kill". With snapshot saving
// enabled the emulator writes default_boot before exiting.
func (c *Client) RequestShutdownWithSnapshot(ctx context.Context) error {
	_, err := c.run(ctx, "emu", "kill")
	return err
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-s", c.serial}, args...)
	cmd := exec.CommandContext(ctx, c.binary, full...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", c.binary, strings.Join(full, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
