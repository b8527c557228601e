package bake

import "github.com/spf13/cobra"

// Actions defines snapshot build and consumer-side operations.
type Actions interface {
	Bake(cmd *cobra.Command, args []string) error
	Check(cmd *cobra.Command, args []string) error
	Inspect(cmd *cobra.Command, args []string) error
}

// Commands builds the bake command set.
func Commands(h Actions) []*cobra.Command {
	bakeCmd := &cobra.Command{
		Use:   "bake",
		Short: "Boot the emulator, snapshot it, verify the snapshot and write the sentinel",
		Args:  cobra.NoArgs,
		RunE:  h.Bake,
	}
	addBakeFlags(bakeCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Exit 0 if the instance is prebaked (sentinel present)",
		Args:  cobra.NoArgs,
		RunE:  h.Check,
	}
	checkCmd.Flags().Bool("verify-snapshot", false, "also require the snapshot directory to exist")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the sentinel",
		Args:  cobra.NoArgs,
		RunE:  h.Inspect,
	}
	inspectCmd.Flags().StringP("output", "o", "json", "output format: json or yaml")

	return []*cobra.Command{bakeCmd, checkCmd, inspectCmd}
}

func addBakeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("api-level", 0, "Android API level of the system image")
	cmd.Flags().String("system-image-ref", "", "sdkmanager package, e.g. system-images;android-34;default;x86_64")
	cmd.Flags().String("arch", "", "guest ABI recorded in the sentinel (default host ABI)")
	cmd.Flags().String("accel", "", "acceleration mode of the resume environment: software or hardware")
	cmd.Flags().Int("boot-timeout", 0, "boot timeout in seconds (default 900 software, 300 hardware)")
	cmd.Flags().Int("poll-interval", 0, "readiness poll interval in seconds")
	cmd.Flags().Int("max-query-errors", 0, "fail after this many consecutive control channel errors (0 = never)")
	cmd.Flags().String("memory", "", "guest memory ceiling, e.g. 4G")
	cmd.Flags().String("partition-size", "", "data partition size, e.g. 8G")
	cmd.Flags().Int("console-port", 0, "emulator console port (even, 5554-5682)")
	cmd.Flags().Bool("dry-run", false, "print the emulator command line and exit")

	for flag, key := range map[string]string{
		"api-level":        "api_level",
		"system-image-ref": "system_image_ref",
		"arch":             "arch",
		"accel":            "acceleration",
		"boot-timeout":     "boot_timeout_seconds",
		"poll-interval":    "poll_interval_seconds",
		"max-query-errors": "max_query_errors",
		"memory":           "memory",
		"partition-size":   "partition_size",
		"console-port":     "console_port",
	} {
		_ = bindFlag(cmd, flag, key)
	}
}
