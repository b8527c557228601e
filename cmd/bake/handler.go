package bake

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	cmdcore "github.com/projecteru2/prebake/cmd/core"
	"github.com/projecteru2/prebake/control/adb"
	"github.com/projecteru2/prebake/emulator"
	"github.com/projecteru2/prebake/sentinel"
	"github.com/projecteru2/prebake/supervisor"
)

type Handler struct {
	cmdcore.BaseHandler
}

func bindFlag(cmd *cobra.Command, flag, key string) error {
	return viper.BindPFlag(key, cmd.Flags().Lookup(flag))
}

func (h Handler) Bake(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		opts, err := emulator.NewOptions(conf)
		if err != nil {
			return err
		}
		fmt.Printf("ANDROID_AVD_HOME=%s %s %s\n", opts.AVDHome, opts.Binary, strings.Join(opts.Args(), " "))
		return nil
	}

	logger := log.WithFunc("cmd.bake")
	runID := uuid.NewString()
	accel, _ := conf.Accel()
	logger.Infof(ctx, "bake %s: instance %s, api %d, image %s, accel %s, timeout %s",
		runID, conf.InstanceID, conf.APILevel, conf.SystemImageRef, accel, conf.BootTimeout())

	p := supervisor.New(conf, adb.New(conf.ADBBinary, conf.ConsolePort))
	res, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("bake %s: %w", conf.InstanceID, err)
	}
	logger.Infof(ctx, "bake %s done: booted in %s over %d polls, clean exit %t",
		runID, res.BootDuration.Round(time.Second), res.Polls, res.CleanExit)
	return nil
}

func (h Handler) Check(cmd *cobra.Command, _ []string) error {
	_, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	if !sentinel.Exists(conf.SentinelPath()) {
		return fmt.Errorf("%s: %w", conf.SentinelPath(), sentinel.ErrNotFound)
	}
	if verify, _ := cmd.Flags().GetBool("verify-snapshot"); verify {
		rec, err := sentinel.Read(conf.SentinelPath())
		if err != nil {
			return err
		}
		c := *conf
		c.InstanceID = rec.InstanceID
		if err := supervisor.VerifySnapshot(c.SnapshotDir()); err != nil {
			return err
		}
	}
	fmt.Println("prebaked")
	return nil
}

func (h Handler) Inspect(cmd *cobra.Command, _ []string) error {
	_, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	rec, err := sentinel.Read(conf.SentinelPath())
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(rec)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
