package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdbake "github.com/projecteru2/prebake/cmd/bake"
	cmdcore "github.com/projecteru2/prebake/cmd/core"
	cmdothers "github.com/projecteru2/prebake/cmd/others"
	"github.com/projecteru2/prebake/config"
)

var (
	cfgFile string
	envFile string
	conf    *config.Config
)

var rootCmd = newRootCmd()

// newRootCmd builds the command tree and binds its flags and the PREBAKE_
// environment into the global viper instance.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "prebake",
		Short:         "Prebake - build and verify pre-warmed emulator snapshots",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmdcore.CommandContext(cmd))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "KEY=VALUE file loaded into the environment before config")
	cmd.PersistentFlags().String("instance-root", "", "base storage path (sentinel, logs, locks)")
	cmd.PersistentFlags().String("instance-avd-home", "", "AVD storage root (default {instance-root}/avd)")
	cmd.PersistentFlags().String("instance-id", "", "AVD name of the instance")

	_ = viper.BindPFlag("instance_root", cmd.PersistentFlags().Lookup("instance-root"))
	_ = viper.BindPFlag("instance_avd_home", cmd.PersistentFlags().Lookup("instance-avd-home"))
	_ = viper.BindPFlag("instance_id", cmd.PersistentFlags().Lookup("instance-id"))

	viper.SetEnvPrefix("PREBAKE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	confProvider := func() *config.Config { return conf }

	for _, c := range cmdbake.Commands(cmdbake.Handler{BaseHandler: cmdcore.BaseHandler{ConfProvider: confProvider}}) {
		cmd.AddCommand(c)
	}
	for _, c := range cmdothers.Commands(cmdothers.Handler{}) {
		cmd.AddCommand(c)
	}

	return cmd
}

func initConfig(ctx context.Context) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	conf = config.DefaultConfig()
	if err := registerDefaults(conf); err != nil {
		return err
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := viper.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	conf.Normalize()

	return log.SetupLog(ctx, &conf.Log, "")
}

// registerDefaults declares every config key to viper. AutomaticEnv only
// resolves keys viper already knows about.
func registerDefaults(c *config.Config) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	delete(m, "log")
	for k, v := range m {
		viper.SetDefault(k, v)
	}
	viper.SetDefault("log.level", c.Log.Level)
	viper.SetDefault("log.filename", c.Log.Filename)
	return nil
}

func newCommandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
