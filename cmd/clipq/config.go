package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipq/internal/ipc"
	"go.klb.dev/clipq/internal/logging"
)

const envPrefix = "CLIPQ"

// flagGroup selects the shared flags a command carries. Every command gets
// --config.
type flagGroup uint8

const (
	socketFlags flagGroup = 1 << iota // --socket, --token
	logFlags                          // --log-format, --log-level
	daemonFlags                       // --no-background
)

func addCommonFlags(cmd *cobra.Command, groups flagGroup) {
	f := cmd.Flags()
	f.String("config", "", "path to config file (overrides auto-discovery)")
	if groups&socketFlags != 0 {
		f.String("socket", ipc.SocketPath(), "control socket path")
		f.String("token", "", "shared secret encrypting the control socket (empty = plaintext)")
	}
	if groups&logFlags != 0 {
		f.String("log-format", "auto", "log format: auto|text|json")
		f.String("log-level", "", "log level: debug|info|warn|error (default depends on how clipq runs)")
	}
	if groups&daemonFlags != 0 {
		f.Bool("no-background", false, "run interactively: tinted logs at debug level")
	}
}

// configDirs lists where clipq.toml is looked for, most specific last so
// that viper picks it first.
func configDirs() []string {
	dirs := []string{"/etc/clipq"}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "clipq"))
	}
	return dirs
}

// bindViper loads the config file and layers CLIPQ_* variables and the
// command's flags on top of it. Precedence, lowest first: flag defaults,
// config file, environment, flags set on the command line.
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("clipq")
		v.SetConfigType("toml")
		dirs := configDirs()
		for i := len(dirs) - 1; i >= 0; i-- {
			v.AddConfigPath(dirs[i])
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// setupLogging installs the logger for a command. The daemon logs at debug
// when run by hand; clients stay quiet unless asked.
func setupLogging(v *viper.Viper, mode logging.Mode) {
	if mode == logging.Service && (v.GetBool("no-background") || logging.IsTerminal(os.Stderr)) {
		mode = logging.Foreground
	}
	logging.Install(logging.Options{
		Mode:   mode,
		Format: v.GetString("log-format"),
		Level:  v.GetString("log-level"),
	})
}

// dataDir is where the daemon keeps its databases and captured images.
func dataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "clipq")
	}
	return filepath.Join(os.TempDir(), "clipq")
}
