package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"go.klb.dev/clipq/internal/capture"
	"go.klb.dev/clipq/internal/clip"
	"go.klb.dev/clipq/internal/crypto"
	"go.klb.dev/clipq/internal/dispatch"
	"go.klb.dev/clipq/internal/engine"
	"go.klb.dev/clipq/internal/ipc"
	"go.klb.dev/clipq/internal/logging"
	"go.klb.dev/clipq/internal/storage/bolt"
	"go.klb.dev/clipq/internal/storage/memory"
	"go.klb.dev/clipq/internal/storage/sqlite"
)

func newServerCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the clipq daemon (clipboard capture + control socket)",
		Long: `Starts the clipq daemon. It captures every new clipboard value into the
working queue, mirrors captures into the history database and answers the
other clipq commands on the control socket.

Preferences (max-queue-size, retention-days, skip-duplicates, history) are
re-read when the config file changes; the next operation sees the new value.

Config file search order:
  path supplied via --config, otherwise the first of
  <user config dir>/clipq/clipq.toml   (~/.config on Linux)
  /etc/clipq/clipq.toml

Precedence (lowest → highest): defaults → config file → CLIPQ_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runServer(v) },
	}

	dir := dataDir()
	def := engine.DefaultSettings()

	f := cmd.Flags()
	f.String("db", filepath.Join(dir, "history.db"), "history database (sqlite)")
	f.String("snapshot", filepath.Join(dir, "queue.db"), "working queue snapshot (bbolt)")
	f.String("image-dir", filepath.Join(dir, "images"), "directory for captured images")
	f.Int("max-queue-size", def.MaxQueueSize, "maximum number of queued items; the oldest is evicted")
	f.Int("retention-days", def.HistoryRetentionDays, "days to keep unpinned history entries (0 = forever)")
	f.Bool("skip-duplicates", def.SkipDuplicates, "ignore captures whose content is already queued")
	f.Bool("history", def.HistoryEnabled, "record captures into history")
	f.Bool("ephemeral", false, "keep queue, history and categories in memory only")
	f.Bool("no-capture", false, "do not watch the system clipboard (queue fed by 'clipq add' only)")
	f.Duration("poll-interval", clip.DefaultPollInterval, "clipboard poll interval")
	f.String("source-app", "", "source application recorded when the platform cannot tell")
	addCommonFlags(cmd, socketFlags|logFlags|daemonFlags)

	return cmd
}

func settingsFrom(v *viper.Viper) engine.Settings {
	return engine.Settings{
		MaxQueueSize:         v.GetInt("max-queue-size"),
		HistoryRetentionDays: v.GetInt("retention-days"),
		SkipDuplicates:       v.GetBool("skip-duplicates"),
		HistoryEnabled:       v.GetBool("history"),
	}
}

func runServer(v *viper.Viper) error {
	setupLogging(v, logging.Service)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	box, err := crypto.NewBox(v.GetString("token"))
	if err != nil {
		return err
	}
	noCapture := v.GetBool("no-capture")

	slog.Info("clipq server starting",
		"version", Version,
		"capture", !noCapture,
		"encrypted", box.Encrypted(),
	)

	cfg, closeStores, err := openStores(ctx, v)
	if err != nil {
		return err
	}
	defer closeStores()

	cfg.Settings = settingsFrom(v)
	eng := engine.New(cfg)
	watchSettings(v, eng)

	backend := clip.Headless()
	if !noCapture {
		backend = clip.New(v.GetDuration("poll-interval"))
	}
	peer := capture.New(backend, eng, capture.Options{
		ImageDir:  v.GetString("image-dir"),
		SourceApp: v.GetString("source-app"),
	})

	socket := v.GetString("socket")
	ln, err := ipc.Listen(socket)
	if err != nil {
		return fmt.Errorf("control socket %s: %w", socket, err)
	}
	slog.Info("control socket listening", "path", socket)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return dispatch.New(eng, peer, box).Serve(ctx, ln) })
	if !noCapture {
		g.Go(func() error { return peer.Run(ctx) })
	}

	err = g.Wait()
	_ = os.Remove(socket)
	if errors.Is(err, context.Canceled) {
		slog.Info("clipq server stopped")
		return nil
	}
	return err
}

// openStores opens the history database and queue snapshot, or in-memory
// stand-ins for both with --ephemeral.
func openStores(ctx context.Context, v *viper.Viper) (engine.Config, func(), error) {
	if v.GetBool("ephemeral") {
		m := memory.New()
		slog.Info("ephemeral mode: queue, history and categories kept in memory")
		return engine.Config{Snapshot: m, Records: m, Categories: m}, func() {}, nil
	}

	dbPath := v.GetString("db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return engine.Config{}, nil, fmt.Errorf("data dir: %w", err)
	}
	records, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return engine.Config{}, nil, err
	}
	snap, err := bolt.Open(v.GetString("snapshot"))
	if err != nil {
		_ = records.Close()
		return engine.Config{}, nil, err
	}
	slog.Info("stores opened", "history", dbPath, "snapshot", v.GetString("snapshot"))

	closeAll := func() {
		if err := snap.Close(); err != nil {
			slog.Warn("snapshot close failed", "err", err)
		}
		if err := records.Close(); err != nil {
			slog.Warn("history close failed", "err", err)
		}
	}
	return engine.Config{Snapshot: snap, Records: records, Categories: records}, closeAll, nil
}

// watchSettings republishes the preference snapshot whenever the config file
// changes. Without a config file there is nothing to watch.
func watchSettings(v *viper.Viper, eng *engine.Engine) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(ev fsnotify.Event) {
		slog.Debug("config changed", "file", ev.Name, "op", ev.Op.String())
		eng.UpdateSettings(settingsFrom(v))
	})
	v.WatchConfig()
}
