package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/achapweske/silvernote/internal/config"
	"github.com/achapweske/silvernote/internal/logging"
	"github.com/achapweske/silvernote/internal/model"
	"github.com/achapweske/silvernote/internal/registry"
	"github.com/achapweske/silvernote/internal/store"
)

// session is an open repository plus the settings it was opened with.
type session struct {
	cfg   config.Config
	log   logging.Logger
	store *store.Store
	out   *OutputFormatter
}

// loadConfig resolves settings for cmd and builds the stderr logger.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (config.Config, logging.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, &ExitError{Code: ExitUsage, Kind: CodeUsage, Message: "load config", Err: err}
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return cfg, logging.NewText(cmd.ErrOrStderr(), level), nil
}

// backends lists the repository backends in the order they are probed.
func backends(log logging.Logger) *registry.Registry[*store.Store] {
	return registry.New[*store.Store](store.Probe{Logger: log})
}

// openSession opens the repository named by the resolved config.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, log, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	target := registry.Target{URI: cfg.StoreURI, User: cfg.User, Secret: cfg.Secret()}
	st, ok, err := backends(log).Open(ctx, target)
	if err != nil {
		return nil, wrapError("open repository", err)
	}
	if !ok {
		return nil, usageError("no backend for store %q", cfg.StoreURI)
	}
	log.Debug(ctx, "repository open", "store", cfg.StoreURI)

	return &session{cfg: cfg, log: log, store: st, out: opts.formatter(cmd)}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Error(context.Background(), "error closing repository", "error", err)
	}
}

// notebook returns id, or the selected notebook when id is unset.
func (s *session) notebook(ctx context.Context, id int64) (int64, error) {
	if id != model.InvalidID {
		return id, nil
	}
	selected, err := s.store.SelectedNotebook(ctx)
	if err != nil {
		return 0, wrapError("read selected notebook", err)
	}
	if selected == model.InvalidID {
		return 0, usageError("no notebook selected: pass --notebook or run 'notebook select'")
	}
	return selected, nil
}
