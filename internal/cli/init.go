package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Protect bool
}

// RepositoryInfo describes an opened repository.
type RepositoryInfo struct {
	UUID      string `json:"uuid"`
	Version   int    `json:"version"`
	User      string `json:"user,omitempty"`
	Protected bool   `json:"protected"`
}

func (r RepositoryInfo) Text() string {
	return fmt.Sprintf("repository %s (schema version %d, user %q, protected %t)\n",
		r.UUID, r.Version, r.User, r.Protected)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade a repository",
		Long: `Create the repository named by --store, or bring an existing one up to
the current schema version.

With --protect the secret from the environment variable named by the
secret_env setting (SILVERNOTE_SECRET by default) is installed; later
commands must supply the same secret.

Examples:
  silvernote init --store sqlite://notes.db
  SILVERNOTE_SECRET=hunter2 silvernote init --store sqlite://notes.db --protect`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Protect, "protect", false, "install the secret from the environment")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	secret := s.cfg.Secret()
	if opts.Protect {
		if secret == "" {
			return usageError("--protect needs a secret in $%s", s.cfg.SecretEnv)
		}
		if err := s.store.SetSecret(ctx, secret); err != nil {
			return wrapError("install secret", err)
		}
		s.log.Info(ctx, "repository secret installed")
	}

	repo, err := s.store.GetRepository(ctx)
	if err != nil {
		return wrapError("read repository", err)
	}
	protected, err := s.store.Protected(ctx)
	if err != nil {
		return wrapError("read repository", err)
	}
	return s.out.Success(RepositoryInfo{
		UUID:      repo.UUID,
		Version:   repo.Version,
		User:      repo.UserID,
		Protected: protected,
	})
}
