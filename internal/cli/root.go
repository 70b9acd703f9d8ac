package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lockview/lockview/pkg/buildinfo"
	"github.com/lockview/lockview/pkg/cache"
	"github.com/lockview/lockview/pkg/lockfile"
	"github.com/lockview/lockview/pkg/markers"
)

// appName is the application name used for directories and display.
const appName = "lockview"

// Execute runs the lockview CLI and returns an error if any command fails.
//
// The root command wires up logging (--verbose switches to debug level),
// loads .lockview.yaml from the working directory upward, and attaches
// both to the command context for subcommands to pick up.
func Execute(ctx context.Context) error {
	var verbose bool
	var lockfilePath string

	root := &cobra.Command{
		Use:          appName,
		Short:        "lockview inspects uv.lock files",
		Long: `lockview is a toolkit for uv.lock files: show the locked package set,
validate internal consistency, verify artifact hashes, run installer-style
artifact selection for a target platform, export the dependency graph,
and audit pins against PyPI.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cwd)
			if err != nil {
				return err
			}
			if lockfilePath != "" {
				cfg.Lockfile = lockfilePath
			}
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&lockfilePath, "lockfile", "l", "", "path to the lockfile (default: discover uv.lock upward)")

	root.AddCommand(newShowCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newSelectCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newAuditCmd())
	root.AddCommand(newBrowseCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}

// openLockfile loads the lockfile named by flag/config, or discovers
// uv.lock from the working directory upward.
func openLockfile(ctx context.Context) (*lockfile.Lockfile, string, error) {
	cfg := configFromContext(ctx)

	path := cfg.Lockfile
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		path, err = lockfile.Find(cwd)
		if err != nil {
			return nil, "", err
		}
	}

	lf, err := lockfile.Load(path)
	if err != nil {
		return nil, "", err
	}
	loggerFromContext(ctx).Debug("loaded lockfile", "path", path, "packages", len(lf.Packages))
	return lf, path, nil
}

// envFlags holds the target-environment flags shared by select and graph.
type envFlags struct {
	platform string
	machine  string
	python   string
}

func (f *envFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.platform, "platform", "", "target sys_platform (linux, darwin, win32)")
	cmd.Flags().StringVar(&f.machine, "machine", "", "target platform_machine (x86_64, arm64, ...)")
	cmd.Flags().StringVar(&f.python, "python", "", "target python version (e.g. 3.12)")
}

// environment resolves flags against config defaults.
func (f *envFlags) environment(cfg *Config) markers.Environment {
	platform := f.platform
	if platform == "" {
		platform = cfg.Platform
	}
	machine := f.machine
	if machine == "" {
		machine = cfg.Machine
	}
	python := f.python
	if python == "" {
		python = cfg.Python
	}
	return markers.NewEnvironment(platform, machine, python)
}

// set reports whether any environment flag was given explicitly.
func (f *envFlags) set() bool {
	return f.platform != "" || f.machine != "" || f.python != ""
}

// newCacheBackend builds the response cache: Redis when configured,
// otherwise a file cache, degrading to no caching when unavailable.
func newCacheBackend(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx)

	if cfg.Redis.Addr != "" {
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err == nil {
			return c
		}
		logger.Warn("redis cache unavailable, falling back to file cache", "err", err)
	}

	dir, err := resolveCacheDir(cfg)
	if err != nil {
		return cache.NewNullCache()
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Warn("file cache unavailable, caching disabled", "err", err)
		return cache.NewNullCache()
	}
	return c
}
