package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"repomatch/internal/analytics"
	"repomatch/internal/api"
	"repomatch/internal/cmdlog"
	"repomatch/internal/config"
	"repomatch/internal/ghclient"
	"repomatch/internal/logging"
	"repomatch/internal/recommend"
	"repomatch/internal/store/sqlitecache"
	"repomatch/internal/theme"
)

const annotationSkipConfig = "skipConfig"

// recentWindow marks owned repositories as recently active in summaries.
const recentWindow = 90 * 24 * time.Hour

func newInitCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("init", func() error {
				if err := config.Save(path, config.Default()); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				abs, _ := filepath.Abs(path)
				theme.PrintBanner(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), "Config written to:", abs)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "path", config.DefaultConfigPath, "path to write config")
	return cmd
}

func newRecommendCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "recommend [login]",
		Short: "Recommend repositories and developers for a GitHub account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("recommend", func() error {
				login, err := a.login(args)
				if err != nil {
					return err
				}
				engine, closeFn, err := a.engine()
				if err != nil {
					return err
				}
				defer closeFn()

				rep, err := engine.Recommend(cmd.Context(), login)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd, rep)
				}
				printReport(cmd.OutOrStdout(), rep)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newKeywordsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "keywords [login]",
		Short: "Show the interest keywords and profile summary of an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("keywords", func() error {
				login, err := a.login(args)
				if err != nil {
					return err
				}
				engine, closeFn, err := a.engine()
				if err != nil {
					return err
				}
				defer closeFn()

				p, err := engine.Profile(cmd.Context(), login)
				if err != nil {
					return err
				}
				keywords := recommend.ExtractKeywords(p, engine.Options().Keywords)
				if keywords == nil {
					keywords = []string{}
				}
				resp := api.KeywordsResponse{
					Login:    p.Login,
					Keywords: keywords,
					Summary:  analytics.Summarize(p, time.Now(), recentWindow),
				}
				if asJSON {
					return printJSON(cmd, resp)
				}
				printKeywords(cmd.OutOrStdout(), resp, p.Repos)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print keywords and summary as JSON")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("serve", func() error {
				engine, closeFn, err := a.engine()
				if err != nil {
					return err
				}
				defer closeFn()

				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				srv := &http.Server{
					Addr:         a.cfg.Server.Addr,
					Handler: api.NewHandler(engine, api.Config{
						RateLimitRequests:  a.cfg.Server.RateLimitRequests,
						RateLimitWindow:    a.cfg.Server.RateLimitWindow,
						CORSAllowedOrigins: a.cfg.Server.CORSOrigins,
					}),
					ReadTimeout:  a.cfg.Server.ReadTimeout,
					WriteTimeout: a.cfg.Server.WriteTimeout,
					BaseContext: func(_ net.Listener) context.Context {
						return ctx
					},
				}

				errCh := make(chan error, 1)
				go func() {
					logging.Info("server_listening", map[string]any{"addr": srv.Addr})
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
					close(errCh)
				}()

				select {
				case <-ctx.Done():
					logging.Info("server_shutdown", nil)
				case err := <-errCh:
					if err != nil {
						return fmt.Errorf("server error: %w", err)
					}
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		},
	}
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or prune the GitHub response cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show the number of cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("cache_stats", func() error {
				db, err := a.openCache()
				if err != nil {
					return err
				}
				defer db.Close()
				n, err := db.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d cached responses in %s\n", n, a.cfg.Storage.DBPath)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete responses older than storage.cacheTTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("cache_purge", func() error {
				db, err := a.openCache()
				if err != nil {
					return err
				}
				defer db.Close()
				n, err := db.Purge(cmd.Context(), time.Now().Add(-a.cfg.Storage.CacheTTL))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d responses\n", n)
				return nil
			})
		},
	})
	return cmd
}

// login returns the positional login or the configured default.
func (a *app) login(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if a.cfg.Account.Login != "" {
		return a.cfg.Account.Login, nil
	}
	return "", errors.New("no login given and account.login is not set")
}

func (a *app) openCache() (*sqlitecache.DB, error) {
	if a.cfg.Storage.DBPath == "" {
		return nil, errors.New("storage.dbPath is not set")
	}
	db, err := sqlitecache.Open(a.cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return db, nil
}

// engine builds the GitHub client, with the response cache when configured,
// and the recommendation engine on top of it. closeFn releases the cache.
func (a *app) engine() (*recommend.Engine, func(), error) {
	if a.cfg.GitHub.Token == "" {
		logging.Warn("github_token_missing", map[string]any{"hint": "set GITHUB_TOKEN; unauthenticated search is heavily rate limited"})
	}
	client := ghclient.New(a.cfg.GitHub)
	closeFn := func() {}
	if a.cfg.Storage.DBPath != "" {
		db, err := a.openCache()
		if err != nil {
			return nil, nil, err
		}
		client = client.WithCache(db, a.cfg.Storage.CacheTTL)
		closeFn = func() { _ = db.Close() }
	}
	return recommend.NewEngine(client, a.cfg.Options()), closeFn, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
