package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/smallbiznis/zyra/internal/dashsync"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type rootOptions struct {
	server      string
	sessionFile string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "zyractl",
		Short:         "Command line client for the Zyra merchant dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", envOr("ZYRA_SERVER", "http://localhost:8080"), "Dashboard API base URL")
	cmd.PersistentFlags().StringVar(&opts.sessionFile, "session-file", defaultSessionFile(), "Where the session token is stored")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newLoginCmd(opts),
		newWatchCmd(opts),
		newTrackCmd(opts),
		newLogCmd(opts),
		newUsageCmd(opts),
		newOptimizeAllCmd(opts),
	)
	return cmd
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := dashsync.NewClient(opts.server)
			if err != nil {
				return err
			}
			if err := client.Login(cmd.Context(), email, password); err != nil {
				if dashsync.IsUnauthorized(err) {
					return errors.New("invalid email or password")
				}
				return err
			}
			if err := saveSession(opts.sessionFile, client.SessionToken()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged in")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the dashboard and print every refresh",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				interval = dashsync.DefaultPollInterval
			}
			log := newLogger(opts.verbose)
			defer func() { _ = log.Sync() }()

			client, err := opts.client()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			syncer := dashsync.NewSyncer(client, dashsync.Config{PollInterval: interval, Log: log})
			observer := dashsync.NewOnlineObserver(client, interval, log)
			out := cmd.OutOrStdout()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				syncer.Run(ctx)
				return nil
			})
			g.Go(func() error {
				observer.Run(ctx)
				return nil
			})
			g.Go(func() error {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case online := <-observer.Changes():
						if online {
							fmt.Fprintln(out, "connection restored")
						} else {
							fmt.Fprintln(out, "server unreachable")
						}
					case actionErr := <-syncer.Errors():
						fmt.Fprintf(out, "%s failed: %v\n", actionErr.Action, actionErr.Err)
					case <-ticker.C:
						if snap, ok := syncer.Snapshot(); ok {
							printSnapshot(out, snap)
						}
					}
				}
			})
			return g.Wait()
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", dashsync.DefaultPollInterval, "Polling interval")
	return cmd
}

func newTrackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "track <tool>",
		Short: "Record a tool access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			syncer, err := opts.syncer()
			if err != nil {
				return err
			}
			if err := syncer.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := syncer.TrackToolAccess(cmd.Context(), args[0]); err != nil {
				return err
			}
			snap, _ := syncer.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "%s accessed %d times\n", args[0], snap.ToolCount(args[0]))
			return nil
		},
	}
}

func newLogCmd(opts *rootOptions) *cobra.Command {
	var (
		tool string
		meta map[string]string
	)
	cmd := &cobra.Command{
		Use:   "log <action> <description>",
		Short: "Record an activity entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			req := dashsync.LogActivityRequest{Action: args[0], Description: args[1], ToolUsed: tool}
			if len(meta) > 0 {
				req.Metadata = make(map[string]any, len(meta))
				for k, v := range meta {
					req.Metadata[k] = v
				}
			}
			if err := client.LogActivity(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "activity recorded")
			return nil
		},
	}
	cmd.Flags().StringVar(&tool, "tool", "", "Tool the activity belongs to")
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "Metadata as key=value pairs")
	return cmd
}

func newUsageCmd(opts *rootOptions) *cobra.Command {
	var increment int64
	cmd := &cobra.Command{
		Use:   "usage <field>",
		Short: "Increment a usage counter such as emailsSent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			if err := client.UpdateUsage(cmd.Context(), args[0], increment); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s incremented by %d\n", args[0], increment)
			return nil
		},
	}
	cmd.Flags().Int64Var(&increment, "increment", 1, "Amount to add")
	return cmd
}

func newOptimizeAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize-all",
		Short: "Optimize every product and remove duplicates",
		Long: "Optimize every product and remove duplicates.\n\n" +
			"Runs are at least two seconds apart. The last run time is kept next to\n" +
			"the session file so the gap also holds across separate invocations.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			syncer, err := opts.syncer()
			if err != nil {
				return err
			}
			stamp := opts.sessionFile + ".optimize-all"
			syncer.SeedDebounce(loadStamp(stamp))

			res, err := syncer.OptimizeAll(cmd.Context())
			if last, ok := syncer.LastOptimize(); ok {
				_ = saveStamp(stamp, last)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "optimized %d products, removed %d duplicates\n", res.Optimized, res.DuplicatesRemoved)
			return nil
		},
	}
}

func (o *rootOptions) client() (*dashsync.Client, error) {
	token, err := loadSession(o.sessionFile)
	if err != nil {
		return nil, err
	}
	client, err := dashsync.NewClient(o.server)
	if err != nil {
		return nil, err
	}
	client.SetSessionToken(token)
	return client, nil
}

func (o *rootOptions) syncer() (*dashsync.Syncer, error) {
	client, err := o.client()
	if err != nil {
		return nil, err
	}
	return dashsync.NewSyncer(client, dashsync.Config{Log: newLogger(o.verbose)}), nil
}

func printSnapshot(w io.Writer, s dashsync.Snapshot) {
	fmt.Fprintf(w, "%s  %s\n", time.Now().Format(time.TimeOnly), s.User.Email)
	if s.UsageStats != nil {
		u := s.UsageStats
		fmt.Fprintf(w, "  revenue=%d orders=%d optimized=%d ai=%d seo=%d\n",
			u.TotalRevenue, u.TotalOrders, u.ProductsOptimized, u.AIGenerationsUsed, u.SEOOptimizationsUsed)
	}
	for _, t := range s.ToolsAccess {
		fmt.Fprintf(w, "  tool %-20s %d\n", t.ToolName, t.AccessCount)
	}
	for _, m := range s.RealtimeMetrics {
		fmt.Fprintf(w, "  %-20s %s (%s)\n", m.MetricName, m.Value, m.ChangePercent)
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

var errNotLoggedIn = errors.New("not logged in, run zyractl login first")

func loadSession(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", errNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errNotLoggedIn
	}
	return token, nil
}

func saveSession(path, token string) error {
	if token == "" {
		return errors.New("server did not return a session")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

// loadStamp returns the zero time when the stamp is missing or unreadable.
func loadStamp(path string) time.Time {
	raw, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(raw)))
	if err != nil {
		return time.Time{}
	}
	return t
}

func saveStamp(path string, t time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(t.Format(time.RFC3339Nano)+"\n"), 0o600)
}

// errorMessage adds a login hint to authentication failures.
func errorMessage(err error) string {
	if dashsync.IsUnauthorized(err) {
		return err.Error() + "\nsession missing or expired, run `zyractl login`"
	}
	return err.Error()
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".zyra-session"
	}
	return filepath.Join(dir, "zyra", "session")
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
