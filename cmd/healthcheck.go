package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/session"
	"github.com/spf13/cobra"
)

// per-step budget so an unreachable redis or API cannot hang the check
const healthcheckTimeout = 10 * time.Second

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the portal can reach its store and backend",
	Long: `Check the health of the portal by verifying:
  • Configuration
  • Session store read/write access
  • Analytics backend reachability
  • Current session
  • Cache directory

Use --verbose for detailed diagnostic information.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		fmt.Fprintln(out, sectionStyle.Render("🔍 Portal Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration (already validated by the root command)
		fmt.Fprintln(out, infoStyle.Render("Step 1: Checking configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration valid"))
		if verbose {
			fmt.Fprintf(out, "   Profile: %s\n", cfg.Profile)
			fmt.Fprintf(out, "   Store: %s\n", cfg.StoreType)
			fmt.Fprintf(out, "   Data dir: %s\n", cfg.DataDir)
		}
		fmt.Fprintln(out)

		// Step 2: Session store
		fmt.Fprintln(out, infoStyle.Render("Step 2: Testing session store..."))
		store, err := openStore()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to open session store:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer store.Close()
		if err := probeStore(ctx, store); err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Session store is not usable:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s store read/write OK", cfg.StoreType)))
		if verbose {
			switch cfg.StoreType {
			case session.StoreTypeSQLite:
				fmt.Fprintf(out, "   Database: %s\n", cfg.SessionPath())
			case session.StoreTypeRedis:
				fmt.Fprintf(out, "   URL: %s\n", cfg.RedisURL)
			}
		}
		fmt.Fprintln(out)

		// Step 3: Backend
		fmt.Fprintln(out, infoStyle.Render("Step 3: Contacting analytics backend..."))
		client := newClient()
		backendCtx, backendCancel := context.WithTimeout(ctx, healthcheckTimeout)
		metrics, err := client.FetchDashboardMetrics(backendCtx)
		backendCancel()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Backend unreachable:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		if cfg.UseMock() {
			fmt.Fprintln(out, successStyle.Render("✅ Simulated backend responding"))
		} else {
			fmt.Fprintln(out, successStyle.Render("✅ Analytics API responding"))
		}
		if verbose {
			if !cfg.UseMock() {
				fmt.Fprintf(out, "   URL: %s\n", cfg.APIURL)
			}
			fmt.Fprintf(out, "   Total sessions: %d\n", metrics.TotalSessions)
		}
		fmt.Fprintln(out)

		// Step 4: Current session
		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking current session..."))
		shell := session.NewShell(store, client, cfg.Profile)
		signedIn := false
		data, err := shell.Current(ctx)
		switch {
		case err == nil:
			signedIn = true
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Signed in as %s", data.Customer.Name)))
			if verbose {
				fmt.Fprintf(out, "   Project: %s\n", data.Customer.ProjectID)
				fmt.Fprintf(out, "   Active view: %s\n", data.ActiveView)
			}
		case errors.Is(err, internal.ErrNotAuthenticated):
			fmt.Fprintln(out, warningStyle.Render("⚠️  Not signed in"))
			fmt.Fprintln(out, "   Run `voiceflow-portal login` to start a session")
		default:
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to read session:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintln(out)

		// Step 5: Cache directory
		fmt.Fprintln(out, infoStyle.Render("Step 5: Checking cache directory..."))
		cacheOK := checkCacheDir(out, cfg.CacheDir())
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if !cacheOK || !signedIn {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Store and backend are working"))
			if !signedIn {
				fmt.Fprintln(out, "   • No active session")
			}
			if !cacheOK {
				fmt.Fprintln(out, "   • Transcript lists will not be cached")
			}
			return nil
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

// probeStore round-trips a throwaway session through the store
func probeStore(ctx context.Context, store session.Store) error {
	ctx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
	defer cancel()

	probe := &session.SessionData{
		ID:         "healthcheck-" + uuid.NewString(),
		LoginID:    uuid.NewString(),
		ActiveView: session.ViewDashboard,
	}
	if err := store.Create(ctx, probe); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer func() {
		if err := store.Delete(context.WithoutCancel(ctx), probe.ID); err != nil {
			internal.LogWarn("Failed to remove healthcheck session: %v", err)
		}
	}()

	got, err := store.Get(ctx, probe.ID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if got == nil || got.LoginID != probe.LoginID {
		return errors.New("stored session did not read back")
	}
	return nil
}

func checkCacheDir(out io.Writer, dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintln(out, warningStyle.Render("⚠️  Cache directory not writable:"), err)
		return false
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		fmt.Fprintln(out, warningStyle.Render("⚠️  Cache directory not writable:"), err)
		return false
	}
	name := f.Name()
	f.Close()
	_ = os.Remove(name)

	fmt.Fprintln(out, successStyle.Render("✅ Cache directory writable"))
	if verbose {
		fmt.Fprintf(out, "   Directory: %s\n", dir)
	}
	return true
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
