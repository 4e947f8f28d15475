package cmd

import (
	"fmt"
	"io"

	"github.com/iksnae/voiceflow-portal/internal/session"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show project and portal settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPortal()
		if err != nil {
			return err
		}
		defer p.Close()

		data, err := p.enter(cmd.Context(), session.ViewSettings)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render("⚙️  Settings"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, sectionStyle.Render("Project"))
		printSetting(out, "Customer", data.Customer.Name)
		printSetting(out, "Project ID", data.Customer.ProjectID)
		printSetting(out, "Environment", data.Customer.EnvironmentID)
		printSetting(out, "Signed in", data.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintln(out)

		backendName := "simulated"
		if !cfg.UseMock() {
			backendName = cfg.APIURL
		}
		fmt.Fprintln(out, sectionStyle.Render("Portal"))
		printSetting(out, "Profile", p.shell.Profile())
		printSetting(out, "Backend", backendName)
		printSetting(out, "Session store", string(cfg.StoreType))
		printSetting(out, "Data dir", cfg.DataDir)
		return nil
	},
}

func printSetting(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", dateStyle.Render(fmt.Sprintf("%-14s", label)), value)
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}
