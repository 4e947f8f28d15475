package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/session"
	"github.com/iksnae/voiceflow-portal/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login [token]",
	Short: "Sign in with an access token",
	Long: `Validate an access token and start a session for the current profile.

Without an argument the token is read from the terminal (hidden) or from
standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			var err error
			if token, err = readToken(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
				return err
			}
		}

		p, err := openPortal()
		if err != nil {
			return err
		}
		defer p.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		out := cmd.OutOrStdout()
		var data *session.SessionData
		err = internal.ShowProgress(ctx, "Validating access token", func(ctx context.Context) error {
			var loginErr error
			data, loginErr = p.shell.Login(ctx, token)
			return loginErr
		})
		if err != nil {
			if internal.IsInvalidToken(err) {
				internal.PrintError(cmd.ErrOrStderr(), tui.InvalidTokenMessage)
			}
			return err
		}

		internal.PrintSuccess(out, fmt.Sprintf("Signed in as %s", data.Customer.Name))
		fmt.Fprintf(out, "  %s %s\n", dateStyle.Render("Project:"), data.Customer.ProjectID)
		fmt.Fprintf(out, "  %s %s\n", dateStyle.Render("Environment:"), data.Customer.EnvironmentID)
		fmt.Fprintf(out, "  %s %s\n", dateStyle.Render("Profile:"), p.shell.Profile())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPortal()
		if err != nil {
			return err
		}
		defer p.Close()

		ctx := cmd.Context()
		if !p.shell.IsAuthenticated(ctx) {
			internal.PrintInfo(cmd.OutOrStdout(), "Not signed in")
			return nil
		}
		if err := p.shell.Logout(ctx); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

// readToken prompts without echo on a terminal, otherwise reads one line
func readToken(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Access token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
