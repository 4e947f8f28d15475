package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/backend"
	"github.com/iksnae/voiceflow-portal/internal/live"
	"github.com/iksnae/voiceflow-portal/internal/session"
	"github.com/spf13/cobra"
)

var (
	liveTurns        int
	liveTurnInterval time.Duration
	liveReplyDelay   time.Duration
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Watch a live session",
	Long: `Subscribe to a live session and print messages as they arrive.

Stops when the session ends or on Ctrl-C. The pacing flags only apply to
the simulated backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := live.DefaultOptions()
		opts.Turns = liveTurns
		opts.TurnInterval = liveTurnInterval
		opts.ReplyDelay = liveReplyDelay
		if opts.Turns <= 0 {
			return fmt.Errorf("--turns must be positive")
		}

		p, err := openPortal(backend.WithFeedOptions(opts))
		if err != nil {
			return err
		}
		defer p.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		data, err := p.enter(ctx, session.ViewLive)
		if err != nil {
			return err
		}

		changes := make(chan struct{}, 1)
		monitor := live.NewMonitor(p.client, data.Customer.ProjectID, live.WithOnChange(func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		}))

		out := cmd.OutOrStdout()
		if _, err := monitor.Start(ctx); err != nil {
			printChat(out, monitor.Messages())
			return fmt.Errorf("failed to start live session: %w", err)
		}
		defer monitor.Stop()

		printed := 0
		for {
			select {
			case <-ctx.Done():
				monitor.Stop()
				printChat(out, monitor.Messages()[printed:])
				internal.PrintInfo(out, "Stopped listening")
				return nil
			case <-changes:
			}

			messages := monitor.Messages()
			printChat(out, messages[printed:])
			printed = len(messages)

			if !monitor.Listening() {
				fmt.Fprintln(out, dateStyle.Render(fmt.Sprintf("Last session %s", monitor.LastClose())))
				return nil
			}
		}
	},
}

// chatSpeakers maps live message senders to transcript speaker labels
var chatSpeakers = map[internal.Sender]string{
	internal.SenderUser:      internal.SpeakerUser,
	internal.SenderAssistant: internal.SpeakerAssistant,
	internal.SenderSystem:    internal.SpeakerSystem,
}

func printChat(w io.Writer, messages []internal.ChatMessage) {
	for _, msg := range messages {
		speaker := chatSpeakers[msg.Sender]
		if speaker == "" {
			speaker = internal.SpeakerSystem
		}
		if msg.Sender == internal.SenderSystem {
			fmt.Fprintf(w, "%s %s\n", timestampStyle.Render(msg.Timestamp.Format("15:04:05")), systemMessageStyle.Render(msg.Text))
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n",
			timestampStyle.Render(msg.Timestamp.Format("15:04:05")),
			speakerStyle(speaker).Render(speaker+":"),
			msg.Text,
		)
	}
}

func init() {
	rootCmd.AddCommand(liveCmd)
	def := live.DefaultOptions()
	liveCmd.Flags().IntVar(&liveTurns, "turns", def.Turns, "Turns in a simulated session")
	liveCmd.Flags().DurationVar(&liveTurnInterval, "turn-interval", def.TurnInterval, "Time between simulated turns")
	liveCmd.Flags().DurationVar(&liveReplyDelay, "reply-delay", def.ReplyDelay, "Delay before each simulated reply")
}
