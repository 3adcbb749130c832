package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postgatehq/postgate/internal/clifmt"
)

var pendingContextID string

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show the pending post for a context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := serviceFromViper(nil)
		if err != nil {
			return err
		}
		defer closeSvc()

		task, ok, err := svc.Pending(cmd.Context(), pendingContextID)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(clifmt.Dim("No pending post."))
			return nil
		}

		fmt.Println(clifmt.Headerf("%s (%s)", task.Name, task.ID))
		fmt.Println(clifmt.Key("context:"), task.ContextID)
		fmt.Println(clifmt.Key("requested_by:"), task.ActorID)
		fmt.Println(clifmt.Key("created:"), task.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		if task.Payload.Thought != "" {
			fmt.Println(clifmt.Key("thought:"), task.Payload.Thought)
		}
		if task.Payload.ParseFallback {
			fmt.Println(clifmt.Warn("draft recovered from unparseable model output"))
		}
		fmt.Println()
		fmt.Println(task.Payload.Text)
		fmt.Println()
		for _, o := range task.Options {
			fmt.Printf("  %s - %s\n", clifmt.Key(o.Name), o.Description)
		}
		return nil
	},
}

func init() {
	pendingCmd.Flags().StringVar(&pendingContextID, "context", "default", "conversation context id")
	rootCmd.AddCommand(pendingCmd)
}
