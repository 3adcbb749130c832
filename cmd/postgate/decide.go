package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postgatehq/postgate/internal/clifmt"
	"github.com/postgatehq/postgate/workflow"
)

var (
	decideContextID string
	decideActorID   string
	decideTaskID    string
)

var decideCmd = &cobra.Command{
	Use:   "decide <option>",
	Short: "Resolve a pending post (post or cancel)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := serviceFromViper(nil)
		if err != nil {
			return err
		}
		defer closeSvc()

		cb := func(_ context.Context, r workflow.Reply) error {
			switch {
			case r.PostURL != "":
				fmt.Println(clifmt.Success(r.Text))
			case len(r.Actions) > 0 && r.Actions[0] == workflow.ActionPostFailed:
				fmt.Println(clifmt.Warn(r.Text))
			default:
				fmt.Println(r.Text)
			}
			return nil
		}

		err = svc.Decide(cmd.Context(), workflow.Decision{
			TaskID:    decideTaskID,
			ContextID: decideContextID,
			ActorID:   decideActorID,
			Option:    args[0],
		}, cb)
		switch {
		case errors.Is(err, workflow.ErrTaskNotFound):
			fmt.Println(clifmt.Dim("No pending post found."))
			return nil
		case errors.Is(err, workflow.ErrUnauthorized):
			fmt.Println(clifmt.Warn("You are not allowed to decide this post."))
			return nil
		case errors.Is(err, workflow.ErrInvalidOption):
			return nil
		}
		return err
	},
}

func init() {
	decideCmd.Flags().StringVar(&decideContextID, "context", "default", "conversation context id")
	decideCmd.Flags().StringVar(&decideActorID, "actor", "", "deciding actor id")
	decideCmd.Flags().StringVar(&decideTaskID, "task", "", "task id (defaults to the context's pending task)")
	_ = decideCmd.MarkFlagRequired("actor")
	rootCmd.AddCommand(decideCmd)
}
