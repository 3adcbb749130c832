package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/postgatehq/postgate/internal/clifmt"
	"github.com/postgatehq/postgate/workflow"
)

var (
	requestContextID string
	requestActorID   string
)

var requestCmd = &cobra.Command{
	Use:   "request [instruction]",
	Short: "Draft a post and queue it for approval",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := serviceFromViper(nil)
		if err != nil {
			return err
		}
		defer closeSvc()

		cb := func(_ context.Context, r workflow.Reply) error {
			fmt.Println(r.Text)
			if r.TaskID != "" {
				fmt.Println(clifmt.Dim("task: " + r.TaskID))
			}
			return nil
		}

		_, err = svc.Request(cmd.Context(), workflow.Request{
			ContextID:   requestContextID,
			ActorID:     requestActorID,
			Instruction: strings.Join(args, " "),
		}, cb)
		if errors.Is(err, workflow.ErrUnauthorized) {
			// The callback already explained; don't fail the process noisily.
			return nil
		}
		return err
	},
}

func init() {
	requestCmd.Flags().StringVar(&requestContextID, "context", "default", "conversation context id")
	requestCmd.Flags().StringVar(&requestActorID, "actor", "", "requesting actor id")
	_ = requestCmd.MarkFlagRequired("actor")
	rootCmd.AddCommand(requestCmd)
}
