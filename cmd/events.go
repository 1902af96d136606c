/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/pappi-calculator/authserver/config"
	"github.com/pappi-calculator/authserver/internal/mq"
	"github.com/pappi-calculator/authserver/internal/services"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect registration events",
}

var eventsListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print registration events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cfg.Events.Backend == "" {
			return errors.New("EVENTS_BACKEND is not set")
		}

		backend, err := mq.NewBackend(cmd.Context(), &cfg)
		if err != nil {
			return fmt.Errorf("connect events backend failed: %w", err)
		}
		defer func() {
			_ = backend.Close()
		}()

		err = mq.New(backend).Subscribe(cmd.Context(), services.RegisteredChannel, func(ctx context.Context, msg mq.Message) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", msg.ID, msg.Data)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListenCmd)
}
