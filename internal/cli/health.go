package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get("/api/v1/health", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "List logged-in clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Roster

			if err := client.Get("/api/v1/roster", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms [id]",
		Short: "List journaled rooms, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output, cmd.OutOrStdout())

			if len(args) == 0 {
				var result RoomList
				if err := client.Get("/api/v1/rooms", &result); err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			id, err := strconv.Atoi(args[0])
			if err != nil || id < 1 {
				return fmt.Errorf("invalid room id %q", args[0])
			}

			var result Room
			if err := client.Get(fmt.Sprintf("/api/v1/rooms/%d", id), &result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}
}

func newChatLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "chatlog",
		Short: "Show the most recent chat messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/chatlog"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}

			var result ChatLog
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of entries (default: server default)")

	return cmd
}
