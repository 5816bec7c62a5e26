package main

import (
	"fmt"
	"groupchat/internal"
	"groupchat/repositories"
	"io"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List registered accounts and their presence flag",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *internal.Store, cfg Config) error {
			accounts, err := store.Accounts.ListAccounts()
			if err != nil {
				return err
			}
			renderAccounts(cmd.OutOrStdout(), accounts, cfg.Colours)
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the history a nickname would get on join",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *internal.Store, cfg Config) error {
			watermark, err := store.History.Watermark(nickname)
			if err != nil {
				return err
			}
			messages, err := store.History.Replay(nickname)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s watermark=%d messages=%d\n",
				paint(cfg.Colours, color.FgCyan, nickname), watermark, len(messages))
			renderMessages(cmd.OutOrStdout(), messages)
			return nil
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Hide the current history from a nickname",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *internal.Store, cfg Config) error {
			watermark, err := store.History.ClearFor(nickname)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s history of %s cleared up to message %d\n",
				paint(cfg.Colours, color.FgGreen, "✔"), nickname, watermark)
			return nil
		})
	},
}

var resetPresenceCmd = &cobra.Command{
	Use:   "reset-presence",
	Short: "Mark every account offline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *internal.Store, cfg Config) error {
			count, err := store.Accounts.ResetPresence()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d account(s) reset to offline\n",
				paint(cfg.Colours, color.FgGreen, "✔"), count)
			return nil
		})
	},
}

func withStore(fn func(store *internal.Store, cfg Config) error) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if storeDriver != "" {
		cfg.StoreDriver = storeDriver
	}
	store, err := internal.OpenStore(cfg.Store(), logs.GetLoggerFromString(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store, cfg)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func renderAccounts(w io.Writer, accounts []repositories.Account, colours bool) {
	table := newTable(w, []string{"Nickname", "Online", "Created At"})
	for _, account := range accounts {
		online := paint(colours, color.FgGray, "no")
		if account.Online {
			online = paint(colours, color.FgGreen, "yes")
		}
		table.Append([]string{account.Nickname, online, account.CreatedAt.Format(time.DateTime)})
	}
	table.Render()
}

func renderMessages(w io.Writer, messages []repositories.DiskMessage) {
	table := newTable(w, []string{"ID", "At", "Nickname", "Type", "Payload"})
	for _, m := range messages {
		table.Append([]string{
			fmt.Sprintf("%d", m.ID),
			m.At.Format(time.DateTime),
			m.Nickname,
			m.Type,
			truncate(m.Payload, 60),
		})
	}
	table.Render()
}

func paint(enabled bool, c color.Color, text string) string {
	if !enabled {
		return text
	}
	return c.Render(text)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

