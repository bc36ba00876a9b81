package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/smartyg/competitionnotify/app/database"
	"github.com/smartyg/competitionnotify/app/registry"
)

var errNotFound = errors.New("not found")

func openDB(opts *options) (*database.DB, error) {
	db, err := database.Open(opts.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", opts.dbPath, err)
	}
	return db, nil
}

func processedCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "processed",
		Short: "List processed competitions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := database.NewProcessedRepository(db).List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), records, opts.outputFmt)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum number of records")
	return cmd
}

func notificationCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notification",
		Short: "Inspect stored notifications",
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a notification with its recipients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid notification id %q: %w", args[0], err)
			}
			db, err := openDB(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := database.NewNotificationRepository(db, database.DefaultMaxBodyBytes).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if n == nil {
				return fmt.Errorf("notification %s: %w", id, errNotFound)
			}
			return outputResult(cmd.OutOrStdout(), n, opts.outputFmt)
		},
	}

	var limit int
	pending := &cobra.Command{
		Use:   "pending",
		Short: "List notifications that have not been sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := database.NewNotificationRepository(db, database.DefaultMaxBodyBytes).ListPending(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), list, opts.outputFmt)
		},
	}
	pending.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum number of notifications")

	markSent := &cobra.Command{
		Use:   "mark-sent <id>",
		Short: "Mark a notification as delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid notification id %q: %w", args[0], err)
			}
			db, err := openDB(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.NewNotificationRepository(db, database.DefaultMaxBodyBytes).MarkSent(cmd.Context(), id, nil, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notification %s marked as sent\n", id)
			return nil
		},
	}

	cmd.AddCommand(show, pending, markSent)
	return cmd
}

func venuesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "venues",
		Short: "List known venues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			venues, err := database.NewVenueRepository(db).List(cmd.Context())
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), venues, opts.outputFmt)
		},
	}
}

func registryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Work with recipient registry files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a registry file loads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load(args[0])
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), RegistryResult{File: args[0], Recipients: reg.Count()}, opts.outputFmt)
		},
	})

	var query string
	list := &cobra.Command{
		Use:   "list <file>",
		Short: "List registry recipients, optionally filtered by a search query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load(args[0])
			if err != nil {
				return err
			}
			recipients := reg.All()
			if query != "" {
				recipients = reg.Search(query)
			}
			return outputResult(cmd.OutOrStdout(), recipients, opts.outputFmt)
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "Search names, email, license key and club code")
	cmd.AddCommand(list)

	return cmd
}
