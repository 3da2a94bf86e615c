package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"openpeer/internal/domain"
	"openpeer/internal/locationdb"
)

// errRejected reports a mutation the engine refused, e.g. a duplicate id or
// a missing database.
var (
	errRejected = errors.New("rejected")
	errNotFound = errors.New("not found")
)

type dbFlags struct {
	peer     string
	location string
}

func (c *cli) dbCmd() *cobra.Command {
	f := &dbFlags{}
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Edit and inspect local location databases",
	}
	cmd.PersistentFlags().StringVar(&f.peer, "peer", "", "owning peer URI (default the local identity)")
	cmd.PersistentFlags().StringVar(&f.location, "location", "local", "location id")

	cmd.AddCommand(
		c.dbCreateCmd(f),
		c.dbAddCmd(f),
		c.dbUpdateCmd(f),
		c.dbRemoveCmd(f),
		c.dbUpdatesCmd(f),
		c.dbListCmd(f),
		c.dbSyncCmd(f),
	)
	return cmd
}

// open resolves the location and loads the engine.
func (c *cli) open(f *dbFlags) (*locationdb.Engine, domain.Location, error) {
	uri := f.peer
	if uri == "" {
		if err := c.requirePassphrase(); err != nil {
			return nil, domain.Location{}, fmt.Errorf("--peer or %w", err)
		}
		id, err := c.app.Identities.LoadIdentity(c.passphrase)
		if err != nil {
			return nil, domain.Location{}, err
		}
		uri = id.URI
	}
	e, err := c.app.Engine()
	if err != nil {
		return nil, domain.Location{}, err
	}
	return e, domain.Location{PeerURI: uri, LocationID: f.location}, nil
}

func check(ok bool, what string) error {
	if !ok {
		return fmt.Errorf("%s: %w", what, errRejected)
	}
	return nil
}

func (c *cli) dbCreateCmd(f *dbFlags) *cobra.Command {
	var (
		meta    string
		expires time.Duration
	)
	cmd := &cobra.Command{
		Use:   "create [database]",
		Short: "Create a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, loc, err := c.open(f)
			if err != nil {
				return err
			}
			var at time.Time
			if expires > 0 {
				at = time.Now().Add(expires).UTC()
			}
			return check(e.CreateDatabase(loc, args[0], meta, at), "create "+args[0])
		},
	}
	cmd.Flags().StringVar(&meta, "meta", "", "database metadata (JSON)")
	cmd.Flags().DurationVar(&expires, "expires", 0, "lifetime (0 never expires)")
	return cmd
}

func (c *cli) dbAddCmd(f *dbFlags) *cobra.Command {
	var meta string
	cmd := &cobra.Command{
		Use:   "add [database] [entry] [data]",
		Short: "Add an entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, loc, err := c.open(f)
			if err != nil {
				return err
			}
			return check(e.AddEntry(loc, args[0], args[1], args[2], meta), "add "+args[1])
		},
	}
	cmd.Flags().StringVar(&meta, "meta", "", "entry metadata (JSON)")
	return cmd
}

func (c *cli) dbUpdateCmd(f *dbFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "update [database] [entry] [data]",
		Short: "Replace the data of an entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, loc, err := c.open(f)
			if err != nil {
				return err
			}
			return check(e.UpdateEntry(loc, args[0], args[1], args[2]), "update "+args[1])
		},
	}
}

func (c *cli) dbRemoveCmd(f *dbFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [database] [entry]",
		Short: "Remove an entry, or the whole database when no entry is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, loc, err := c.open(f)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return check(e.DeleteDatabase(loc, args[0]), "remove "+args[0])
			}
			return check(e.RemoveEntry(loc, args[0], args[1]), "remove "+args[1])
		},
	}
}

type entryView struct {
	ID          string             `json:"id"`
	Version     uint64             `json:"version"`
	Disposition domain.Disposition `json:"disposition"`
	Data        string             `json:"data,omitempty"`
	MetaData    string             `json:"metaData,omitempty"`
	Updated     time.Time          `json:"updated"`
}

func (c *cli) dbUpdatesCmd(f *dbFlags) *cobra.Command {
	var since uint64
	cmd := &cobra.Command{
		Use:   "updates [database]",
		Short: "Print entries changed after a version as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, loc, err := c.open(f)
			if err != nil {
				return err
			}
			if _, ok := e.Database(loc, args[0]); !ok {
				return fmt.Errorf("database %s: %w", args[0], errNotFound)
			}
			recs, next := e.GetUpdates(loc, args[0], since)
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range recs {
				if err := enc.Encode(entryView{
					ID:          r.EntryID,
					Version:     r.UpdateVersion,
					Disposition: r.Disposition,
					Data:        r.Data,
					MetaData:    r.MetaData,
					Updated:     r.Updated,
				}); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "next version: %d\n", next)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&since, "since", 0, "return entries with a greater version")
	return cmd
}

func (c *cli) dbListCmd(f *dbFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the databases of the location",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, loc, err := c.open(f)
			if err != nil {
				return err
			}
			recs, _ := e.DatabaseUpdates(loc, 0)
			for _, r := range recs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tv%d\t%s\t%s\n", r.DatabaseID, r.Version, r.Disposition, r.MetaData)
			}
			return nil
		},
	}
}

func (c *cli) dbSyncCmd(f *dbFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "sync [service-url]",
		Short: "Pull the location from a remote location database service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, loc, err := c.open(f)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := c.app.SyncLocation(ctx, args[0], loc); err != nil {
				return err
			}
			recs, _ := e.DatabaseUpdates(loc, 0)
			for _, r := range recs {
				v, _ := e.DownloadedVersion(loc, r.DatabaseID)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tdownloaded v%d\n", r.DatabaseID, r.Disposition, v)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall sync timeout")
	return cmd
}
