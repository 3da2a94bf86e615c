package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"openpeer/internal/peer"
)

func (c *cli) uriCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uri",
		Short: "Split, join or validate peer URIs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "split [uri]",
			Short: "Print the domain and contact id of a peer URI",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, contact, err := peer.SplitURI(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "domain: %s\ncontact: %s\n", d, contact)
				return nil
			},
		},
		&cobra.Command{
			Use:   "join [domain] [contact]",
			Short: "Build a peer URI",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				uri := peer.JoinURI(args[0], args[1])
				if !peer.IsValid(uri) {
					return fmt.Errorf("%q: %w", uri, peer.ErrInvalidURI)
				}
				fmt.Fprintln(cmd.OutOrStdout(), uri)
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate [uri]",
			Short: "Exit non-zero unless the argument is a peer URI",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if !peer.IsValid(args[0]) {
					return fmt.Errorf("%q: %w", args[0], peer.ErrInvalidURI)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			},
		},
	)
	return cmd
}
