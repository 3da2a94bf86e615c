package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"openpeer/internal/crypto"
)

var errPassphrase = errors.New("passphrase required (-p)")

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate the identity key and store it sealed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requirePassphrase(); err != nil {
				return err
			}
			id, fp, err := c.app.Identities.GenerateIdentity(c.passphrase, c.app.Config.Domain)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created.\nPeer URI: %s\nFingerprint: %s\n", id.URI, fp)
			return nil
		},
	}
}

func (c *cli) fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint, peer URI and public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requirePassphrase(); err != nil {
				return err
			}
			id, err := c.app.Identities.LoadIdentity(c.passphrase)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fingerprint: %s\n", crypto.Fingerprint(id.EdPub.Slice()))
			fmt.Fprintf(out, "Peer URI: %s\n", id.URI)
			fmt.Fprintf(out, "Public key: %s\n", crypto.Hex(id.EdPub.Slice()))
			return nil
		},
	}
}
