package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) loginCmd() *cobra.Command {
	var (
		timeout  time.Duration
		contacts bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the bootstrapper and bring every session to ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requirePassphrase(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			svc, err := c.app.Login(ctx, c.passphrase)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			acct := svc.Lockbox().Account()
			fmt.Fprintf(out, "Logged in.\nAccount: %s\nLockbox: %s\nPush mailbox: %s\n",
				acct.AccountID, svc.Lockbox().State(), svc.PushMailbox().State())

			if !contacts {
				return nil
			}
			list, err := svc.Contacts(ctx)
			if err != nil {
				return err
			}
			for _, ct := range list {
				fmt.Fprintf(out, "%s\t%s\t%s\n", ct.URI, ct.Name, ct.PeerURI)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall login timeout")
	cmd.Flags().BoolVar(&contacts, "contacts", false, "also fetch rolodex contacts")
	return cmd
}
