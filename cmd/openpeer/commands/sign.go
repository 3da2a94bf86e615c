package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/beevik/etree"
	"github.com/spf13/cobra"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/peer"
	"openpeer/internal/util/memzero"
	"openpeer/internal/wire"
)

var errNoElement = errors.New("no element with that id")

// findSigned returns the child of the document root to sign or verify: the
// one with the given id, or the first one carrying an id.
func findSigned(doc *etree.Document, id string) (*etree.Element, error) {
	for _, el := range doc.Root().ChildElements() {
		got := wire.Attr(el, "id")
		if got != "" && (id == "" || got == id) {
			return el, nil
		}
	}
	return nil, errNoElement
}

func readDoc(path string) (*etree.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return wire.Parse(b)
}

func (c *cli) signCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "sign [file.xml]",
		Short: "Sign an element of an XML document with the identity key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requirePassphrase(); err != nil {
				return err
			}
			ident, err := c.app.Identities.LoadIdentity(c.passphrase)
			if err != nil {
				return err
			}
			defer memzero.Key(&ident.EdPriv)
			doc, err := readDoc(args[0])
			if err != nil {
				return err
			}
			el, err := findSigned(doc, id)
			if err != nil {
				return err
			}
			if err := peer.Sign(el, ident.EdPriv, ident.URI); err != nil {
				return err
			}
			doc.Indent(2)
			_, err = doc.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "id of the element to sign (default first with an id)")
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	var id, signer, key string
	cmd := &cobra.Command{
		Use:   "verify [file.xml]",
		Short: "Verify the signature following an element of an XML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Peers.Get(signer)
			if err != nil {
				return err
			}
			if key != "" {
				raw, err := crypto.FromHex(key)
				if err != nil || len(raw) != len(domain.Ed25519Public{}) {
					return fmt.Errorf("bad public key %q", key)
				}
				var pub domain.Ed25519Public
				copy(pub[:], raw)
				p.SetPublicKey(pub)
			}
			doc, err := readDoc(args[0])
			if err != nil {
				return err
			}
			el, err := findSigned(doc, id)
			if err != nil {
				return err
			}
			if !p.VerifySignature(el) {
				return errors.New("signature invalid")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signature valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "id of the signed element (default first with an id)")
	cmd.Flags().StringVar(&signer, "peer", "", "peer URI of the signer")
	cmd.Flags().StringVar(&key, "key", "", "hex Ed25519 public key of the signer")
	_ = cmd.MarkFlagRequired("peer")
	return cmd
}
