package main

import (
	"fmt"

	"github.com/cfengine/promise-engine/pkg/keys"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage this host's identity key pair",
}

func init() {
	keysCmd.AddCommand(keysPrintDigestCmd)
	keysCmd.AddCommand(keysGenerateCmd)
}

var keysPrintDigestCmd = &cobra.Command{
	Use:   "print-digest",
	Short: "Print the digest of this host's public key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, err := keys.LoadLocalPublicKey(cfg.WorkDir)
		if err != nil {
			return fmt.Errorf("keys: no local key pair (run 'cfpromise keys generate' first): %w", err)
		}
		fmt.Println(keys.Digest(pub))
		return nil
	},
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new host identity key pair, overwriting any existing one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := keys.WriteRandSeed(cfg.WorkDir); err != nil {
			return err
		}
		digest, err := keys.GenerateHostKeyPair(cfg.WorkDir)
		if err != nil {
			return err
		}
		fmt.Printf("generated key pair, digest %s\n", digest)
		return nil
	},
}
