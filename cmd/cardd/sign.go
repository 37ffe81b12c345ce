package main

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cardd/types"
)

var (
	signHashName string
	signInFile   string
	signOutFile  string
)

var signCmd = &cobra.Command{
	Use:   "sign <key-id>",
	Short: "Sign data with a card key",
	Long: `Hashes the input with the selected algorithm and creates a signature with
the given card key. The input is read from --in, or from stdin when the flag
is absent. The signature is written to --out as raw bytes, or to stdout as
hex.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		algo, h, err := hashByName(signHashName)
		if err != nil {
			return err
		}

		in := io.Reader(os.Stdin)
		if signInFile != "" {
			f, err := os.Open(signInFile)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		if _, err := io.Copy(h, in); err != nil {
			return err
		}
		digest := h.Sum(nil)

		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		if _, err := card.Serial(); err != nil {
			return err
		}

		sig, err := card.Sign(args[0], algo, promptPIN, digest)
		if err != nil {
			return err
		}

		if signOutFile != "" {
			return os.WriteFile(signOutFile, sig, 0o600)
		}
		fmt.Printf("%X\n", sig)
		return nil
	},
}

func hashByName(name string) (types.HashAlgo, hash.Hash, error) {
	switch name {
	case "sha1":
		return types.HashSHA1, sha1.New(), nil
	case "sha256":
		return types.HashSHA256, sha256.New(), nil
	case "sha384":
		return types.HashSHA384, sha512.New384(), nil
	case "sha512":
		return types.HashSHA512, sha512.New(), nil
	}
	return types.HashNone, nil, fmt.Errorf("unknown hash algorithm %q", name)
}

func init() {
	signCmd.Flags().StringVar(&signHashName, "hash", "sha256", "hash algorithm (sha1, sha256, sha384, sha512)")
	signCmd.Flags().StringVar(&signInFile, "in", "", "file to sign (default stdin)")
	signCmd.Flags().StringVarP(&signOutFile, "out", "o", "", "write the raw signature to this file")
	rootCmd.AddCommand(signCmd)
}
