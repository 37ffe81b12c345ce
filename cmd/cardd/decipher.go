package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	decipherInFile  string
	decipherOutFile string
)

var decipherCmd = &cobra.Command{
	Use:   "decipher <key-id>",
	Short: "Decrypt data with a card key",
	Long: `Decrypts a cryptogram with the given card key. The ciphertext is read from
--in, or from stdin when the flag is absent; the plaintext goes to --out or
stdout. Cards bound through the fallback profile cannot decrypt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := io.Reader(os.Stdin)
		if decipherInFile != "" {
			f, err := os.Open(decipherInFile)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		ciphertext, err := io.ReadAll(in)
		if err != nil {
			return err
		}

		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		if _, err := card.Serial(); err != nil {
			return err
		}

		out, err := card.Decipher(args[0], promptPIN, ciphertext)
		if err != nil {
			return err
		}

		if decipherOutFile != "" {
			return os.WriteFile(decipherOutFile, out, 0o600)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	decipherCmd.Flags().StringVar(&decipherInFile, "in", "", "ciphertext file (default stdin)")
	decipherCmd.Flags().StringVarP(&decipherOutFile, "out", "o", "", "write the plaintext to this file")
	rootCmd.AddCommand(decipherCmd)
}
