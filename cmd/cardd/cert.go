package main

import (
	"encoding/pem"
	"os"

	"github.com/spf13/cobra"
)

var certOutFile string

var certCmd = &cobra.Command{
	Use:   "cert <key-id>",
	Short: "Export the certificate of a keypair",
	Long: `Reads the certificate stored with the given keypair. Without --out the
certificate is written to stdout PEM encoded; with --out the raw DER bytes
are written to the file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		if _, err := card.Serial(); err != nil {
			return err
		}

		der, err := card.ReadCert(args[0])
		if err != nil {
			return err
		}

		if certOutFile != "" {
			return os.WriteFile(certOutFile, der, 0o600)
		}

		return pem.Encode(os.Stdout, &pem.Block{Type: "CERTIFICATE", Bytes: der})
	},
}

func init() {
	certCmd.Flags().StringVarP(&certOutFile, "out", "o", "", "write DER to this file instead of PEM to stdout")
	rootCmd.AddCommand(certCmd)
}
