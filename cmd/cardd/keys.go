package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cardd/types"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keypairs on the card",
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		// Reading the serial binds the card application.
		serial, err := card.Serial()
		if err != nil {
			return err
		}
		printInfo("card serial " + serial)

		for idx := 0; ; idx++ {
			kp, err := card.EnumKeypairs(idx)
			if errors.Is(err, types.ErrNoMoreKeys) {
				break
			}
			if errors.Is(err, types.ErrMissingCertificate) {
				printWarning(fmt.Sprintf("keypair %d has no certificate", idx))
				continue
			}
			if err != nil {
				return err
			}

			fmt.Printf("%X %s\n", kp.Keygrip, kp.ID)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}
