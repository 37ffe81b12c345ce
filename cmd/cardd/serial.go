package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var serialCmd = &cobra.Command{
	Use:   "serial",
	Short: "Print the card serial number",
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		serial, err := card.Serial()
		if err != nil {
			return err
		}

		fmt.Println(serial)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serialCmd)
}
