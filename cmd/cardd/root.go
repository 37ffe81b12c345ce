package main

import (
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cardd"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "cardd",
		Short: "Use the keys on a signature smartcard",
		Long: `Cardd talks to a smartcard in a local reader and exposes the signing keys
stored on it: list the keypairs, export their certificates, create signatures
and decrypt data. Cards carrying a PKCS#15 application are fully supported;
other signature cards fall back to the DIN SIG profile.`,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.cardd/cardd.yaml)")
	rootCmd.PersistentFlags().Int("reader", 0, "index of the card reader to use")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log the result of every card operation")
	rootCmd.PersistentFlags().Bool("debug", false, "log raw APDU traffic")

	viper.BindPFlag("reader", rootCmd.PersistentFlags().Lookup("reader"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if configFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(configFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home + "/.cardd")
		viper.SetConfigName("cardd")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("cardd")
	viper.AutomaticEnv()
	viper.ReadInConfig()

	switch {
	case viper.GetBool("debug"):
		logrus.SetLevel(logrus.DebugLevel)
	case viper.GetBool("verbose"):
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
}

// openCard opens a session with the configured reader.
func openCard() (*cardd.Card, error) {
	return cardd.Open(cardd.Options{
		Reader:  viper.GetInt("reader"),
		Verbose: viper.GetBool("verbose"),
		Debug:   viper.GetBool("debug"),
	})
}
