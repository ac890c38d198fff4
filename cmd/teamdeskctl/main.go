package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "teamdeskctl",
	Short: "TeamDesk admin CLI",
	Long:  `A CLI tool to operate a running TeamDesk server: test email delivery, trigger reports, and manage backups.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("server", "", "TeamDesk server URL (default http://localhost:8080)")
	viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))
}

func initConfig() {
	viper.SetEnvPrefix("TEAMDESK")
	viper.AutomaticEnv()
}

func serverURL() string {
	if url := viper.GetString("server_url"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func main() {
	Execute()
}
