package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "spawnctl",
	Short: "Spawnctl is a command line tool for managing batch-scheduled sessions",
	Long: `spawnctl is the command-line interface for the slurmspawn daemon.

The daemon manages singleton per-user sessions as Slurm batch jobs: it
submits them, re-attaches to survivors after restarts, polls their
liveness and tears them down.

Common workflows:

  Start a session:
    spawnctl start alice notebook --port 8891 -- jupyterhub-singleuser --port=8891

  Check liveness:
    spawnctl status alice notebook

  Stop a session:
    spawnctl stop alice notebook

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    SLURMSPAWN_URL      API endpoint (default: http://localhost:8470)
    SLURMSPAWN_TOKEN    Bearer token for authentication`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".spawnctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".spawnctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "SLURMSPAWN_VARNAME"
	viper.SetEnvPrefix("SLURMSPAWN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.spawnctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8470", "Spawner daemon URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "Bearer token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
