package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var stopForget bool

var stopCmd = &cobra.Command{
	Use:   "stop <owner> <name>",
	Short: "Stop a session and cancel its batch job",
	Long: `Stop cancels the session's job and clears its identity. The daemon
verifies the cancellation and retries once if the scheduler still shows
the job alive.

With --forget the job is left to the scheduler and only the daemon's
record of it is removed.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		owner, name := args[0], args[1]

		client := NewSessionClient(viper.GetString("url"), viper.GetString("token"))
		if err := client.StopSession(owner, name, !stopForget); err != nil {
			cmd.Printf("Failed to stop session: %v\n", err)
			return
		}

		cmd.Printf("%s✓%s Session %s/%s stopped\n", colorGreen, colorReset, owner, name)
	},
}

func init() {
	stopCmd.Flags().BoolVar(&stopForget, "forget", false, "Clear the identity without cancelling the job")
	rootCmd.AddCommand(stopCmd)
}
