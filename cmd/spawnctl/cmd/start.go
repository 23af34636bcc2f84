package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"slurmspawn/pkg/api"
)

var (
	startPort int
	startEnv  []string
)

var startCmd = &cobra.Command{
	Use:   "start <owner> <name> -- <command> [args...]",
	Short: "Start a session as a batch job",
	Long: `Start launches (or re-attaches to) the named session for an owner.

If the session's job is already queued or running, the daemon adopts it
instead of submitting a duplicate, so start is safe to repeat.

Example:
  spawnctl start alice notebook --port 8891 -- jupyterhub-singleuser --port=8891`,
	Args: cobra.MinimumNArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		owner, name := args[0], args[1]
		command := args[2:]

		env := make(map[string]string, len(startEnv))
		for _, kv := range startEnv {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				cmd.Printf("Invalid --env value %q, expected KEY=VALUE\n", kv)
				return
			}
			env[k] = v
		}

		client := NewSessionClient(viper.GetString("url"), viper.GetString("token"))
		resp, err := client.StartSession(owner, name, api.StartSessionRequest{
			Command: command,
			Env:     env,
			Port:    startPort,
		})
		if err != nil {
			cmd.Printf("Failed to start session: %v\n", err)
			return
		}

		if resp.Attached {
			cmd.Printf("%s✓%s Re-attached to running session\n", colorGreen, colorReset)
		} else {
			cmd.Printf("%s✓%s Session started\n", colorGreen, colorReset)
		}
		cmd.Printf("%sJob ID:%s   %s\n", colorDim, colorReset, resp.JobID)
		cmd.Printf("%sNode:%s     %s\n", colorDim, colorReset, resp.NodeName)
		cmd.Printf("%sAddress:%s  %s:%d\n", colorDim, colorReset, resp.Address, resp.Port)
	},
}

func init() {
	startCmd.Flags().IntVar(&startPort, "port", 0, "Port the session listens on (0 picks a random one)")
	startCmd.Flags().StringArrayVar(&startEnv, "env", nil, "Environment variable KEY=VALUE (repeatable)")
	rootCmd.AddCommand(startCmd)
}
