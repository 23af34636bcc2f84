package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"slurmspawn/pkg/api"
)

var statusIdentity bool

var statusCmd = &cobra.Command{
	Use:   "status <owner> <name>",
	Short: "Get liveness of a session",
	Long: `Status polls the scheduler for the session's job state
(PENDING, RUNNING, COMPLETED, FAILED, CANCELLED) and reports whether the
session counts as alive. With --identity it shows the persisted identity
instead of querying the scheduler.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		owner, name := args[0], args[1]
		client := NewSessionClient(viper.GetString("url"), viper.GetString("token"))

		if statusIdentity {
			ident, err := client.GetSession(owner, name)
			if err != nil {
				cmd.Printf("Failed to get session: %v\n", err)
				return
			}
			printIdentity(cmd, ident)
			return
		}

		resp, err := client.PollSession(owner, name)
		if err != nil {
			cmd.Printf("Failed to poll session: %v\n", err)
			return
		}
		printPoll(cmd, owner, name, resp)
	},
}

func printPoll(cmd *cobra.Command, owner, name string, resp *api.PollSessionResponse) {
	cmd.Printf("%s %s%s/%s%s\n", stateIcon(resp.State), colorBold, owner, name, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sAlive:%s   %v\n", colorDim, colorReset, resp.Alive)
	cmd.Printf("%sState:%s   %s\n", colorDim, colorReset, colorizeState(resp.State))
	if resp.JobID != "" {
		cmd.Printf("%sJob ID:%s  %s\n", colorDim, colorReset, resp.JobID)
	}
}

func printIdentity(cmd *cobra.Command, ident *api.SessionResponse) {
	cmd.Printf("%sSession Identity%s\n", colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sOwner:%s    %s\n", colorDim, colorReset, ident.Owner)
	cmd.Printf("%sName:%s     %s\n", colorDim, colorReset, ident.LogicalName)
	cmd.Printf("%sJob ID:%s   %s\n", colorDim, colorReset, ident.JobID)
	if ident.NodeName != "" {
		cmd.Printf("%sNode:%s     %s\n", colorDim, colorReset, ident.NodeName)
		cmd.Printf("%sAddress:%s  %s:%d\n", colorDim, colorReset, ident.Address, ident.Port)
	} else {
		cmd.Printf("%sPort:%s     %d\n", colorDim, colorReset, ident.Port)
	}
	cmd.Printf("%sCreated:%s  %s\n", colorDim, colorReset, ident.CreatedAt.Format("Mon, 02 Jan 2006 15:04:05 MST"))
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func stateIcon(state string) string {
	switch state {
	case "RUNNING":
		return colorGreen + "✓" + colorReset
	case "PENDING":
		return colorCyan + "◯" + colorReset
	case "FAILED", "CANCELLED":
		return colorRed + "✗" + colorReset
	case "COMPLETED":
		return colorYellow + "•" + colorReset
	default:
		return "•"
	}
}

func colorizeState(state string) string {
	switch state {
	case "RUNNING":
		return colorGreen + state + colorReset
	case "PENDING":
		return colorCyan + state + colorReset
	case "FAILED", "CANCELLED":
		return colorRed + state + colorReset
	default:
		return state
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusIdentity, "identity", false, "Show the persisted identity instead of polling the scheduler")
	rootCmd.AddCommand(statusCmd)
}
