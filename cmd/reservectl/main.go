package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func newRootCmd(out io.Writer) *cobra.Command {
	addr := os.Getenv("RESERVECTL_URL")
	if addr == "" {
		addr = "http://localhost:3000"
	}
	token := os.Getenv("RESERVECTL_TOKEN")

	app := &cli{out: out}

	root := &cobra.Command{
		Use:   "reservectl",
		Short: "Manage restaurant table reservations",
		Long: `Create, inspect, update and cancel table reservations

environment:
    RESERVECTL_URL    URL for the reservation service
    RESERVECTL_TOKEN  staff bearer token for --staff updates
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "token" || cmd.Name() == "version" {
				return nil
			}
			client, err := newAPIClient(addr, token)
			if err != nil {
				return err
			}
			app.api = client
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&addr, "url", addr, "URL for reservation service")
	root.PersistentFlags().StringVar(&token, "token", token, "Staff bearer token")

	root.AddCommand(
		app.listCmd(),
		app.getCmd(),
		app.createCmd(),
		app.updateCmd(),
		app.cancelCmd(),
		app.tokenCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Display the client version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "reservectl %s\n", Version)
			},
		},
	)

	return root
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
