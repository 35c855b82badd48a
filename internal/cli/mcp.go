package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/ironlog/internal/mcp"
	"github.com/spf13/cobra"
)

// NewMCPCommand creates the mcp command.
func NewMCPCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve training history and suggestions over MCP (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol, so logs go to stderr.
			rt, err := openRuntime(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			s := mcp.New(rt.history, rt.advisor, rootOpts.Version, rt.log)
			rt.log.Info("mcp server listening on stdio")
			return server.ServeStdio(s)
		},
	}
}
