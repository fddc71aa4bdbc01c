// Package main provides the seoaudit command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/seoaudit/config"
)

func main() {
	Execute()
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seoaudit",
		Short: "On-page SEO audits from the command line",
		Long: `seoaudit renders a page, checks its title, meta description, headings,
images, content length and load time, and prints a scored report.

Configuration is read from the same SEOAUDIT_* environment variables as the
server. Flags override them.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
