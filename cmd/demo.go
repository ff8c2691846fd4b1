package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-ioc/app"
	frameworkapp "github.com/km-arc/go-ioc/framework/app"
	frameworklog "github.com/km-arc/go-ioc/framework/log"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Exercise the registry without starting a server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a := newApplication(frameworkapp.WithLogger(frameworklog.Discard()))
		if err := a.Boot(); err != nil {
			return err
		}
		return app.RunDemo(cmd.Context(), cmd.OutOrStdout(), a.Registry)
	},
}

var bindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "List the bound service types and their binding kinds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a := newApplication(frameworkapp.WithLogger(frameworklog.Discard()))
		if err := a.Boot(); err != nil {
			return err
		}
		for _, pair := range strings.Fields(a.Registry.Describe()) {
			fmt.Fprintln(cmd.OutOrStdout(), pair)
		}
		return nil
	},
}
