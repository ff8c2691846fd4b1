package cmd

import (
	"github.com/spf13/cobra"

	"github.com/km-arc/go-ioc/app"
	frameworkapp "github.com/km-arc/go-ioc/framework/app"
	"github.com/km-arc/go-ioc/framework/config"
)

var (
	version = "dev"
	envFile string
	port    string
)

var rootCmd = &cobra.Command{
	Use:          "go-ioc",
	Short:        "Typed service registry with an injected HTTP demo",
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", "",
		"path to a .env file (default: .env)")
	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "",
		"listen port, overrides APP_PORT")

	rootCmd.AddCommand(serveCmd, demoCmd, bindingsCmd)
}

// SetVersion sets the version string shown by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newApplication loads configuration from the flags and registers the demo
// provider on a fresh application.
func newApplication(opts ...frameworkapp.Option) *frameworkapp.Application {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg := config.Load(files...)
	if port != "" {
		cfg.App.Port = port
	}

	a := frameworkapp.New(append([]frameworkapp.Option{frameworkapp.WithConfig(cfg)}, opts...)...)
	a.Register(app.NewServiceProvider())
	return a
}
