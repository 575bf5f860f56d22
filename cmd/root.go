/*
Copyright © 2023 Chris Collins 'collins.christopher@gmail.com'

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/pkg/incidentapi"
	"github.com/clcollins/incmgr/pkg/store"
	"github.com/clcollins/incmgr/pkg/tui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const cfgFile = "incmgr"
const cfgFilePath = ".config/incmgr/"
const envPrefix = "INCMGR"

// Config keys
const (
	keyEndpoint       = "endpoint"
	keyTimeout        = "timeout"
	keyStrictOrdering = "strict_ordering"
	keyMetricsAddr    = "metrics_addr"
)

var debug bool

// registry holds the client metrics; it is served on metrics_addr when set
var registry = prometheus.NewRegistry()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "incmgr",
	Short: "TUI for managing incident records",
	Long: `'incmgr' is a TUI application for managing incident records
kept by a remote incident API.  It lists incidents, and creates,
edits and deletes them, checking names and descriptions before
anything is sent.  The list, create, update and delete subcommands
do the same from scripts, and 'incmgr serve' runs an in-memory
incident API for local use.`,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			log.SetLevel(log.DebugLevel)
		}
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		if debug {
			for k, val := range v.AllSettings() {
				log.Debug("Found key", "key", k, "value", val)
			}
		}

		client, err := store.NewClient(storeConfig(v, registry))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if addr := v.GetString(keyMetricsAddr); addr != "" {
			go serveMetrics(ctx, addr)
		}

		m := tui.InitialModel(client, debug, controllerOptions(v)...)
		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			log.Error("tea.Program.Run()", "error", err)
			return err
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	registry.MustRegister(collectors.NewGoCollector())

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debugging output")
	rootCmd.PersistentFlags().String("endpoint", store.DefaultEndpoint, "Base URL of the incident API")
	rootCmd.PersistentFlags().Duration("timeout", store.DefaultTimeout, "Timeout for each request to the incident API")
	rootCmd.PersistentFlags().Bool("strict-ordering", false, "Discard list reloads that finish after a newer change")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve client metrics on this address (e.g. :9090)")

	cobra.CheckErr(viper.BindPFlag(keyEndpoint, rootCmd.PersistentFlags().Lookup("endpoint")))
	cobra.CheckErr(viper.BindPFlag(keyTimeout, rootCmd.PersistentFlags().Lookup("timeout")))
	cobra.CheckErr(viper.BindPFlag(keyStrictOrdering, rootCmd.PersistentFlags().Lookup("strict-ordering")))
	cobra.CheckErr(viper.BindPFlag(keyMetricsAddr, rootCmd.PersistentFlags().Lookup("metrics-addr")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Find home directory.
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)

	viper.AddConfigPath(home + "/" + cfgFilePath)
	viper.SetConfigName(cfgFile)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Info("Config file not found, using defaults", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, "Config file error: "+err.Error())
		}
	}

	applyDeprecatedKeys(viper.GetViper())
}

func serveMetrics(ctx context.Context, addr string) {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	if err := incidentapi.Serve(ctx, addr, h); err != nil {
		log.Error("serveMetrics", "addr", addr, "error", err)
	}
}
