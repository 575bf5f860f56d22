package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/pkg/controller"
	"github.com/clcollins/incmgr/pkg/deprecation"
	"github.com/clcollins/incmgr/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	exampleConfig = `
# Example incmgr configuration file
---
# This is an example configuration file for incmgr.  It is intended to be used
# as a reference for the configuration options available to the user.  The
# configuration file is located at ~/.config/incmgr/incmgr.yaml

# Base URL of the incident API; incidents are read and written under
# <endpoint>/incident
endpoint: http://localhost:8080

# Optional configuration options

# Timeout for each request to the incident API
timeout: 10s

# Discard list reloads that finish after a newer change has been applied
strict_ordering: false

# Serve client metrics on this address; empty disables the listener
metrics_addr: ""`
)

const description = `The config command is used to create or validate the incmgr config file.
The config file is located at ~/.config/incmgr/incmgr.yaml and is used to store
the configuration options for the incmgr application.  Every key may also be
set in the environment with the INCMGR_ prefix, e.g. INCMGR_ENDPOINT.`

var (
	defaultOptionalKeys = map[string]string{
		keyTimeout:        store.DefaultTimeout.String(),
		keyStrictOrdering: "false",
		keyMetricsAddr:    "",
	}
	optionalKeys = map[string]string{
		keyEndpoint:       fmt.Sprintf("Base URL of the incident API (default: %v)", store.DefaultEndpoint),
		keyTimeout:        fmt.Sprintf("Timeout for each request (default: %v)", defaultOptionalKeys[keyTimeout]),
		keyStrictOrdering: fmt.Sprintf("Discard stale list reloads (default: %v)", defaultOptionalKeys[keyStrictOrdering]),
		keyMetricsAddr:    "Address to serve client metrics on (default: disabled)",
	}
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:          "config",
	Short:        "Create or validate the incmgr config file",
	Long:         description + "\n\n" + exampleConfig,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case cmd.Flag("create").Value.String() == "true":
			fmt.Fprintln(cmd.OutOrStdout(), exampleConfig)
			return nil
		case cmd.Flag("validate").Value.String() == "true":
			err := validateConfig(viper.GetViper())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Config file is valid")
			return nil
		default:
			err := cmd.Usage()
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().BoolP("create", "c", false, "print a sample config file")
	configCmd.Flags().BoolP("validate", "v", false, "validate the config file")
	configCmd.MarkFlagsMutuallyExclusive("create", "validate")
}

// validateConfig checks that every known key holds a usable value
func validateConfig(v *viper.Viper) error {
	errs := []error{}
	settings := v.AllSettings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if deprecation.Deprecated(k) {
			r, _ := deprecation.Replacement(k)
			log.Info("Found deprecated key; you may remove this from your config", "key_name", k, "replacement", r)
			continue
		}
		if _, ok := optionalKeys[k]; !ok {
			log.Warn("Found unknown key", "key_name", k)
			continue
		}
		log.Debug("Found key", k, settings[k])
	}

	for k := range defaultOptionalKeys {
		if !v.IsSet(k) {
			log.Warn("missing optional key: " + k + "; using default value " + defaultOptionalKeys[k])
		}
	}

	if _, err := store.NewClient(store.Config{Endpoint: v.GetString(keyEndpoint)}); err != nil {
		errs = append(errs, err)
	}

	if raw := v.Get(keyTimeout); raw != nil {
		d, err := cast.ToDurationE(raw)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("invalid %s `%v`: %w", keyTimeout, raw, err))
		case d <= 0:
			errs = append(errs, fmt.Errorf("invalid %s `%v`: must be positive", keyTimeout, raw))
		}
	}

	if raw := v.Get(keyStrictOrdering); raw != nil {
		if _, err := cast.ToBoolE(raw); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s `%v`: %w", keyStrictOrdering, raw, err))
		}
	}

	return errors.Join(errs...)
}

// applyDeprecatedKeys copies values from deprecated keys onto their
// replacements when the replacement has not been set
func applyDeprecatedKeys(v *viper.Viper) {
	if v.IsSet(keyEndpoint) || !v.IsSet("host") {
		return
	}

	host := v.GetString("host")
	endpoint := "http://" + host
	if port := v.GetString("port"); port != "" {
		endpoint += ":" + port
	}
	log.Warn("Deprecated config keys found; use 'endpoint' instead", "host", host, "endpoint", endpoint)
	v.Set(keyEndpoint, endpoint)
}

func storeConfig(v *viper.Viper, reg prometheus.Registerer) store.Config {
	return store.Config{
		Endpoint:   v.GetString(keyEndpoint),
		Timeout:    v.GetDuration(keyTimeout),
		Registerer: reg,
	}
}

func ordering(v *viper.Viper) controller.Ordering {
	if v.GetBool(keyStrictOrdering) {
		return controller.OrderingStrict
	}
	return controller.OrderingLastResolved
}

func controllerOptions(v *viper.Viper) []controller.Option {
	return []controller.Option{controller.WithOrdering(ordering(v))}
}
