// Command flagsctl is a small operator CLI around the SDK: it builds one
// Client from the same SDK-key/base-URL flags a real integration would
// use, and exercises evaluate, datafile, and fallback end-to-end against
// a running (or bundled) configuration source. It is not part of the SDK
// surface itself — a consumer embeds the flags package directly — this
// exists for manual testing and CI smoke checks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vercel/flags-sub000"
)

var (
	sdkKey      string
	baseURL     string
	bundledPath string
	initTimeout time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "flagsctl",
		Short: "Exercise the flags SDK client from the command line",
	}
	root.PersistentFlags().StringVar(&sdkKey, "sdk-key", os.Getenv(flags.DefaultSDKKeyEnvVar), "SDK key or connection string (defaults to FLAGS_SDK_KEY)")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "override the edge API base URL")
	root.PersistentFlags().StringVar(&bundledPath, "bundled-path", "", "path to a bundled-definitions artifact")
	root.PersistentFlags().DurationVar(&initTimeout, "init-timeout", 3*time.Second, "stream init timeout before falling back")

	root.AddCommand(newEvaluateCmd(), newDatafileCmd(), newFallbackCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() (*flags.Client, error) {
	return flags.New(sdkKey, flags.Options{
		BaseURL:     baseURL,
		BundledPath: bundledPath,
		InitTimeout: initTimeout,
	})
}

func newEvaluateCmd() *cobra.Command {
	var defaultValue string
	var entityJSON string

	cmd := &cobra.Command{
		Use:   "evaluate <flag-key>",
		Short: "Evaluate a single flag and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Shutdown()

			var entities flags.Context
			if entityJSON != "" {
				if err := json.Unmarshal([]byte(entityJSON), &entities); err != nil {
					return fmt.Errorf("parse --entities: %w", err)
				}
			}

			var result any
			var evalErr error
			if defaultValue != "" {
				var dv any
				if err := json.Unmarshal([]byte(defaultValue), &dv); err != nil {
					dv = defaultValue
				}
				result, evalErr = c.Evaluate(cmd.Context(), args[0], entities, dv)
			} else {
				result, evalErr = c.Evaluate(cmd.Context(), args[0], entities)
			}
			if evalErr != nil {
				return evalErr
			}
			return printJSON(result)
		},
	}
	cmd.Flags().StringVar(&defaultValue, "default", "", "default value as a JSON literal (falls back to a raw string)")
	cmd.Flags().StringVar(&entityJSON, "entities", "", `entity context as JSON, e.g. {"user":{"id":"u1"}}`)
	return cmd
}

func newDatafileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datafile",
		Short: "Print the datafile currently in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Shutdown()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			df, err := c.GetDatafile(ctx)
			if err != nil {
				return err
			}
			return printJSON(df)
		},
	}
}

func newFallbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fallback",
		Short: "Print the bundled fallback datafile, without any network calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Shutdown()

			df, err := c.GetFallbackDatafile()
			if err != nil {
				return err
			}
			return printJSON(df)
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
