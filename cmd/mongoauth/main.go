// Command mongoauth demonstrates MongoDB authentication mechanisms. With
// complete credentials in the environment it connects for real and runs a
// short operation sequence; otherwise it narrates a simulated walkthrough.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/peternagy/mongoauth/internal/demo"
	"github.com/peternagy/mongoauth/internal/mechanism"
	"github.com/peternagy/mongoauth/internal/runner"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		timeout    time.Duration
		verbose    bool
		envFile    string
		useKeyring bool
	)

	mechanisms := make([]string, 0, len(mechanism.All())+1)
	for _, k := range mechanism.All() {
		mechanisms = append(mechanisms, string(k))
	}
	mechanisms = append(mechanisms, "all")

	cmd := &cobra.Command{
		Use:   "mongoauth <mechanism>",
		Short: "Demonstrate MongoDB authentication mechanisms",
		Long: "Demonstrates MongoDB authentication mechanisms: " + strings.Join(mechanisms, ", ") + ".\n" +
			"Each demonstration connects, lists databases and collections, inserts a\n" +
			"document, samples documents and fetches collection stats. When required\n" +
			"credentials are missing from the environment the run is simulated.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			log := logrus.New()
			log.SetOutput(cmd.ErrOrStderr())
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}

			// A missing .env file is fine; explicit paths must exist.
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					err = fmt.Errorf("failed to load env file %s: %w", envFile, err)
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					return err
				}
			} else {
				_ = godotenv.Load()
			}

			d := &demo.Demonstrator{
				Dialer:     &runner.MongoDialer{},
				Lookup:     os.Getenv,
				Out:        cmd.OutOrStdout(),
				Log:        log,
				Timeout:    timeout,
				UseKeyring: useKeyring,
			}

			ctx := context.Background()
			if args[0] == "all" {
				d.RunAll(ctx)
				return nil
			}

			kind, err := mechanism.Parse(args[0])
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			if err := d.Run(ctx, kind); err != nil {
				// Already narrated with hints; the non-zero exit is the point.
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "override the mechanism-default server selection timeout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVar(&envFile, "env-file", "", "load environment variables from this file")
	cmd.Flags().BoolVar(&useKeyring, "keyring", false, "fall back to the OS keyring for the password mechanism")

	return cmd
}
