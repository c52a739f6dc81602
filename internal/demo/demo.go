// Package demo orchestrates one authentication demonstration per mechanism:
// build the credential bundle, validate it, then either run the live
// operation sequence or narrate the simulated walkthrough.
package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/peternagy/mongoauth/internal/configurator"
	"github.com/peternagy/mongoauth/internal/credential"
	"github.com/peternagy/mongoauth/internal/mechanism"
	"github.com/peternagy/mongoauth/internal/runner"
	"github.com/peternagy/mongoauth/internal/types"
)

// Demonstrator runs authentication demonstrations. All collaborators are
// injected so tests can supply fake environments and dialers.
type Demonstrator struct {
	Dialer runner.Dialer
	Lookup func(string) string // environment snapshot, typically os.Getenv
	Out    io.Writer
	Log    logrus.FieldLogger

	// Timeout overrides the mechanism-default server selection timeout
	// when positive.
	Timeout time.Duration

	// UseKeyring enables the OS keyring fallback for the password
	// mechanism's password field.
	UseKeyring bool
}

// Run demonstrates a single mechanism. An incomplete credential bundle is
// not an error: the simulated walkthrough runs instead. Connection and
// operation failures are logged with remediation hints and returned so a
// single-mechanism invocation can exit non-zero.
func (d *Demonstrator) Run(ctx context.Context, kind mechanism.Kind) error {
	log := d.Log.WithField("mechanism", kind)

	bundle := credential.FromEnv(kind, d.Lookup)
	if kind == mechanism.Password && d.UseKeyring {
		bundle = credential.FillPasswordFromKeyring(bundle)
	}

	validation := configurator.Validate(bundle, kind)
	if !validation.Complete {
		log.WithFields(logrus.Fields{
			"missing":      validation.Missing,
			"missingFiles": validation.MissingFiles,
		}).Info("credentials incomplete, running simulation")
		d.renderMissing(kind, validation)
		d.render(configurator.DescribeSimulation(kind))
		return nil
	}

	plan, err := configurator.BuildPlan(bundle, kind)
	if err != nil {
		// Validation passed but plan assembly failed, e.g. unparseable
		// service account key material.
		log.WithError(err).Error("failed to build connection plan")
		d.renderHint(kind, err)
		return err
	}
	plan.OverrideTimeout(d.Timeout)

	opLog, err := runner.New(d.Dialer, d.Log).Run(ctx, plan)
	if err != nil {
		log.WithError(err).Error("demonstration failed")
		d.render(opLog)
		d.renderHint(kind, err)
		return err
	}

	d.render(opLog)
	return nil
}

// RunAll demonstrates every mechanism in order. One mechanism's failure
// never prevents the next from running, and the batch itself always
// succeeds; failures are surfaced in the narration and logs only.
func (d *Demonstrator) RunAll(ctx context.Context) {
	for _, kind := range mechanism.All() {
		if err := d.Run(ctx, kind); err != nil {
			d.Log.WithField("mechanism", kind).WithError(err).
				Warn("continuing with next mechanism")
		}
	}
}

func (d *Demonstrator) renderMissing(kind mechanism.Kind, v configurator.Validation) {
	for _, field := range v.Missing {
		fmt.Fprintf(d.Out, "  credential not set: %s (set %s)\n",
			field, credential.EnvVarName(kind, field))
	}
	for _, field := range v.MissingFiles {
		fmt.Fprintf(d.Out, "  file not found: %s (fix the path in %s)\n",
			field, credential.EnvVarName(kind, field))
	}
}

// render narrates an operation log. Simulated runs are unmistakably marked
// so placeholder output is never mistaken for a real connection.
func (d *Demonstrator) render(opLog *types.OperationLog) {
	if opLog == nil {
		return
	}

	fmt.Fprintf(d.Out, "=== mechanism: %s ===\n", opLog.Mechanism)
	if opLog.Simulated {
		fmt.Fprintln(d.Out, "*** SIMULATED RUN — no real connection was made ***")
	}

	if len(opLog.Databases) > 0 {
		fmt.Fprintln(d.Out, "databases:")
		for _, db := range opLog.Databases {
			fmt.Fprintf(d.Out, "  %-10s %8d bytes\n", db.Name, db.SizeOnDisk)
		}
	}
	if len(opLog.Collections) > 0 {
		fmt.Fprintln(d.Out, "collections:")
		for _, coll := range opLog.Collections {
			fmt.Fprintf(d.Out, "  %-10s %s (%d documents)\n", coll.Name, coll.Type, coll.Count)
		}
	}
	if opLog.InsertedID != "" {
		fmt.Fprintf(d.Out, "inserted document: %s (authMethod=%v)\n",
			opLog.InsertedID, opLog.InsertedDocument["authMethod"])
	}
	if len(opLog.Samples) > 0 {
		fmt.Fprintf(d.Out, "sampled %d document(s)\n", len(opLog.Samples))
	}
	if opLog.Stats != nil {
		fmt.Fprintf(d.Out, "stats: %s count=%d size=%d storage=%d indexes=%d\n",
			opLog.Stats.Namespace, opLog.Stats.Count, opLog.Stats.Size,
			opLog.Stats.StorageSize, opLog.Stats.IndexCount)
	}
	fmt.Fprintln(d.Out)
}

func (d *Demonstrator) renderHint(kind mechanism.Kind, err error) {
	var cfgErr *configurator.ConfigurationError
	var connErr *runner.ConnectionError
	var opErr *runner.OperationError

	switch {
	case errors.As(err, &cfgErr):
		fmt.Fprintf(d.Out, "configuration problem: %v\n", cfgErr)
	case errors.As(err, &connErr):
		fmt.Fprintf(d.Out, "connection failed: %v\n", connErr.Err)
		fmt.Fprintf(d.Out, "hint: %s\n", connectionHint(kind))
	case errors.As(err, &opErr):
		fmt.Fprintf(d.Out, "operation %s failed after a successful connection: %v\n",
			opErr.Step, opErr.Err)
		fmt.Fprintln(d.Out, "hint: check that the authenticated principal has read/write access to the demo database")
	default:
		fmt.Fprintf(d.Out, "unexpected failure: %v\n", err)
	}
	fmt.Fprintln(d.Out)
}
