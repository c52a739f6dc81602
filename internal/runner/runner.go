// Package runner executes a connection plan: dial, authenticate, then the
// fixed demonstration sequence of database operations. The runner owns
// exactly one session per run and releases it on every exit path.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/peternagy/mongoauth/internal/configurator"
	"github.com/peternagy/mongoauth/internal/mechanism"
	"github.com/peternagy/mongoauth/internal/types"
)

// DemoCollection is the collection the demonstration writes to and reads
// from.
const DemoCollection = "auth_demo"

// SampleLimit caps how many documents the sample read returns.
const SampleLimit = 5

// Step names the suspension points of one run, in execution order.
type Step string

const (
	StepConnect         Step = "connect"
	StepListDatabases   Step = "list-databases"
	StepListCollections Step = "list-collections"
	StepInsert          Step = "insert"
	StepSample          Step = "sample"
	StepStats           Step = "stats"
)

// ConnectionError means the driver could not establish or authenticate a
// connection. Never retried here; the demo surfaces it with mechanism
// hints.
type ConnectionError struct {
	Mechanism mechanism.Kind
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection failed: %v", e.Mechanism, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// OperationError means one database operation failed after a successful
// connection. It aborts the remaining sequence but never prevents the
// session from closing.
type OperationError struct {
	Step Step
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: %v", e.Step, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Session is one live connection. Ping is the real connect step: dialing
// is lazy in the driver, so authentication failures surface there.
type Session interface {
	Ping(ctx context.Context) error
	ListDatabases(ctx context.Context) ([]types.DatabaseInfo, error)
	ListCollections(ctx context.Context, database string) ([]types.CollectionInfo, error)
	InsertDocument(ctx context.Context, database, collection string, doc map[string]any) (string, error)
	SampleDocuments(ctx context.Context, database, collection string, limit int64) ([]map[string]any, error)
	CollectionStats(ctx context.Context, database, collection string) (*types.CollectionStats, error)
	Close(ctx context.Context) error
}

// Dialer turns a connection plan into a session.
type Dialer interface {
	Dial(ctx context.Context, plan *configurator.ConnectionPlan) (Session, error)
}

// Runner executes plans.
type Runner struct {
	dialer Dialer
	log    logrus.FieldLogger
}

// New creates a runner. A nil logger falls back to the standard logrus
// logger.
func New(dialer Dialer, log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{dialer: dialer, log: log}
}

// Run performs the demonstration sequence strictly in order: list databases,
// list collections, insert one document, sample documents, collection stats.
// No operation is issued before its predecessor completes. The first failure
// short-circuits the rest; the session is closed exactly once on every exit
// path. The partial operation log is returned alongside the error so the
// caller can narrate what did succeed.
func (r *Runner) Run(ctx context.Context, plan *configurator.ConnectionPlan) (log *types.OperationLog, err error) {
	desc, _ := mechanism.Describe(plan.Kind)
	log = &types.OperationLog{
		Mechanism: string(plan.Kind),
		StartedAt: time.Now(),
	}

	session, err := r.dialer.Dial(ctx, plan)
	if err != nil {
		return log, &ConnectionError{Mechanism: plan.Kind, Err: err}
	}
	defer func() {
		if closeErr := session.Close(context.WithoutCancel(ctx)); closeErr != nil {
			r.log.WithError(closeErr).Warn("failed to close connection")
		}
	}()

	if err := session.Ping(ctx); err != nil {
		return log, &ConnectionError{Mechanism: plan.Kind, Err: err}
	}
	r.log.WithField("mechanism", plan.Kind).Debug("connected")

	databases, err := session.ListDatabases(ctx)
	if err != nil {
		return log, &OperationError{Step: StepListDatabases, Err: err}
	}
	log.Databases = databases

	collections, err := session.ListCollections(ctx, plan.Database)
	if err != nil {
		return log, &OperationError{Step: StepListCollections, Err: err}
	}
	log.Collections = collections

	doc := map[string]any{
		"authMethod": desc.AuthMethodTag,
		"message":    fmt.Sprintf("authenticated via %s", plan.Kind),
		"createdAt":  time.Now(),
	}
	insertedID, err := session.InsertDocument(ctx, plan.Database, DemoCollection, doc)
	if err != nil {
		return log, &OperationError{Step: StepInsert, Err: err}
	}
	log.InsertedID = insertedID
	log.InsertedDocument = doc

	samples, err := session.SampleDocuments(ctx, plan.Database, DemoCollection, SampleLimit)
	if err != nil {
		return log, &OperationError{Step: StepSample, Err: err}
	}
	log.Samples = samples

	stats, err := session.CollectionStats(ctx, plan.Database, DemoCollection)
	if err != nil {
		return log, &OperationError{Step: StepStats, Err: err}
	}
	log.Stats = stats

	return log, nil
}
