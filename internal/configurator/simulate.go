package configurator

import (
	"fmt"
	"time"

	"github.com/peternagy/mongoauth/internal/mechanism"
	"github.com/peternagy/mongoauth/internal/types"
)

// The simulated dataset is fixed so demonstrations run identically without
// any infrastructure. Only timestamp fields vary between calls. Simulated
// output must never be mistaken for a real connection outcome; the log is
// marked and renderers label it.

var simulatedDatabases = []types.DatabaseInfo{
	{Name: "admin", SizeOnDisk: 102400},
	{Name: "config", SizeOnDisk: 73728},
	{Name: "local", SizeOnDisk: 81920},
	{Name: "testdb", SizeOnDisk: 405504},
}

var simulatedCollections = []types.CollectionInfo{
	{Name: "auth_demo", Type: "collection", Count: 42},
	{Name: "logs", Type: "collection", Count: 1337},
	{Name: "users", Type: "collection", Count: 7},
}

// DescribeSimulation produces the scripted walkthrough used when required
// credentials are absent. The inserted document is tagged with the
// mechanism so the narration shows which auth path would have run.
func DescribeSimulation(kind mechanism.Kind) *types.OperationLog {
	desc, ok := mechanism.Describe(kind)
	if !ok {
		desc = mechanism.Descriptor{Kind: kind, AuthMethodTag: string(kind)}
	}

	databases := make([]types.DatabaseInfo, len(simulatedDatabases))
	copy(databases, simulatedDatabases)
	collections := make([]types.CollectionInfo, len(simulatedCollections))
	copy(collections, simulatedCollections)

	return &types.OperationLog{
		Mechanism:   string(kind),
		Simulated:   true,
		StartedAt:   time.Now(),
		Databases:   databases,
		Collections: collections,
		InsertedID:  fmt.Sprintf("simulated-%s", desc.AuthMethodTag),
		InsertedDocument: map[string]any{
			"authMethod": desc.AuthMethodTag,
			"message":    fmt.Sprintf("simulated insert for %s authentication", kind),
		},
		Samples: []map[string]any{
			{"authMethod": desc.AuthMethodTag, "message": "sample document 1"},
			{"authMethod": desc.AuthMethodTag, "message": "sample document 2"},
		},
		Stats: &types.CollectionStats{
			Namespace:   "testdb.auth_demo",
			Count:       42,
			Size:        8192,
			StorageSize: 16384,
			AvgObjSize:  195,
			IndexCount:  1,
		},
	}
}
