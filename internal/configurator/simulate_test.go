package configurator

import (
	"reflect"
	"testing"

	"github.com/peternagy/mongoauth/internal/mechanism"
)

// The simulated walkthrough must be deterministic: two calls with no state
// change yield identical content except for timestamp fields.
func TestDescribeSimulationIsDeterministic(t *testing.T) {
	for _, kind := range mechanism.All() {
		t.Run(string(kind), func(t *testing.T) {
			first := DescribeSimulation(kind)
			second := DescribeSimulation(kind)

			first.StartedAt = second.StartedAt
			if !reflect.DeepEqual(first, second) {
				t.Errorf("simulation output differs between calls:\n%+v\n%+v", first, second)
			}
		})
	}
}

func TestDescribeSimulationIsMarkedSimulated(t *testing.T) {
	for _, kind := range mechanism.All() {
		if !DescribeSimulation(kind).Simulated {
			t.Errorf("%v: simulation log not marked simulated", kind)
		}
	}
}

func TestDescribeSimulationFixedDataset(t *testing.T) {
	log := DescribeSimulation(mechanism.Password)

	wantDBs := []string{"admin", "config", "local", "testdb"}
	if len(log.Databases) != len(wantDBs) {
		t.Fatalf("databases = %v", log.Databases)
	}
	for i, name := range wantDBs {
		if log.Databases[i].Name != name {
			t.Errorf("database[%d] = %q, want %q", i, log.Databases[i].Name, name)
		}
	}

	wantColls := []string{"auth_demo", "logs", "users"}
	for i, name := range wantColls {
		if log.Collections[i].Name != name {
			t.Errorf("collection[%d] = %q, want %q", i, log.Collections[i].Name, name)
		}
	}
}

func TestDescribeSimulationTagsInsertedDocument(t *testing.T) {
	want := map[mechanism.Kind]string{
		mechanism.Password:           "password",
		mechanism.Certificate:        "x509-certificate",
		mechanism.AwsIam:             "aws-iam",
		mechanism.ApiKey:             "atlas-api-key",
		mechanism.ServiceAccountOidc: "oidc-service-account",
	}
	for kind, tag := range want {
		log := DescribeSimulation(kind)
		if got := log.InsertedDocument["authMethod"]; got != tag {
			t.Errorf("%v: authMethod = %v, want %q", kind, got, tag)
		}
	}
}

// Mutating one simulation's slices must not leak into the next call.
func TestDescribeSimulationCopiesFixedData(t *testing.T) {
	first := DescribeSimulation(mechanism.Password)
	first.Databases[0].Name = "mutated"

	second := DescribeSimulation(mechanism.Password)
	if second.Databases[0].Name != "admin" {
		t.Error("simulation dataset was mutated by a previous caller")
	}
}
