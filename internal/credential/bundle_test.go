package credential

import (
	"testing"

	"github.com/peternagy/mongoauth/internal/mechanism"
)

func lookupFrom(env map[string]string) func(string) string {
	return func(name string) string { return env[name] }
}

func TestFromEnvPassword(t *testing.T) {
	env := map[string]string{
		"MONGODB_HOST":        "localhost",
		"MONGODB_PORT":        "27017",
		"MONGODB_USERNAME":    "admin",
		"MONGODB_PASSWORD":    "secret",
		"MONGODB_AUTH_SOURCE": "admin",
		"MONGODB_DATABASE":    "testdb",
	}

	b := FromEnv(mechanism.Password, lookupFrom(env))

	want := map[string]string{
		mechanism.FieldHost:       "localhost",
		mechanism.FieldPort:       "27017",
		mechanism.FieldUsername:   "admin",
		mechanism.FieldPassword:   "secret",
		mechanism.FieldAuthSource: "admin",
		mechanism.FieldDatabase:   "testdb",
	}
	for field, value := range want {
		if got := b.Get(field); got != value {
			t.Errorf("field %q = %q, want %q", field, got, value)
		}
	}
}

func TestFromEnvSkipsUnsetVariables(t *testing.T) {
	env := map[string]string{
		"AWS_ACCESS_KEY_ID": "AKIAEXAMPLE",
	}

	b := FromEnv(mechanism.AwsIam, lookupFrom(env))

	if !b.Has(mechanism.FieldAccessKeyID) {
		t.Error("accessKeyId should be set")
	}
	if b.Has(mechanism.FieldSecretAccessKey) {
		t.Error("secretAccessKey should be unset")
	}
	if b.Has(mechanism.FieldSessionToken) {
		t.Error("sessionToken should be unset")
	}
}

func TestEnvVarNameCoversRequiredFields(t *testing.T) {
	for _, kind := range mechanism.All() {
		d, _ := mechanism.Describe(kind)
		for _, field := range d.RequiredFields {
			if EnvVarName(kind, field) == "" {
				t.Errorf("%v: no environment variable mapped for required field %q", kind, field)
			}
		}
	}
}

func TestBundleSetDoesNotMutateReceiver(t *testing.T) {
	orig := Bundle{mechanism.FieldUsername: "admin"}
	modified := orig.Set(mechanism.FieldPassword, "secret")

	if orig.Has(mechanism.FieldPassword) {
		t.Error("Set mutated the original bundle")
	}
	if modified.Get(mechanism.FieldPassword) != "secret" {
		t.Error("Set did not apply to the copy")
	}
	if modified.Get(mechanism.FieldUsername) != "admin" {
		t.Error("Set dropped existing fields")
	}
}

func TestFillPasswordFromKeyringLeavesSetPasswordAlone(t *testing.T) {
	b := Bundle{
		mechanism.FieldUsername: "admin",
		mechanism.FieldPassword: "from-env",
	}
	got := FillPasswordFromKeyring(b)
	if got.Get(mechanism.FieldPassword) != "from-env" {
		t.Errorf("password = %q, want env value preserved", got.Get(mechanism.FieldPassword))
	}
}

func TestFillPasswordFromKeyringNeedsUsername(t *testing.T) {
	b := Bundle{}
	got := FillPasswordFromKeyring(b)
	if got.Has(mechanism.FieldPassword) {
		t.Error("password filled without a username")
	}
}
