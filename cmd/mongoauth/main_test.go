package main

import (
	"bytes"
	"strings"
	"testing"
)

func execute(args ...string) (stdout, stderr string, err error) {
	cmd := newRootCmd()
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestNoArgumentPrintsUsage(t *testing.T) {
	stdout, _, err := execute()
	if err != nil {
		t.Fatalf("help should not error: %v", err)
	}
	if !strings.Contains(stdout, "mongoauth <mechanism>") {
		t.Errorf("usage summary missing from output:\n%s", stdout)
	}
}

func TestUnknownMechanismFails(t *testing.T) {
	_, stderr, err := execute("kerberos")
	if err == nil {
		t.Fatal("unknown mechanism should error")
	}
	if !strings.Contains(stderr, "unknown authentication mechanism") {
		t.Errorf("error message missing from stderr:\n%s", stderr)
	}
}

func TestTooManyArgumentsFails(t *testing.T) {
	_, _, err := execute("password", "certificate")
	if err == nil {
		t.Fatal("two positional arguments should error")
	}
}

// With an empty environment every mechanism simulates, so the batch run
// completes without error and without touching a real server.
func TestAllWithEmptyEnvironmentSimulates(t *testing.T) {
	for _, name := range []string{
		"MONGODB_HOST", "MONGODB_PORT", "MONGODB_USERNAME", "MONGODB_PASSWORD",
		"MONGODB_AUTH_SOURCE", "MONGODB_DATABASE",
		"MONGODB_X509_CERT_FILE", "MONGODB_X509_CA_FILE", "MONGODB_X509_CLUSTER", "MONGODB_X509_DATABASE",
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN", "AWS_REGION",
		"MONGODB_AWS_CLUSTER", "MONGODB_AWS_DATABASE",
		"ATLAS_PUBLIC_KEY", "ATLAS_PRIVATE_KEY", "ATLAS_CLUSTER", "ATLAS_DATABASE",
		"OIDC_KEY_FILE", "OIDC_CLIENT_EMAIL", "OIDC_PRIVATE_KEY", "OIDC_PROJECT_ID",
		"OIDC_AUDIENCE", "OIDC_ISSUER", "OIDC_CLUSTER", "OIDC_DATABASE",
	} {
		t.Setenv(name, "")
	}

	stdout, _, err := execute("all")
	if err != nil {
		t.Fatalf("batch run should not error: %v", err)
	}
	if got := strings.Count(stdout, "SIMULATED RUN"); got != 5 {
		t.Errorf("simulated runs = %d, want 5\n%s", got, stdout)
	}
}
