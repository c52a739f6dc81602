// Package credential handles credential bundle construction and the OS
// keyring password fallback.
package credential

import "github.com/peternagy/mongoauth/internal/mechanism"

// Bundle maps credential field names to externally supplied values. It is
// constructed explicitly and passed as an argument; nothing below the CLI
// edge reads ambient process state.
type Bundle map[string]string

// Get returns the value for a field, or "" when unset.
func (b Bundle) Get(field string) string {
	return b[field]
}

// Has reports whether a field is set to a non-empty value.
func (b Bundle) Has(field string) bool {
	return b[field] != ""
}

// Set returns a copy of the bundle with one field replaced. The receiver is
// not modified, so callers can hold the original for a later attempt.
func (b Bundle) Set(field, value string) Bundle {
	out := make(Bundle, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	out[field] = value
	return out
}

// envVars maps each mechanism's bundle fields to the environment variable
// names the demo scripts document.
var envVars = map[mechanism.Kind]map[string]string{
	mechanism.Password: {
		mechanism.FieldHost:       "MONGODB_HOST",
		mechanism.FieldPort:       "MONGODB_PORT",
		mechanism.FieldUsername:   "MONGODB_USERNAME",
		mechanism.FieldPassword:   "MONGODB_PASSWORD",
		mechanism.FieldAuthSource: "MONGODB_AUTH_SOURCE",
		mechanism.FieldDatabase:   "MONGODB_DATABASE",
	},
	mechanism.Certificate: {
		mechanism.FieldCertificateFile: "MONGODB_X509_CERT_FILE",
		mechanism.FieldCAFile:          "MONGODB_X509_CA_FILE",
		mechanism.FieldSubject:         "MONGODB_X509_SUBJECT",
		mechanism.FieldCluster:         "MONGODB_X509_CLUSTER",
		mechanism.FieldDatabase:        "MONGODB_X509_DATABASE",
	},
	mechanism.AwsIam: {
		mechanism.FieldAccessKeyID:     "AWS_ACCESS_KEY_ID",
		mechanism.FieldSecretAccessKey: "AWS_SECRET_ACCESS_KEY",
		mechanism.FieldSessionToken:    "AWS_SESSION_TOKEN",
		mechanism.FieldRegion:          "AWS_REGION",
		mechanism.FieldCluster:         "MONGODB_AWS_CLUSTER",
		mechanism.FieldDatabase:        "MONGODB_AWS_DATABASE",
	},
	mechanism.ApiKey: {
		mechanism.FieldPublicKey:  "ATLAS_PUBLIC_KEY",
		mechanism.FieldPrivateKey: "ATLAS_PRIVATE_KEY",
		mechanism.FieldCluster:    "ATLAS_CLUSTER",
		mechanism.FieldDatabase:   "ATLAS_DATABASE",
	},
	mechanism.ServiceAccountOidc: {
		mechanism.FieldKeyFile:     "OIDC_KEY_FILE",
		mechanism.FieldClientEmail: "OIDC_CLIENT_EMAIL",
		mechanism.FieldPrivateKey:  "OIDC_PRIVATE_KEY",
		mechanism.FieldProjectID:   "OIDC_PROJECT_ID",
		mechanism.FieldAudience:    "OIDC_AUDIENCE",
		mechanism.FieldIssuer:      "OIDC_ISSUER",
		mechanism.FieldCluster:     "OIDC_CLUSTER",
		mechanism.FieldDatabase:    "OIDC_DATABASE",
	},
}

// FromEnv builds a bundle for one mechanism from an environment snapshot.
// lookup is typically os.Getenv, but tests supply arbitrary maps. Unset
// variables simply leave the field empty; completeness is judged later by
// the configurator, fresh on every attempt.
func FromEnv(kind mechanism.Kind, lookup func(string) string) Bundle {
	vars, ok := envVars[kind]
	if !ok {
		return Bundle{}
	}
	b := make(Bundle, len(vars))
	for field, name := range vars {
		if v := lookup(name); v != "" {
			b[field] = v
		}
	}
	return b
}

// EnvVarName returns the environment variable backing a field for a
// mechanism. Used by remediation hints to name the exact variable to set.
func EnvVarName(kind mechanism.Kind, field string) string {
	return envVars[kind][field]
}
