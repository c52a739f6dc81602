// Package configurator translates a credential bundle into a connection
// plan for one authentication mechanism, or reports exactly which inputs
// are missing. It is a pure configuration-mapping layer: no retries, no
// caching, no connection lifecycle.
package configurator

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/peternagy/mongoauth/internal/awscreds"
	"github.com/peternagy/mongoauth/internal/credential"
	"github.com/peternagy/mongoauth/internal/mechanism"
	"github.com/peternagy/mongoauth/internal/token"
)

// Mechanism option keys. Each mechanism emits a closed subset of these;
// vocabularies never mix (no TLS keys for password auth, no AWS keys for
// certificate auth).
const (
	OptServerSelectionTimeoutMS = "serverSelectionTimeoutMS"
	OptAuthMechanism            = "authMechanism"
	OptAuthSource               = "authSource"
	OptTLSCertificateKeyFile    = "tlsCertificateKeyFile"
	OptTLSCAFile                = "tlsCAFile"
	OptUsername                 = "username"
	OptPassword                 = "password"
	OptRegion                   = "region"
	OptSessionToken             = "AWS_SESSION_TOKEN"
)

// Driver auth mechanism tokens.
const (
	authMechanismX509 = "MONGODB-X509"
	authMechanismAWS  = "MONGODB-AWS"
	authMechanismOIDC = "MONGODB-OIDC"
)

const externalAuthSource = "$external"

// ConnectionPlan is the derived, ready-to-use set of endpoint and option
// values handed to the driver. Constructed fresh per connection attempt and
// discarded after use; never persisted.
type ConnectionPlan struct {
	Kind             mechanism.Kind
	EndpointURI      string
	Database         string
	MechanismOptions map[string]string
	Timeout          time.Duration

	// TokenSupplier is set only for the OIDC mechanism. The driver invokes
	// it per connection attempt and on reauthentication, so the plan carries
	// the callback contract rather than a static token.
	TokenSupplier token.Supplier

	// AWSCredentials is set only for the AWS mechanism. The same bundle
	// material that authenticates the database handshake also configures
	// cloud API calls, explicitly, never via ambient SDK discovery.
	AWSCredentials aws.CredentialsProvider
}

// OverrideTimeout replaces the mechanism-default server selection timeout,
// keeping the option map consistent with the Timeout field.
func (p *ConnectionPlan) OverrideTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	p.Timeout = d
	p.MechanismOptions[OptServerSelectionTimeoutMS] = fmt.Sprintf("%d", d.Milliseconds())
}

// Validation is the result of checking a bundle against a mechanism's
// descriptor. Missing lists unset or empty fields; MissingFiles lists fields
// that are set but whose referenced file does not exist. The two are
// reported distinctly because the remediation differs: set the variable
// versus fix the path.
type Validation struct {
	Complete     bool
	Missing      []string
	MissingFiles []string
}

// ConfigurationError reports an incomplete or malformed bundle. It is never
// retried; the caller falls back to simulation or surfaces it to the user.
type ConfigurationError struct {
	Kind         mechanism.Kind
	Missing      []string
	MissingFiles []string
	Reason       string
	Err          error
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing fields: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.MissingFiles) > 0 {
		parts = append(parts, fmt.Sprintf("files not found: %s", strings.Join(e.MissingFiles, ", ")))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return fmt.Sprintf("%s configuration invalid: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Validate checks completeness of a bundle for a mechanism. Pure function:
// its only inputs are the bundle, the descriptor table, and (for file
// fields) the filesystem. Completeness is re-evaluated on every attempt
// because the environment may change between runs.
func Validate(b credential.Bundle, kind mechanism.Kind) Validation {
	desc, ok := mechanism.Describe(kind)
	if !ok {
		return Validation{Missing: []string{"mechanism"}}
	}

	v := Validation{}
	fileFields := make(map[string]bool, len(desc.FileFields))
	for _, f := range desc.FileFields {
		fileFields[f] = true
	}

	for _, field := range desc.RequiredFields {
		if !b.Has(field) {
			v.Missing = append(v.Missing, field)
			continue
		}
		if fileFields[field] && !fileExists(b.Get(field)) {
			v.MissingFiles = append(v.MissingFiles, field)
		}
	}

	if kind == mechanism.ServiceAccountOidc {
		validateKeySource(b, &v)
	}

	v.Complete = len(v.Missing) == 0 && len(v.MissingFiles) == 0
	return v
}

// validateKeySource enforces the OIDC either/or rule: a key document file,
// or the full clientEmail/privateKey/projectId triple.
func validateKeySource(b credential.Bundle, v *Validation) {
	if b.Has(mechanism.FieldKeyFile) {
		if !fileExists(b.Get(mechanism.FieldKeyFile)) {
			v.MissingFiles = append(v.MissingFiles, mechanism.FieldKeyFile)
		}
		return
	}

	inline := []string{mechanism.FieldClientEmail, mechanism.FieldPrivateKey, mechanism.FieldProjectID}
	anySet := false
	for _, f := range inline {
		if b.Has(f) {
			anySet = true
			break
		}
	}
	if !anySet {
		v.Missing = append(v.Missing, mechanism.FieldKeyFile)
		return
	}
	for _, f := range inline {
		if !b.Has(f) {
			v.Missing = append(v.Missing, f)
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// BuildPlan derives a ConnectionPlan from a complete bundle. It fails with
// a *ConfigurationError when validation reports incompleteness; required
// security-relevant fields are never silently defaulted.
func BuildPlan(b credential.Bundle, kind mechanism.Kind) (*ConnectionPlan, error) {
	desc, ok := mechanism.Describe(kind)
	if !ok {
		return nil, &ConfigurationError{Kind: kind, Reason: "unknown mechanism"}
	}

	if v := Validate(b, kind); !v.Complete {
		return nil, &ConfigurationError{Kind: kind, Missing: v.Missing, MissingFiles: v.MissingFiles}
	}

	plan := &ConnectionPlan{
		Kind:     kind,
		Database: b.Get(mechanism.FieldDatabase),
		Timeout:  desc.ServerSelectionTimeout,
		MechanismOptions: map[string]string{
			OptServerSelectionTimeoutMS: fmt.Sprintf("%d", desc.ServerSelectionTimeout.Milliseconds()),
		},
	}

	var err error
	switch kind {
	case mechanism.Password:
		plan.EndpointURI = buildPasswordURI(b)
	case mechanism.Certificate:
		plan.EndpointURI = buildCertificateURI(b)
		plan.MechanismOptions[OptAuthMechanism] = authMechanismX509
		plan.MechanismOptions[OptAuthSource] = externalAuthSource
		plan.MechanismOptions[OptTLSCertificateKeyFile] = b.Get(mechanism.FieldCertificateFile)
		plan.MechanismOptions[OptTLSCAFile] = b.Get(mechanism.FieldCAFile)
		if b.Has(mechanism.FieldSubject) {
			plan.MechanismOptions[OptUsername] = b.Get(mechanism.FieldSubject)
		}
	case mechanism.AwsIam:
		plan.EndpointURI = buildAwsURI(b)
		plan.MechanismOptions[OptAuthMechanism] = authMechanismAWS
		plan.MechanismOptions[OptAuthSource] = externalAuthSource
		plan.MechanismOptions[OptUsername] = b.Get(mechanism.FieldAccessKeyID)
		plan.MechanismOptions[OptPassword] = b.Get(mechanism.FieldSecretAccessKey)
		plan.MechanismOptions[OptRegion] = b.Get(mechanism.FieldRegion)
		if b.Has(mechanism.FieldSessionToken) {
			plan.MechanismOptions[OptSessionToken] = b.Get(mechanism.FieldSessionToken)
		}
		plan.AWSCredentials = awscreds.NewCachingProvider(awscreds.NewStaticProvider(
			b.Get(mechanism.FieldAccessKeyID),
			b.Get(mechanism.FieldSecretAccessKey),
			b.Get(mechanism.FieldSessionToken),
		))
	case mechanism.ApiKey:
		plan.EndpointURI = buildApiKeyURI(b)
	case mechanism.ServiceAccountOidc:
		plan.EndpointURI = buildOidcURI(b)
		plan.MechanismOptions[OptAuthMechanism] = authMechanismOIDC
		plan.MechanismOptions[OptAuthSource] = externalAuthSource
		plan.TokenSupplier, err = buildTokenSupplier(b)
		if err != nil {
			return nil, &ConfigurationError{Kind: kind, Reason: "invalid service account key material", Err: err}
		}
	}

	return plan, nil
}

func buildTokenSupplier(b credential.Bundle) (token.Supplier, error) {
	cfg := token.ServiceAccountConfig{
		Audience: b.Get(mechanism.FieldAudience),
		Issuer:   b.Get(mechanism.FieldIssuer),
	}
	if b.Has(mechanism.FieldKeyFile) {
		doc, err := token.LoadKeyDocument(b.Get(mechanism.FieldKeyFile))
		if err != nil {
			return nil, err
		}
		cfg.ClientEmail = doc.ClientEmail
		cfg.PrivateKeyPEM = doc.PrivateKey
		cfg.ProjectID = doc.ProjectID
	} else {
		cfg.ClientEmail = b.Get(mechanism.FieldClientEmail)
		// Environment variables carry PEM newlines as literal \n sequences.
		cfg.PrivateKeyPEM = strings.ReplaceAll(b.Get(mechanism.FieldPrivateKey), `\n`, "\n")
		cfg.ProjectID = b.Get(mechanism.FieldProjectID)
	}
	return token.NewServiceAccountSupplier(cfg)
}
