// Package mechanism defines the closed set of supported MongoDB
// authentication mechanisms and the per-mechanism metadata that drives
// validation and connection planning.
package mechanism

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies one authentication mechanism.
type Kind string

const (
	Password           Kind = "password"
	Certificate        Kind = "certificate"
	AwsIam             Kind = "aws"
	ApiKey             Kind = "apikey"
	ServiceAccountOidc Kind = "serviceaccount"
)

// Credential bundle field names. Each mechanism requires a subset of these;
// see the descriptor table below.
const (
	FieldHost            = "host"
	FieldPort            = "port"
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldAuthSource      = "authSource"
	FieldDatabase        = "database"
	FieldCertificateFile = "certificateFile"
	FieldCAFile          = "caFile"
	FieldSubject         = "subject"
	FieldCluster         = "cluster"
	FieldAccessKeyID     = "accessKeyId"
	FieldSecretAccessKey = "secretAccessKey"
	FieldSessionToken    = "sessionToken"
	FieldRegion          = "region"
	FieldPublicKey       = "publicKey"
	FieldPrivateKey      = "privateKey"
	FieldKeyFile         = "keyFile"
	FieldClientEmail     = "clientEmail"
	FieldProjectID       = "projectId"
	FieldAudience        = "audience"
	FieldIssuer          = "issuer"
)

// Descriptor is the per-mechanism rule set: which bundle fields must be
// present, which of those are filesystem paths that must exist, and the
// server selection timeout for the mechanism. Cloud-hosted and federated
// mechanisms get longer timeouts because credential lookup and token
// exchange happen before the database handshake starts.
type Descriptor struct {
	Kind                   Kind
	RequiredFields         []string
	FileFields             []string
	OptionalFields         []string
	ServerSelectionTimeout time.Duration
	AuthMethodTag          string
}

var descriptors = map[Kind]Descriptor{
	Password: {
		Kind: Password,
		RequiredFields: []string{
			FieldHost, FieldPort, FieldUsername, FieldPassword,
			FieldAuthSource, FieldDatabase,
		},
		ServerSelectionTimeout: 5 * time.Second,
		AuthMethodTag:          "password",
	},
	Certificate: {
		Kind: Certificate,
		RequiredFields: []string{
			FieldCertificateFile, FieldCAFile, FieldCluster, FieldDatabase,
		},
		FileFields:             []string{FieldCertificateFile, FieldCAFile},
		OptionalFields:         []string{FieldSubject},
		ServerSelectionTimeout: 10 * time.Second,
		AuthMethodTag:          "x509-certificate",
	},
	AwsIam: {
		Kind: AwsIam,
		RequiredFields: []string{
			FieldAccessKeyID, FieldSecretAccessKey, FieldRegion,
			FieldCluster, FieldDatabase,
		},
		OptionalFields:         []string{FieldSessionToken},
		ServerSelectionTimeout: 10 * time.Second,
		AuthMethodTag:          "aws-iam",
	},
	ApiKey: {
		Kind: ApiKey,
		RequiredFields: []string{
			FieldPublicKey, FieldPrivateKey, FieldCluster, FieldDatabase,
		},
		ServerSelectionTimeout: 10 * time.Second,
		AuthMethodTag:          "atlas-api-key",
	},
	ServiceAccountOidc: {
		Kind: ServiceAccountOidc,
		// Key material is validated separately: either keyFile, or the
		// clientEmail/privateKey/projectId triple.
		RequiredFields: []string{
			FieldAudience, FieldIssuer, FieldCluster, FieldDatabase,
		},
		OptionalFields: []string{
			FieldKeyFile, FieldClientEmail, FieldPrivateKey, FieldProjectID,
		},
		ServerSelectionTimeout: 15 * time.Second,
		AuthMethodTag:          "oidc-service-account",
	},
}

// All returns every mechanism kind in demonstration order.
func All() []Kind {
	return []Kind{Password, Certificate, AwsIam, ApiKey, ServiceAccountOidc}
}

// Describe returns the descriptor for a kind.
func Describe(kind Kind) (Descriptor, bool) {
	d, ok := descriptors[kind]
	return d, ok
}

// Parse converts a CLI argument into a Kind.
func Parse(s string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := descriptors[kind]; !ok {
		return "", &UnknownKindError{Value: s}
	}
	return kind, nil
}

// UnknownKindError reports a mechanism name outside the closed set.
type UnknownKindError struct {
	Value string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown authentication mechanism %q (expected one of: %s)",
		e.Value, strings.Join(kindNames(), ", "))
}

func kindNames() []string {
	names := make([]string, 0, len(descriptors))
	for _, k := range All() {
		names = append(names, string(k))
	}
	return names
}
