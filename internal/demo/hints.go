package demo

import "github.com/peternagy/mongoauth/internal/mechanism"

// connectionHint gives mechanism-specific remediation wording for failed
// connection attempts.
func connectionHint(kind mechanism.Kind) string {
	switch kind {
	case mechanism.Password:
		return "verify the server is reachable on host:port and that username/password and authSource match a server-side user"
	case mechanism.Certificate:
		return "verify the certificate is signed by a CA the server trusts and that its subject matches a $external user"
	case mechanism.AwsIam:
		return "verify the IAM principal is mapped to a database user (arn:aws:iam::...) and that the keys have not expired; temporary credentials also need AWS_SESSION_TOKEN"
	case mechanism.ApiKey:
		return "verify the API key pair is valid for this project and database access is enabled for it"
	case mechanism.ServiceAccountOidc:
		return "verify the identity provider configuration on the cluster accepts this issuer/audience and that the service account key is current"
	default:
		return "check the connection parameters"
	}
}
