// Package awscreds builds AWS credential providers from explicitly supplied
// key material. The demo policy is that credentials always flow from the
// bundle: ambient SDK discovery (shared config files, instance metadata) is
// never consulted, so a run's behavior depends only on its inputs.
package awscreds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"golang.org/x/sync/singleflight"
)

// StaticProvider serves fixed credentials taken from a credential bundle.
type StaticProvider struct {
	creds aws.Credentials
}

var _ aws.CredentialsProvider = (*StaticProvider)(nil)

// NewStaticProvider returns a provider for explicit key material. The
// session token is optional.
func NewStaticProvider(accessKeyID, secretAccessKey, sessionToken string) *StaticProvider {
	return &StaticProvider{
		creds: aws.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    sessionToken,
			Source:          "mongoauth-static",
		},
	}
}

// Retrieve implements aws.CredentialsProvider.
func (p *StaticProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return aws.Credentials{}, err
	}
	if p.creds.AccessKeyID == "" || p.creds.SecretAccessKey == "" {
		return aws.Credentials{}, fmt.Errorf("static AWS credentials are incomplete")
	}
	return p.creds, nil
}

// CachingProvider wraps another provider with expiry-aware caching and
// collapses concurrent retrievals into one upstream call.
type CachingProvider struct {
	sf       singleflight.Group
	mu       sync.RWMutex
	provider aws.CredentialsProvider
	creds    *aws.Credentials
}

var _ aws.CredentialsProvider = (*CachingProvider)(nil)

// NewCachingProvider wraps provider, which must not be nil.
func NewCachingProvider(provider aws.CredentialsProvider) *CachingProvider {
	return &CachingProvider{provider: provider}
}

// Retrieve returns cached credentials while they remain valid and refreshes
// them from the wrapped provider otherwise.
func (p *CachingProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	p.mu.RLock()
	if p.creds != nil && !expired(*p.creds) {
		creds := *p.creds
		p.mu.RUnlock()
		return creds, nil
	}
	p.mu.RUnlock()

	resCh := p.sf.DoChan("", func() (any, error) {
		return p.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-resCh:
		if res.Err != nil {
			return aws.Credentials{}, res.Err
		}
		return res.Val.(aws.Credentials), nil
	case <-ctx.Done():
		return aws.Credentials{}, ctx.Err()
	}
}

func (p *CachingProvider) refresh(ctx context.Context) (aws.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.creds != nil && !expired(*p.creds) {
		return *p.creds, nil
	}

	creds, err := p.provider.Retrieve(ctx)
	if err != nil {
		return aws.Credentials{}, err
	}
	p.creds = &creds
	return creds, nil
}

func expired(creds aws.Credentials) bool {
	return creds.CanExpire && !creds.Expires.After(time.Now())
}
