package awscreds

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProviderReturnsSuppliedMaterial(t *testing.T) {
	p := NewStaticProvider("AKIAEXAMPLE", "secret", "session")
	creds, err := p.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAEXAMPLE", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
	assert.Equal(t, "session", creds.SessionToken)
	assert.False(t, creds.CanExpire)
}

func TestStaticProviderRejectsIncompleteMaterial(t *testing.T) {
	p := NewStaticProvider("AKIAEXAMPLE", "", "")
	_, err := p.Retrieve(context.Background())
	assert.Error(t, err)
}

type countingProvider struct {
	calls atomic.Int64
	creds aws.Credentials
	err   error
}

func (c *countingProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	c.calls.Add(1)
	if c.err != nil {
		return aws.Credentials{}, c.err
	}
	return c.creds, nil
}

func TestCachingProviderCachesNonExpiringCredentials(t *testing.T) {
	upstream := &countingProvider{creds: aws.Credentials{AccessKeyID: "AKIA1", SecretAccessKey: "s"}}
	p := NewCachingProvider(upstream)

	for i := 0; i < 3; i++ {
		creds, err := p.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "AKIA1", creds.AccessKeyID)
	}
	assert.Equal(t, int64(1), upstream.calls.Load())
}

func TestCachingProviderRefreshesExpiredCredentials(t *testing.T) {
	upstream := &countingProvider{creds: aws.Credentials{
		AccessKeyID:     "AKIA1",
		SecretAccessKey: "s",
		CanExpire:       true,
		Expires:         time.Now().Add(-time.Minute),
	}}
	p := NewCachingProvider(upstream)

	_, err := p.Retrieve(context.Background())
	require.NoError(t, err)
	_, err = p.Retrieve(context.Background())
	require.NoError(t, err)

	// Expired credentials are refreshed on every retrieval.
	assert.Equal(t, int64(2), upstream.calls.Load())
}

func TestCachingProviderHonorsContextCancellation(t *testing.T) {
	p := NewCachingProvider(NewStaticProvider("AKIAEXAMPLE", "secret", ""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Either the cancellation or the cached value may win the select; a
	// second call with a live context must always succeed.
	_, _ = p.Retrieve(ctx)
	creds, err := p.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAEXAMPLE", creds.AccessKeyID)
}
