// Package secrets provides cached access to the AWS Secrets Manager
// backed secrets the gateway depends on (cookie sealing key, provider
// public key material).
package secrets

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/pkg/errors"
)

// api is the subset of the Secrets Manager client the fetcher uses.
// Defined for testability.
type api interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// Fetcher fetches and caches secret values by name. Each secret is fetched
// at most once per process; the mutex is held across the backend call so
// concurrent first readers share one in-flight fetch. Failed fetches are
// not cached.
type Fetcher struct {
	mu     sync.Mutex
	client api
	cache  map[string]string
}

// New creates a Fetcher using the default AWS credential chain.
func New(ctx context.Context, region string) (*Fetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}

	return NewWithClient(secretsmanager.NewFromConfig(cfg)), nil
}

// NewWithClient creates a Fetcher around an existing client. Used by tests
// to substitute a fake backend.
func NewWithClient(client api) *Fetcher {
	return &Fetcher{
		client: client,
		cache:  make(map[string]string),
	}
}

// Get returns the secret string for name, fetching it on first use.
func (f *Fetcher) Get(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.cache[name]; ok {
		return v, nil
	}

	out, err := f.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", errors.Wrapf(ErrSecretUnavailable, "%s: %v", name, err)
	}

	if out.SecretString == nil {
		return "", errors.Wrapf(ErrSecretUnavailable, "%s: secret has no string value", name)
	}

	f.cache[name] = *out.SecretString

	return *out.SecretString, nil
}

// Reset drops the cache. Used by tests.
func (f *Fetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cache = make(map[string]string)
}
