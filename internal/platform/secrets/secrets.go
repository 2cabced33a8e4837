// Package secrets fetches credentials needed by outbound integrations.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// ErrEmptySecret is returned when a secret exists but carries no payload.
var ErrEmptySecret = errors.New("secret has no value")

// Provider returns the raw payload of a named secret.
type Provider interface {
	GetSecret(ctx context.Context, name string) ([]byte, error)
}

// secretsManagerAPI is the subset of the Secrets Manager client in use.
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider reads secrets from AWS Secrets Manager.
type AWSProvider struct {
	client secretsManagerAPI
}

// NewAWSProvider builds a provider from the default AWS credential chain.
// An empty region defers to AWS_REGION / shared config.
func NewAWSProvider(ctx context.Context, region string) (*AWSProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &AWSProvider{client: secretsmanager.NewFromConfig(cfg)}, nil
}

func (p *AWSProvider) GetSecret(ctx context.Context, name string) ([]byte, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret %s: %w", name, err)
	}
	if s := aws.ToString(out.SecretString); s != "" {
		return []byte(s), nil
	}
	if len(out.SecretBinary) > 0 {
		return out.SecretBinary, nil
	}
	return nil, fmt.Errorf("secret %s: %w", name, ErrEmptySecret)
}

// FileProvider reads secrets from files, resolving relative names against Dir.
type FileProvider struct {
	Dir string
}

func (p FileProvider) GetSecret(_ context.Context, name string) ([]byte, error) {
	path := name
	if !filepath.IsAbs(path) && p.Dir != "" {
		path = filepath.Join(p.Dir, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret file %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("secret %s: %w", name, ErrEmptySecret)
	}
	return data, nil
}

// ServiceAccount is the subset of a Google service-account key file that
// must be present for JWT signing.
type ServiceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	// Raw holds the full JSON document for the OAuth2 helpers.
	Raw []byte `json:"-"`
}

// ParseServiceAccount validates a service-account JSON payload.
func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, errors.New("service account must contain client_email and private_key")
	}
	sa.Raw = raw
	return &sa, nil
}

// LoadServiceAccount fetches and validates a service-account secret.
func LoadServiceAccount(ctx context.Context, p Provider, name string) (*ServiceAccount, error) {
	raw, err := p.GetSecret(ctx, name)
	if err != nil {
		return nil, err
	}
	return ParseServiceAccount(raw)
}
