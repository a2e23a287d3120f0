package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	lberrors "github.com/systmms/lockbox/internal/errors"
)

// SecretsManagerAPI defines the AWS Secrets Manager operations the store
// uses. This allows for mocking in tests.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

// AWSOptions configures the AWS Secrets Manager backend.
type AWSOptions struct {
	// Region is the AWS region. Defaults to us-east-1.
	Region string `yaml:"region"`

	// Endpoint is an optional custom endpoint for LocalStack or testing.
	Endpoint string `yaml:"endpoint"`

	// Prefix namespaces secret names, e.g. "lockbox" stores id "s1"
	// as "lockbox/s1". Defaults to the keychain service name.
	Prefix string `yaml:"prefix"`

	// Optional static credentials for LocalStack or testing.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// awsStore stores values in AWS Secrets Manager. It satisfies the same
// probe-at-startup contract as the platform keychain backend.
type awsStore struct {
	client SecretsManagerAPI
	prefix string
}

// newAWSStore creates the AWS backend. A nil client builds a real one
// from the default credential chain plus the given options.
func newAWSStore(opts AWSOptions, client SecretsManagerAPI) (*awsStore, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultService
	}

	if client == nil {
		region := opts.Region
		if region == "" {
			region = "us-east-1"
		}

		configOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
		if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
			configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
			))
		}

		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), configOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		var clientOpts []func(*secretsmanager.Options)
		if opts.Endpoint != "" {
			endpoint := opts.Endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return &awsStore{client: client, prefix: prefix}, nil
}

func (s *awsStore) name(id string) string {
	return s.prefix + "/" + id
}

// Set writes a new version of the secret, creating it on first use.
func (s *awsStore) Set(ctx context.Context, id, value string) error {
	_, err := s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(s.name(id)),
		SecretString: aws.String(value),
	})
	if err == nil {
		return nil
	}
	if !isResourceNotFound(err) {
		return &lberrors.BackendError{Op: "set", ID: id, Err: err}
	}

	_, err = s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(s.name(id)),
		SecretString: aws.String(value),
	})
	if err != nil {
		return &lberrors.BackendError{Op: "set", ID: id, Err: err}
	}
	return nil
}

func (s *awsStore) Get(ctx context.Context, id string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.name(id)),
	})
	if err != nil {
		if isResourceNotFound(err) {
			return "", lberrors.ErrValueNotFound
		}
		return "", &lberrors.BackendError{Op: "get", ID: id, Err: err}
	}
	if out.SecretString == nil {
		return "", lberrors.ErrValueNotFound
	}
	return *out.SecretString, nil
}

// Delete removes the secret immediately. Recovery windows would let a
// deleted name block a later create, so deletion is forced.
func (s *awsStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(s.name(id)),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil {
		if isResourceNotFound(err) {
			return nil
		}
		return &lberrors.BackendError{Op: "delete", ID: id, Err: err}
	}
	return nil
}

func (s *awsStore) Mode() Mode {
	return ModeAWS
}

func isResourceNotFound(err error) bool {
	var rnf *types.ResourceNotFoundException
	return errors.As(err, &rnf)
}

var _ Store = (*awsStore)(nil)
