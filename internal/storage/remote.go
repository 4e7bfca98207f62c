package storage

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/eteu-technologies/s3-deployer/internal/config"
	"github.com/eteu-technologies/s3-deployer/internal/deploy"
)

const (
	DefaultEndpoint = "s3.amazonaws.com"
	sharedProfile   = "default"
)

// Remote is the bucket of one environment together with its CloudFront
// distribution.
type Remote struct {
	bucket  string
	objects *minio.Client
	cdn     *cloudfront.Client
}

var _ deploy.Store = (*Remote)(nil)

// Open satisfies deploy.StoreFactory.
func Open(ctx context.Context, env config.Environment) (store deploy.Store, err error) {
	var r *Remote
	if r, err = New(ctx, env); err != nil {
		return
	}
	store = r
	return
}

func New(ctx context.Context, env config.Environment) (remote *Remote, err error) {
	if err = env.Validate(); err != nil {
		return
	}

	endpoint := env.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	r := &Remote{bucket: env.Bucket}

	if r.objects, err = minio.New(endpoint, &minio.Options{
		Creds:     objectCredentials(env),
		Secure:    !env.Insecure,
		Region:    env.Region,
		Transport: newTransport(),
	}); err != nil {
		err = fmt.Errorf("failed to create object store client: %w", err)
		return
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(env.Region),
	}
	if env.HasStaticCredentials() {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			awscredentials.NewStaticCredentialsProvider(env.AccessKeyID, env.SecretAccessKey, ""),
		))
	}

	var awsCfg aws.Config
	if awsCfg, err = awsconfig.LoadDefaultConfig(ctx, loadOpts...); err != nil {
		err = fmt.Errorf("failed to load aws configuration: %w", err)
		return
	}
	r.cdn = cloudfront.NewFromConfig(awsCfg)

	remote = r
	return
}

// objectCredentials prefers the environment's own keys and otherwise falls
// back to AWS_* variables and the shared credentials file.
func objectCredentials(env config.Environment) *credentials.Credentials {
	if env.HasStaticCredentials() {
		return credentials.NewStaticV4(env.AccessKeyID, env.SecretAccessKey, "")
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.FileAWSCredentials{Profile: sharedProfile},
	})
}

func (r *Remote) Upload(ctx context.Context, obj deploy.Object) (err error) {
	opts := minio.PutObjectOptions{
		ContentType: obj.ContentType,
	}
	if obj.PublicRead {
		opts.UserMetadata = map[string]string{"x-amz-acl": "public-read"}
	}

	if _, err = r.objects.PutObject(ctx, r.bucket, obj.Key, obj.Body, obj.Size, opts); err != nil {
		err = fmt.Errorf("failed to put %s/%s: %w", r.bucket, obj.Key, err)
		return
	}
	return
}

func (r *Remote) CreateInvalidation(ctx context.Context, distributionID, callerReference string, paths []string) (err error) {
	_, err = r.cdn.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(distributionID),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(callerReference),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	if err != nil {
		err = fmt.Errorf("failed to create invalidation on %s: %w", distributionID, err)
		return
	}
	return
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
