// pkg/provision/provision.go
package provision

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"stratus/pkg/naming"
	"stratus/pkg/resolve"
)

// S3API is the slice of the S3 client we use.
type S3API interface {
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutPublicAccessBlock(ctx context.Context, params *s3.PutPublicAccessBlockInput, optFns ...func(*s3.Options)) (*s3.PutPublicAccessBlockOutput, error)
}

// DynamoDBAPI is the slice of the DynamoDB client we use.
type DynamoDBAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var (
	_ S3API       = (*s3.Client)(nil)
	_ DynamoDBAPI = (*dynamodb.Client)(nil)
)

// Provisioner ensures the buckets and tables named by the deriver exist
// before the routing document is published. All operations are
// idempotent: already-owned resources are treated as success.
type Provisioner struct {
	s3     S3API
	ddb    DynamoDBAPI
	region string
	log    *zap.SugaredLogger
}

func New(s3c S3API, ddb DynamoDBAPI, region string, log *zap.SugaredLogger) *Provisioner {
	return &Provisioner{s3: s3c, ddb: ddb, region: region, log: log}
}

// EnsureEntry provisions every resource the entry's own-level behaviors
// need.
func (p *Provisioner) EnsureEntry(ctx context.Context, e resolve.Entry) error {
	for _, n := range naming.AllNames(e) {
		var err error
		switch n.Kind {
		case naming.KindBucket:
			err = p.EnsureBucket(ctx, n.Value)
		case naming.KindTable:
			err = p.EnsureTable(ctx, n.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) EnsureBucket(ctx context.Context, name string) error {
	in := &s3.CreateBucketInput{Bucket: aws.String(name)}
	// us-east-1 rejects an explicit LocationConstraint.
	if p.region != "us-east-1" {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(p.region),
		}
	}
	_, err := p.s3.CreateBucket(ctx, in)
	if err != nil && !bucketExists(err) {
		return err
	}
	if err == nil && p.log != nil {
		p.log.Infow("created bucket", "bucket", name)
	}
	_, err = p.s3.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: aws.String(name),
		PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(true),
			BlockPublicPolicy:     aws.Bool(true),
			IgnorePublicAcls:      aws.Bool(true),
			RestrictPublicBuckets: aws.Bool(true),
		},
	})
	return err
}

func (p *Provisioner) EnsureTable(ctx context.Context, name string) error {
	_, err := p.ddb.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: ddbtypes.BillingModePayPerRequest,
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: ddbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: ddbtypes.KeyTypeHash},
			{AttributeName: aws.String("sk"), KeyType: ddbtypes.KeyTypeRange},
		},
	})
	if err != nil {
		var inUse *ddbtypes.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return err
	}
	if p.log != nil {
		p.log.Infow("created table", "table", name)
	}
	return nil
}

func bucketExists(err error) bool {
	var owned *s3types.BucketAlreadyOwnedByYou
	var exists *s3types.BucketAlreadyExists
	if errors.As(err, &owned) || errors.As(err, &exists) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
	}
	return false
}
