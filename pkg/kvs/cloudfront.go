// pkg/kvs/cloudfront.go
package kvs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfrontkeyvaluestore"
	"go.uber.org/zap"

	"stratus/pkg/errs"
)

// CloudFrontAPI is the slice of the KeyValueStore client we use.
type CloudFrontAPI interface {
	DescribeKeyValueStore(ctx context.Context, params *cloudfrontkeyvaluestore.DescribeKeyValueStoreInput, optFns ...func(*cloudfrontkeyvaluestore.Options)) (*cloudfrontkeyvaluestore.DescribeKeyValueStoreOutput, error)
	PutKey(ctx context.Context, params *cloudfrontkeyvaluestore.PutKeyInput, optFns ...func(*cloudfrontkeyvaluestore.Options)) (*cloudfrontkeyvaluestore.PutKeyOutput, error)
}

var _ CloudFrontAPI = (*cloudfrontkeyvaluestore.Client)(nil)

// cloudFrontSink writes entries to a CloudFront KeyValueStore. Every
// write must carry the store's current ETag; the sink fetches it once
// and threads the ETag returned by each put into the next.
type cloudFrontSink struct {
	api  CloudFrontAPI
	arn  string
	etag *string
	log  *zap.SugaredLogger
}

// NewCloudFrontSink builds a sink for the store identified by kvsARN
// (typically read from a service-stack output).
func NewCloudFrontSink(api CloudFrontAPI, kvsARN string, log *zap.SugaredLogger) Sink {
	return &cloudFrontSink{api: api, arn: kvsARN, log: log}
}

func (s *cloudFrontSink) Put(ctx context.Context, key string, value []byte) error {
	if err := checkSize(key, value); err != nil {
		return err
	}
	if s.etag == nil {
		resp, err := s.api.DescribeKeyValueStore(ctx, &cloudfrontkeyvaluestore.DescribeKeyValueStoreInput{
			KvsARN: aws.String(s.arn),
		})
		if err != nil {
			return errs.Wrap(err, "", "describing key value store")
		}
		s.etag = resp.ETag
	}
	resp, err := s.api.PutKey(ctx, &cloudfrontkeyvaluestore.PutKeyInput{
		KvsARN:  aws.String(s.arn),
		Key:     aws.String(key),
		Value:   aws.String(string(value)),
		IfMatch: s.etag,
	})
	if err != nil {
		s.etag = nil // force a re-describe after a failed conditional write
		return errs.Wrap(err, "", "putting key %q", key)
	}
	s.etag = resp.ETag
	if s.log != nil {
		s.log.Debugw("kvs put", "key", key, "bytes", len(value))
	}
	return nil
}
