// pkg/stacks/cloudformation.go
package stacks

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"go.uber.org/zap"

	"stratus/pkg/errs"
)

// Reader supplies the exported outputs of a deployed stack.
type Reader interface {
	GetOutputs(ctx context.Context, stackName string) (map[string]string, error)
}

// CloudFormationAPI is the slice of the CloudFormation client we use.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

var _ CloudFormationAPI = (*cloudformation.Client)(nil)

type cfnReader struct {
	api CloudFormationAPI
	log *zap.SugaredLogger
}

// NewCloudFormationReader builds the production reader.
func NewCloudFormationReader(api CloudFormationAPI, log *zap.SugaredLogger) Reader {
	return &cfnReader{api: api, log: log}
}

func (r *cfnReader) GetOutputs(ctx context.Context, stackName string) (map[string]string, error) {
	resp, err := r.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		// DescribeStacks reports a missing stack as a ValidationError
		// with a "does not exist" message, not a typed error.
		if strings.Contains(err.Error(), "does not exist") {
			return nil, errs.Wrap(err, errs.StackNotFound, "stack %q", stackName)
		}
		return nil, errs.Wrap(err, "", "describing stack %q", stackName)
	}
	if len(resp.Stacks) == 0 {
		return nil, errs.New(errs.StackNotFound, "stack %q", stackName)
	}
	outs := resp.Stacks[0].Outputs
	if len(outs) == 0 {
		return nil, errs.New(errs.StackHasNoOutputs, "stack %q has no outputs", stackName)
	}
	m := make(map[string]string, len(outs))
	for _, o := range outs {
		if o.OutputKey != nil && o.OutputValue != nil {
			m[*o.OutputKey] = *o.OutputValue
		}
	}
	if r.log != nil {
		r.log.Debugw("fetched stack outputs", "stack", stackName, "keys", len(m))
	}
	return m, nil
}
