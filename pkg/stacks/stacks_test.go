package stacks

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/stretchr/testify/require"

	"stratus/pkg/errs"
)

type fakeCFN struct {
	out *cloudformation.DescribeStacksOutput
	err error
}

func (f *fakeCFN) DescribeStacks(ctx context.Context, in *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	return f.out, f.err
}

func TestCloudFormationReaderOutputs(t *testing.T) {
	api := &fakeCFN{out: &cloudformation.DescribeStacksOutput{
		Stacks: []cfntypes.Stack{{
			Outputs: []cfntypes.Output{
				{OutputKey: aws.String("PublicId"), OutputValue: aws.String("abc")},
				{OutputKey: aws.String("RoutingKvsArn"), OutputValue: aws.String("arn:aws:cloudfront::1:key-value-store/k1")},
			},
		}},
	}}
	got, err := NewCloudFormationReader(api, nil).GetOutputs(context.Background(), "acmex1---service")
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"PublicId":      "abc",
		"RoutingKvsArn": "arn:aws:cloudfront::1:key-value-store/k1",
	}, got)
}

func TestCloudFormationReaderStackNotFound(t *testing.T) {
	api := &fakeCFN{err: errors.New("ValidationError: Stack with id acmex1---service does not exist")}
	_, err := NewCloudFormationReader(api, nil).GetOutputs(context.Background(), "acmex1---service")
	require.True(t, errs.Is(err, errs.StackNotFound))
}

func TestCloudFormationReaderNoOutputs(t *testing.T) {
	api := &fakeCFN{out: &cloudformation.DescribeStacksOutput{
		Stacks: []cfntypes.Stack{{}},
	}}
	_, err := NewCloudFormationReader(api, nil).GetOutputs(context.Background(), "s")
	require.True(t, errs.Is(err, errs.StackHasNoOutputs))
}

func TestMemoryReader(t *testing.T) {
	r := NewMemoryReader(map[string]map[string]string{
		"s1": {"K": "v"},
		"s2": {},
	})

	got, err := r.GetOutputs(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"K": "v"}, got)

	_, err = r.GetOutputs(context.Background(), "s2")
	require.True(t, errs.Is(err, errs.StackHasNoOutputs))

	_, err = r.GetOutputs(context.Background(), "missing")
	require.True(t, errs.Is(err, errs.StackNotFound))
}

func TestMemoryReaderFromJSON(t *testing.T) {
	r, err := NewMemoryReaderFromJSON(`{"acmex1---service":{"PublicId":"abc"}}`)
	require.NoError(t, err)
	got, err := r.GetOutputs(context.Background(), "acmex1---service")
	require.NoError(t, err)
	require.Equal(t, "abc", got["PublicId"])

	_, err = NewMemoryReaderFromJSON(`{broken`)
	require.True(t, errs.Is(err, errs.ConfigInvalid))
}
