package aws

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ SESAPI = (*ses.Client)(nil)
	_ SNSAPI = (*sns.Client)(nil)
)

func TestNewClients(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	sesClient, err := NewSESClient(context.Background(), "us-east-1")
	require.NoError(t, err)
	assert.NotNil(t, sesClient)

	snsClient, err := NewSNSClient(context.Background(), "eu-west-1")
	require.NoError(t, err)
	assert.NotNil(t, snsClient)
}
