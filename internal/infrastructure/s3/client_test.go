package s3infra

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGetter struct{ mock.Mock }

func (m *mockGetter) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(*in.Bucket, *in.Key)
	if out, _ := args.Get(0).(*s3.GetObjectOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRead_ReturnsBody(t *testing.T) {
	g := &mockGetter{}
	g.On("GetObject", "secrets", "verifier/client").
		Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("s3cr3t"))}, nil)

	b, err := NewReader(g).Read(context.Background(), "secrets", "verifier/client")

	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", string(b))
	g.AssertExpectations(t)
}

func TestRead_PropagatesError(t *testing.T) {
	g := &mockGetter{}
	g.On("GetObject", "secrets", "missing").Return(nil, errors.New("NoSuchKey"))

	_, err := NewReader(g).Read(context.Background(), "secrets", "missing")

	assert.ErrorContains(t, err, "secrets/missing")
}
