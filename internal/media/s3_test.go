package media

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	client := &fakeS3{}
	store := NewS3StoreWithClient(client, "avatars", "https://cdn.example.com/")

	url, err := store.Put(context.Background(), "avatars/2024/01/01/a.png", "image/png", []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/avatars/2024/01/01/a.png", url)
	require.Len(t, client.puts, 1)
	assert.Equal(t, "avatars", aws.ToString(client.puts[0].Bucket))
	assert.Equal(t, "image/png", aws.ToString(client.puts[0].ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(client.puts[0].ContentLength))
	assert.Equal(t, []byte("img"), client.bodies[0])
}

func TestS3Store_Delete(t *testing.T) {
	client := &fakeS3{}
	store := NewS3StoreWithClient(client, "avatars", "https://cdn.example.com")

	require.NoError(t, store.Delete(context.Background(), "https://cdn.example.com/covers/x.jpg"))
	require.Len(t, client.deletes, 1)
	assert.Equal(t, "covers/x.jpg", aws.ToString(client.deletes[0].Key))

	assert.Error(t, store.Delete(context.Background(), "https://other.example.com/covers/x.jpg"))
	assert.NoError(t, store.Delete(context.Background(), ""))
	assert.Len(t, client.deletes, 1)
}

func TestS3Store_PropagatesErrors(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}
	store := NewS3StoreWithClient(client, "avatars", "https://cdn.example.com")

	_, err := store.Put(context.Background(), "k.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, client.err)
}
