// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package s3

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/walteh/vfsops/pkg/config"
	"github.com/walteh/vfsops/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

func init() {
	provider.Register("s3", New)
}

const maxAttempts = 5

// 🔌 API is the part of the S3 client the file system uses
type API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// 🎯 FS maps a bucket prefix onto a file system, "dir/" marker objects stand for empty directories
type FS struct {
	name   string
	bucket string
	prefix string
	api    API
}

var _ provider.FileSystem = (*FS)(nil)

// 🏭 New creates an S3 file system from the default AWS credential chain
func New(ctx context.Context, src config.Source) (provider.FileSystem, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = maxAttempts
			})
		}),
	}
	if src.Region != "" {
		opts = append(opts, awsconfig.WithRegion(src.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// MinIO and localstack only speak path style
		if src.Endpoint != "" {
			o.BaseEndpoint = aws.String(src.Endpoint)
			o.UsePathStyle = true
		}
	})

	zerolog.Ctx(ctx).Debug().Str("source", src.Name).Str("bucket", src.Bucket).Str("prefix", src.Prefix).Msg("opened s3 file system")

	return NewWithAPI(src.Name, src.Bucket, src.Prefix, client), nil
}

// 🔧 NewWithAPI creates an S3 file system on an existing client
func NewWithAPI(name, bucket, prefix string, api API) *FS {
	return &FS{
		name:   name,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		api:    api,
	}
}

func (f *FS) Name() string { return f.name }

// key maps a relative path to an object key
func (f *FS) key(p string) (string, string, error) {
	rel, err := provider.Clean(p)
	if err != nil {
		return "", "", err
	}
	if f.prefix == "" {
		return rel, rel, nil
	}
	if rel == "" {
		return rel, f.prefix, nil
	}
	return rel, f.prefix + "/" + rel, nil
}

// dirPrefix is the listing prefix of a directory key
func dirPrefix(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

func (f *FS) Stat(ctx context.Context, p string) (provider.Item, error) {
	rel, key, err := f.key(p)
	if err != nil {
		return provider.Item{}, err
	}
	if rel == "" {
		return provider.Item{IsDir: true}, nil
	}

	head, err := f.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return provider.Item{
			Path:    rel,
			Name:    provider.BaseName(rel),
			Size:    aws.ToInt64(head.ContentLength),
			ModTime: aws.ToTime(head.LastModified),
		}, nil
	}
	if !isNotFound(err) {
		return provider.Item{}, errors.Errorf("heading %q: %w", rel, err)
	}

	out, err := f.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(f.bucket),
		Prefix:  aws.String(dirPrefix(key)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return provider.Item{}, errors.Errorf("listing %q: %w", rel, err)
	}
	if len(out.Contents) == 0 && len(out.CommonPrefixes) == 0 {
		return provider.Item{}, errors.Errorf("%q: %w", rel, provider.ErrNotFound)
	}
	return provider.Item{Path: rel, Name: provider.BaseName(rel), IsDir: true}, nil
}

func (f *FS) List(ctx context.Context, dir string) ([]provider.Item, error) {
	rel, key, err := f.key(dir)
	if err != nil {
		return nil, err
	}
	prefix := dirPrefix(key)

	paginator := s3.NewListObjectsV2Paginator(f.api, &s3.ListObjectsV2Input{
		Bucket:    aws.String(f.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	found := rel == ""
	var items []provider.Item
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Errorf("listing %q: %w", rel, err)
		}

		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			items = append(items, provider.Item{Path: provider.Join(rel, name), Name: name, IsDir: true})
		}
		for _, obj := range page.Contents {
			objKey := aws.ToString(obj.Key)
			if objKey == prefix {
				found = true
				continue
			}
			name := strings.TrimPrefix(objKey, prefix)
			items = append(items, provider.Item{
				Path:    provider.Join(rel, name),
				Name:    name,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	if !found && len(items) == 0 {
		return nil, errors.Errorf("%q: %w", rel, provider.ErrNotFound)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (f *FS) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	rel, key, err := f.key(p)
	if err != nil {
		return nil, err
	}
	if rel == "" {
		return nil, errors.Errorf("opening root: %w", provider.ErrIsDirectory)
	}

	out, err := f.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Errorf("%q: %w", rel, provider.ErrNotFound)
		}
		return nil, errors.Errorf("getting %q: %w", rel, err)
	}
	return out.Body, nil
}

// Create buffers the body so the request stays seekable for signing and retries
func (f *FS) Create(ctx context.Context, p string, r io.Reader, size int64) error {
	rel, key, err := f.key(p)
	if err != nil {
		return err
	}
	if rel == "" {
		return errors.Errorf("creating root: %w", provider.ErrIsDirectory)
	}

	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	n, err := io.Copy(&buf, provider.ContextReader(ctx, r))
	if err != nil {
		return errors.Errorf("reading body of %q: %w", rel, err)
	}
	if size >= 0 && n != size {
		return errors.Errorf("writing %q: read %d bytes, expected %d", rel, n, size)
	}

	_, err = f.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(f.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(n),
	})
	if err != nil {
		return errors.Errorf("putting %q: %w", rel, err)
	}
	return nil
}

func (f *FS) MakeDir(ctx context.Context, p string) error {
	rel, key, err := f.key(p)
	if err != nil {
		return err
	}
	if rel == "" {
		return nil
	}

	_, err = f.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(f.bucket),
		Key:           aws.String(dirPrefix(key)),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return errors.Errorf("creating directory marker %q: %w", rel, err)
	}
	return nil
}

func (f *FS) Remove(ctx context.Context, p string, recursive bool) error {
	rel, key, err := f.key(p)
	if err != nil {
		return err
	}
	if rel == "" {
		return errors.New("refusing to remove the root")
	}

	item, err := f.Stat(ctx, rel)
	if err != nil {
		return err
	}
	if !item.IsDir {
		return f.delete(ctx, key)
	}

	keys, err := f.keysUnder(ctx, dirPrefix(key))
	if err != nil {
		return errors.Errorf("listing %q: %w", rel, err)
	}
	if !recursive {
		for _, k := range keys {
			if k != dirPrefix(key) {
				return errors.Errorf("removing %q: %w", rel, provider.ErrNotEmpty)
			}
		}
	}

	// deepest keys first so markers outlive their children
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, k := range keys {
		if err := f.delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (f *FS) keysUnder(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(f.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(f.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (f *FS) delete(ctx context.Context, key string) error {
	_, err := f.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// 🔗 URI returns the s3:// address of a path
func (f *FS) URI(p string) string {
	_, key, err := f.key(p)
	if err != nil {
		key = f.prefix
	}
	return "s3://" + path.Join(f.bucket, key)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
