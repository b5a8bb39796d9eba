package ali

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
	"github.com/google/uuid"

	"github.com/reusedev/batch-hub/config"
	"github.com/reusedev/batch-hub/internal/modules/cache"
	"github.com/reusedev/batch-hub/tools"
)

const signedURLCacheTTL = 5 * time.Minute

var (
	OssClient *ossClient
)

type ossClient struct {
	client     *oss.Client
	endpoint   string
	bucketName string
	directory  string
}

func InitOSS(config config.AliOss) {
	credential := credentials.NewStaticCredentialsProvider(config.AccessKeyId, config.AccessKeySecret, "")
	cfg := oss.LoadDefaultConfig().
		WithCredentialsProvider(credential).
		WithEndpoint(config.Endpoint).WithRegion(config.Region)
	client := oss.NewClient(cfg)
	if client == nil {
		panic("create oss client failed")
	}
	OssClient = &ossClient{
		client:     client,
		endpoint:   config.Endpoint,
		bucketName: config.Bucket,
		directory:  config.Directory,
	}
}

// Upload stores data under a random object name and returns a
// presigned link to it. The original filename only survives in the
// download disposition.
func (o *ossClient) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	key := o.fullPath(uuid.New().String() + objectExt(filename, data))
	if err := o.upload(ctx, filename, key, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return o.SignedURL(ctx, key)
}

// SignedURL presigns key, caching the link so result listings do not
// re-sign the same object over and over.
func (o *ossClient) SignedURL(ctx context.Context, key string) (string, error) {
	if cached, err := cache.SignedURLManager().GetValue(key); err == nil && cached != "" {
		return cached, nil
	}
	u, err := o.URL(ctx, key, config.GConfig.URLExpiresDuration())
	if err != nil {
		return "", err
	}
	_ = cache.SignedURLManager().SetWithExpiration(key, u, signedURLCacheTTL)
	return u, nil
}

func (o *ossClient) URL(ctx context.Context, key string, expire time.Duration) (string, error) {
	ret, err := o.client.Presign(ctx, &oss.GetObjectRequest{Bucket: oss.Ptr(o.bucketName), Key: oss.Ptr(key)}, oss.PresignExpires(expire))
	if err != nil {
		return "", err
	}
	return ret.URL, nil
}

func (o *ossClient) fullPath(fName string) string {
	return o.directory + fName
}

func (o *ossClient) upload(ctx context.Context, fName, key string, reader io.Reader) error {
	request := &oss.PutObjectRequest{
		Bucket:             oss.Ptr(o.bucketName),
		Key:                oss.Ptr(key),
		Body:               reader,
		ContentDisposition: oss.Ptr(fmt.Sprintf("attachment; filename=\"%s\"", fName)),
	}
	_, err := o.client.PutObject(ctx, request)
	if err != nil {
		return err
	}
	return nil
}

// objectExt keeps the caller's extension when it has one and falls
// back to sniffing the payload.
func objectExt(filename string, data []byte) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	return "." + tools.DetectImageType(data).String()
}
