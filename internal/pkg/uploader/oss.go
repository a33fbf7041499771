package uploader

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"post_market/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// maxConcurrentUploads 批量上传的并发上限
const maxConcurrentUploads = 5

// Uploader 对象存储上传接口
type Uploader interface {
	// Upload 上传对象并返回可访问的 URL
	Upload(ctx context.Context, key string, r io.Reader) (string, error)
}

// Result 单个文件的上传结果
type Result struct {
	Name string // 原始文件名
	Key  string // 对象键
	URL  string
}

type AliyunOSSUploader struct {
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSUploader(cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{bucket: bucket, config: cfg}, nil
}

func (u *AliyunOSSUploader) Upload(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := u.bucket.PutObject(key, r, oss.WithContext(ctx)); err != nil {
		return "", err
	}
	// bucket 为公共读或挂了 CDN，直接拼接公网地址
	return fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, key), nil
}

// ObjectKey 生成对象键：YYYYMMDD/uuid.ext
func ObjectKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", now.Format("20060102"), uuid.New().String(), ext)
}

// UploadFiles 并发上传多个文件，结果顺序与输入一致；任一失败则返回第一个错误
func UploadFiles(ctx context.Context, u Uploader, files []*multipart.FileHeader) ([]Result, error) {
	results := make([]Result, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentUploads)

	for i, file := range files {
		wg.Add(1)
		go func(index int, f *multipart.FileHeader) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				errs[index] = ctx.Err()
				return
			}

			src, err := f.Open()
			if err != nil {
				errs[index] = err
				return
			}
			defer src.Close()

			key := ObjectKey(f.Filename, time.Now())
			url, err := u.Upload(ctx, key, src)
			if err != nil {
				errs[index] = fmt.Errorf("upload %s: %w", f.Filename, err)
				return
			}
			results[index] = Result{Name: f.Filename, Key: key, URL: url}
		}(i, file)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// GlobalUploader 未配置 OSS 时为 nil
var GlobalUploader Uploader

func InitUploader(cfg config.OSSConfig) error {
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return fmt.Errorf("oss endpoint and bucket_name are required")
	}
	uploader, err := NewAliyunOSSUploader(cfg)
	if err != nil {
		return err
	}
	GlobalUploader = uploader
	return nil
}
