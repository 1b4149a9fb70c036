package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Client struct {
	client         *minio.Client
	snapshotBucket string
}

func NewMinioClient(endpoint, accessKey, secretKey, snapshotBucket string) (*Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Client{client: client, snapshotBucket: snapshotBucket}, nil
}

// DownloadFramesFromURL загружает все кадры (JPEG) из папки бакета по URL
func (c *Client) DownloadFramesFromURL(ctx context.Context, fileURL string) ([][]byte, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid frame folder url: %s", fileURL)
	}
	bucket, folder := parts[0], parts[1]

	objectCh := c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    folder,
		Recursive: true,
	})

	var frames [][]byte

	// Обрабатываем каждый объект
	for object := range objectCh {
		if object.Err != nil {
			return nil, object.Err
		}

		// Пропускаем саму папку (если она есть в списке)
		if strings.HasSuffix(object.Key, "/") {
			continue
		}

		// Получаем объект
		obj, err := c.client.GetObject(ctx, bucket, object.Key, minio.GetObjectOptions{})
		if err != nil {
			return nil, err
		}

		// Читаем содержимое файла
		buf := new(bytes.Buffer)
		_, err = io.Copy(buf, obj)
		obj.Close()
		if err != nil {
			return nil, err
		}

		frames = append(frames, buf.Bytes())
	}

	return frames, nil
}

// SaveSnapshot сохраняет кадр-доказательство в бакет snapshots
// в папку с именем потока; возвращает путь к объекту
func (c *Client) SaveSnapshot(ctx context.Context, streamID string, frameIndex int, frame []byte) (string, error) {
	objectPath := fmt.Sprintf("%s/violation_snapshot_%s_frame_%d.jpg",
		streamID,
		time.Now().UTC().Format("20060102_150405"),
		frameIndex,
	)

	_, err := c.client.PutObject(
		ctx,
		c.snapshotBucket,
		objectPath,
		bytes.NewReader(frame),
		int64(len(frame)),
		minio.PutObjectOptions{
			ContentType: "image/jpeg",
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot to S3: %w", err)
	}

	return c.snapshotBucket + "/" + objectPath, nil
}
