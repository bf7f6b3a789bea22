// Package media validates uploaded files and relays them to the external media host.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"folio/internal/tasks"
)

const (
	MaxImageBytes    = 5 << 20
	MaxDocumentBytes = 10 << 20

	imageFolder    = "portfolio"
	documentFolder = "portfolio/documents"

	deleteTimeout = 30 * time.Second
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInfected        = errors.New("malicious file detected")
	ErrInvalidPublicID = errors.New("invalid public id")
)

// ObjectStore 是媒体托管的最小接口，由 storage.Client 实现。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	PublicURL(objectKey string) string
	DeleteObject(ctx context.Context, objectKey string) error
}

// Scanner checks file contents before they leave the server.
type Scanner interface {
	Scan(ctx context.Context, data []byte) error
}

// Enqueuer 由 *asynq.Client 实现。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Asset 是上传成功后返回给调用方的引用。
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Relay 校验文件并一次性转发到媒体托管，不在本地落盘。
type Relay struct {
	store   ObjectStore
	scanner Scanner
	queue   Enqueuer
	logger  *slog.Logger
	newID   func() string
}

// Option customises a Relay.
type Option func(*Relay)

// WithScanner enables malware scanning before upload.
func WithScanner(s Scanner) Option { return func(r *Relay) { r.scanner = s } }

// WithQueue 让删除通过后台任务执行。
func WithQueue(q Enqueuer) Option { return func(r *Relay) { r.queue = q } }

// NewRelay constructs a Relay over store.
func NewRelay(store ObjectStore, logger *slog.Logger, opts ...Option) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Relay{store: store, logger: logger, newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UploadImage 接受声明与嗅探类型均为 image/* 且不超过 5 MiB 的文件。
func (r *Relay) UploadImage(ctx context.Context, filename string, data []byte, declaredType string) (Asset, error) {
	if err := checkSize(data, MaxImageBytes); err != nil {
		return Asset{}, err
	}
	declared := baseMediaType(declaredType)
	if !strings.HasPrefix(declared, "image/") {
		return Asset{}, fmt.Errorf("%w: declared %q", ErrUnsupportedType, declaredType)
	}
	detected := mimetype.Detect(data)
	if !strings.HasPrefix(baseMediaType(detected.String()), "image/") {
		return Asset{}, fmt.Errorf("%w: detected %q", ErrUnsupportedType, detected.String())
	}

	ext := detected.Extension()
	if ext == "" {
		ext = strings.ToLower(path.Ext(filename))
	}
	key := fmt.Sprintf("%s/%s%s", imageFolder, r.newID(), ext)
	return r.relay(ctx, key, data, baseMediaType(detected.String()))
}

// UploadDocument 只接受不超过 10 MiB 的 PDF。
func (r *Relay) UploadDocument(ctx context.Context, _ string, data []byte, declaredType string) (Asset, error) {
	if err := checkSize(data, MaxDocumentBytes); err != nil {
		return Asset{}, err
	}
	if baseMediaType(declaredType) != "application/pdf" {
		return Asset{}, fmt.Errorf("%w: declared %q", ErrUnsupportedType, declaredType)
	}
	if detected := mimetype.Detect(data); !detected.Is("application/pdf") {
		return Asset{}, fmt.Errorf("%w: detected %q", ErrUnsupportedType, detected.String())
	}

	key := fmt.Sprintf("%s/%s.pdf", documentFolder, r.newID())
	return r.relay(ctx, key, data, "application/pdf")
}

func (r *Relay) relay(ctx context.Context, key string, data []byte, contentType string) (Asset, error) {
	if r.scanner != nil {
		if err := r.scanner.Scan(ctx, data); err != nil {
			return Asset{}, err
		}
	}
	if _, err := r.store.UploadFile(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return Asset{}, fmt.Errorf("relay to media host: %w", err)
	}
	return Asset{URL: r.store.PublicURL(key), PublicID: key}, nil
}

// Delete 请求删除托管对象后立即返回，结果不回传给调用方。
// 配置了队列时交给 worker，否则在后台 goroutine 中执行。
func (r *Relay) Delete(ctx context.Context, publicID, correlationID string) error {
	publicID = strings.TrimSpace(publicID)
	if !validPublicID(publicID) {
		return fmt.Errorf("%w: %q", ErrInvalidPublicID, publicID)
	}
	log := r.logger.With(slog.String("public_id", publicID), slog.String("correlation_id", correlationID))

	if r.queue != nil {
		task, err := tasks.NewMediaDeleteTask(publicID, correlationID)
		if err == nil {
			if _, err = r.queue.EnqueueContext(ctx, task); err == nil {
				log.Info("media delete enqueued")
				return nil
			}
		}
		log.Warn("enqueue media delete failed, deleting inline", slog.Any("error", err))
	}

	go func() {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
		defer cancel()
		if err := r.store.DeleteObject(bg, publicID); err != nil {
			log.Error("media delete failed", slog.Any("error", err))
			return
		}
		log.Info("media deleted")
	}()
	return nil
}

func checkSize(data []byte, limit int) error {
	if len(data) == 0 {
		return ErrEmptyFile
	}
	if len(data) > limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), limit)
	}
	return nil
}

func baseMediaType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(value); err == nil {
		return strings.ToLower(parsed)
	}
	return strings.ToLower(value)
}
