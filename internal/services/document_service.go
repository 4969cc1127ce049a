package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/edjs-platform/edjs/internal/models"
	"github.com/edjs-platform/edjs/internal/storage"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	MaxDocumentSize      int64 = 10 << 20
	MaxDocumentsPerBatch       = 10
	documentUploadLimit        = 4
)

var (
	ErrDocumentBatchEmpty     = errors.New("document batch empty")
	ErrDocumentBatchTooLarge  = errors.New("document batch too large")
	ErrDocumentTypeNotAllowed = errors.New("document type not allowed")
	ErrDocumentTooLarge       = errors.New("document too large")
	ErrDocumentEmpty          = errors.New("document empty")
	ErrDocumentStorage        = errors.New("document storage failed")
	ErrDocumentNotFound       = errors.New("document not found")
)

var allowedDocumentExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

type DocumentRepository interface {
	Create(document *models.VerificationDocument) error
	FindByID(documentID uint) (models.VerificationDocument, error)
	ListByUser(userID uint) ([]models.VerificationDocument, error)
}

// DocumentUpload is one file of a batch. Open is called at most once.
type DocumentUpload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// DocumentResult is the per-file outcome of a batch. Exactly one of Path and
// Err is set.
type DocumentResult struct {
	Name string
	Path string
	Size int64
	Err  error
}

type DocumentService struct {
	documents DocumentRepository
	blobs     storage.BlobStore
	logger    *slog.Logger
	now       func() time.Time
}

func NewDocumentService(documents DocumentRepository, blobs storage.BlobStore, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{documents: documents, blobs: blobs, logger: logger, now: time.Now}
}

func ValidateDocumentUpload(upload DocumentUpload) (string, error) {
	extension := strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(upload.Name))), ".")
	if _, ok := allowedDocumentExtensions[extension]; !ok {
		return "", ErrDocumentTypeNotAllowed
	}
	if upload.Size > MaxDocumentSize {
		return "", ErrDocumentTooLarge
	}
	if upload.Size == 0 {
		return "", ErrDocumentEmpty
	}
	return extension, nil
}

// StoreBatch stores every file of the batch concurrently. A failing file
// never affects its siblings; results keep the input order.
func (service *DocumentService) StoreBatch(ctx context.Context, uploads []DocumentUpload) ([]DocumentResult, error) {
	if len(uploads) == 0 {
		return nil, ErrDocumentBatchEmpty
	}
	if len(uploads) > MaxDocumentsPerBatch {
		return nil, ErrDocumentBatchTooLarge
	}

	results := make([]DocumentResult, len(uploads))
	var group errgroup.Group
	group.SetLimit(documentUploadLimit)

	for index := range uploads {
		upload := uploads[index]
		group.Go(func() error {
			results[index] = service.storeOne(ctx, upload)
			return nil
		})
	}
	_ = group.Wait()

	return results, nil
}

func (service *DocumentService) storeOne(ctx context.Context, upload DocumentUpload) DocumentResult {
	result := DocumentResult{Name: filepath.Base(strings.TrimSpace(upload.Name))}

	extension, err := ValidateDocumentUpload(upload)
	if err != nil {
		result.Err = err
		return result
	}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	source, err := upload.Open()
	if err != nil {
		result.Err = fmt.Errorf("%w: open upload: %v", ErrDocumentStorage, err)
		return result
	}
	defer source.Close()

	key := storage.NewVerificationKey(extension)
	written, err := service.blobs.Put(ctx, key, io.LimitReader(source, MaxDocumentSize+1))
	if err != nil {
		service.logger.WarnContext(ctx, "document store failed", "name", result.Name, "error", err)
		result.Err = fmt.Errorf("%w: %v", ErrDocumentStorage, err)
		return result
	}
	if written > MaxDocumentSize || written == 0 {
		_ = service.blobs.Delete(ctx, key)
		if written == 0 {
			result.Err = ErrDocumentEmpty
		} else {
			result.Err = ErrDocumentTooLarge
		}
		return result
	}

	document := models.VerificationDocument{
		StoragePath:  key,
		OriginalName: result.Name,
		Size:         written,
		CreatedAt:    service.now().UTC(),
	}
	if err := service.documents.Create(&document); err != nil {
		_ = service.blobs.Delete(ctx, key)
		service.logger.WarnContext(ctx, "document record failed", "name", result.Name, "error", err)
		result.Err = fmt.Errorf("%w: %v", ErrDocumentStorage, err)
		return result
	}

	result.Path = key
	result.Size = written
	return result
}

func (service *DocumentService) ListForUser(userID uint) ([]models.VerificationDocument, error) {
	return service.documents.ListByUser(userID)
}

// Open returns the document record and a reader over its stored content.
// The caller closes the reader.
func (service *DocumentService) Open(ctx context.Context, documentID uint) (models.VerificationDocument, io.ReadCloser, error) {
	document, err := service.documents.FindByID(documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.VerificationDocument{}, nil, ErrDocumentNotFound
		}
		return models.VerificationDocument{}, nil, err
	}

	content, err := service.blobs.Open(ctx, document.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			service.logger.WarnContext(ctx, "document blob missing", "document_id", document.ID, "path", document.StoragePath)
			return models.VerificationDocument{}, nil, ErrDocumentNotFound
		}
		return models.VerificationDocument{}, nil, fmt.Errorf("%w: %v", ErrDocumentStorage, err)
	}
	return document, content, nil
}
