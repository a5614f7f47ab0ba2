package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/internal/repository"
	"blackkeyx_backend/pkg/utils/storage"
	"blackkeyx_backend/pkg/utils/validation"
)

// ErrUnsupportedDocument means no text can be derived from the document
// type (PDF, DOCX).
var ErrUnsupportedDocument = errors.New("document text cannot be extracted from this type")

// DocumentText derives plain text (markdown for HTML) from an upload.
type DocumentText struct {
	converter *md.Converter
}

func NewDocumentText() *DocumentText {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &DocumentText{converter: converter}
}

func (d *DocumentText) Derive(contentType string, body []byte) (string, error) {
	switch contentType {
	case validation.TypeText, validation.TypeMarkdown:
		if !utf8.Valid(body) {
			return "", fmt.Errorf("document is not valid UTF-8")
		}
		return strings.TrimSpace(string(body)), nil
	case validation.TypeHTML:
		text, err := d.converter.ConvertString(string(body))
		if err != nil {
			return "", fmt.Errorf("convert html: %w", err)
		}
		return strings.TrimSpace(text), nil
	default:
		return "", ErrUnsupportedDocument
	}
}

// DocumentService connects stored documents to text derivation and the
// extraction collaborator.
type DocumentService struct {
	deals     *repository.PropertyRepository
	blobs     storage.BlobStore
	text      *DocumentText
	extractor Extractor
}

func NewDocumentService(deals *repository.PropertyRepository, blobs storage.BlobStore, extractor Extractor) *DocumentService {
	return &DocumentService{
		deals:     deals,
		blobs:     blobs,
		text:      NewDocumentText(),
		extractor: extractor,
	}
}

// ExtractUpload fetches a standalone upload and runs extraction on its text.
// Unsupported types extract from empty text, which degrades.
func (s *DocumentService) ExtractUpload(ctx context.Context, uploadID, filename string) (DealExtraction, string, error) {
	body, err := s.blobs.Get(ctx, storage.UploadKey(uploadID, filename))
	if err != nil {
		return DealExtraction{}, "", err
	}

	text, err := s.text.Derive(validation.DocumentType(filename, ""), body)
	if err != nil && !errors.Is(err, ErrUnsupportedDocument) {
		return DealExtraction{}, "", err
	}

	return s.extractor.Extract(ctx, text), text, nil
}

// ProcessPending derives text for up to limit pending documents and records
// the outcome on each. It returns how many documents were handled.
func (s *DocumentService) ProcessPending(ctx context.Context, limit int) (int, error) {
	docs, err := s.deals.ListPendingDocuments(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending documents: %w", err)
	}

	for _, doc := range docs {
		status, text := s.process(ctx, doc)
		if err := s.deals.UpdateDocumentExtraction(ctx, doc.ID, status, text); err != nil {
			return 0, fmt.Errorf("update document %s: %w", doc.ID, err)
		}
	}
	return len(docs), nil
}

func (s *DocumentService) process(ctx context.Context, doc model.PropertyDocument) (string, *string) {
	contentType := ""
	if doc.ContentType != nil {
		contentType = *doc.ContentType
	}
	contentType = validation.DocumentType(doc.Filename, contentType)

	body, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		slog.Error("Failed to fetch document",
			slog.String("document_id", doc.ID.String()),
			slog.String("error", err.Error()))
		return model.ExtractionFailed, nil
	}

	text, err := s.text.Derive(contentType, body)
	switch {
	case errors.Is(err, ErrUnsupportedDocument):
		return model.ExtractionUnsupported, nil
	case err != nil:
		slog.Error("Failed to derive document text",
			slog.String("document_id", doc.ID.String()),
			slog.String("error", err.Error()))
		return model.ExtractionFailed, nil
	}
	return model.ExtractionCompleted, &text
}
