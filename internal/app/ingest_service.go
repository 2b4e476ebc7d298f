package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docuchat/internal/model"
	"docuchat/internal/pkg/pdfextract"
	"docuchat/internal/pkg/textchunk"
	"docuchat/internal/vectorindex"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	embeddingBatchSize  = 10 // most providers cap batch input size
)

// BatchEmbedder embeds several texts per provider call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type DocumentStore interface {
	Create(doc *model.Document) error
	List() ([]model.Document, error)
	GetByID(id uint) (*model.Document, error)
	Delete(id uint) error
	MarkProcessing(id uint) error
	MarkCompleted(id uint, chunksCount int) error
	MarkFailed(id uint, reason string) error
}

type TurnScrubber interface {
	ClearDocumentID(documentID uint) error
}

// IngestJob is the queue payload handed from upload to the ingest worker.
type IngestJob struct {
	DocumentID uint   `json:"document_id"`
	Path       string `json:"path"`
}

type IngestPublisher interface {
	Publish(ctx context.Context, job IngestJob) error
}

// IngestServiceOptions tune chunking and upload limits.
type IngestServiceOptions struct {
	UploadDir    string
	MaxBytes     int64
	ChunkSize    int
	ChunkOverlap int
}

// IngestService owns the document lifecycle: it accepts uploads, enqueues
// processing, and runs the extract-chunk-embed-index pipeline in the worker.
type IngestService struct {
	documents DocumentStore
	turns     TurnScrubber
	queue     IngestPublisher
	embedder  BatchEmbedder
	index     vectorindex.Index
	opts      IngestServiceOptions
}

func NewIngestService(
	documents DocumentStore,
	turns TurnScrubber,
	queue IngestPublisher,
	embedder BatchEmbedder,
	index vectorindex.Index,
	opts IngestServiceOptions,
) *IngestService {
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.ChunkOverlap <= 0 {
		opts.ChunkOverlap = defaultChunkOverlap
	}
	return &IngestService{
		documents: documents,
		turns:     turns,
		queue:     queue,
		embedder:  embedder,
		index:     index,
		opts:      opts,
	}
}

// SaveUpload stores the file under a unique name, creates a pending document
// record, and enqueues processing. Uploading the same file twice yields two
// distinct documents.
func (s *IngestService) SaveUpload(ctx context.Context, filename string, src io.Reader) (*model.Document, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, ErrInvalidInput
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, ErrInvalidInput
	}

	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}

	storagePath := filepath.Join(s.opts.UploadDir, uuid.NewString()[:8]+"_"+name)
	dst, err := os.Create(storagePath)
	if err != nil {
		return nil, fmt.Errorf("create upload file failed: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(storagePath)
		return nil, fmt.Errorf("write upload file failed: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(storagePath)
		return nil, fmt.Errorf("close upload file failed: %w", err)
	}

	doc := &model.Document{
		Filename:    name,
		StoragePath: storagePath,
		Status:      model.DocumentStatusPending,
	}
	if err := s.documents.Create(doc); err != nil {
		_ = os.Remove(storagePath)
		return nil, err
	}

	if err := s.queue.Publish(ctx, IngestJob{DocumentID: doc.ID, Path: storagePath}); err != nil {
		_ = s.documents.MarkFailed(doc.ID, "enqueue processing failed")
		return nil, fmt.Errorf("enqueue ingest job failed: %w", err)
	}
	return doc, nil
}

// ProcessDocument runs the ingestion pipeline for one queued job. Any step
// error marks the document failed with a reason; a crash mid-pipeline leaves
// it in processing, never completed without vectors.
func (s *IngestService) ProcessDocument(ctx context.Context, job IngestJob) error {
	if err := s.documents.MarkProcessing(job.DocumentID); err != nil {
		return err
	}

	f, err := os.Open(job.Path)
	if err != nil {
		return s.fail(job.DocumentID, fmt.Errorf("open stored file: %w", err))
	}
	text, err := pdfextract.ExtractText(f, s.opts.MaxBytes)
	f.Close()
	if err != nil {
		return s.fail(job.DocumentID, fmt.Errorf("extract text: %w", err))
	}

	chunksCount, err := s.indexText(ctx, job.DocumentID, text)
	if err != nil {
		return s.fail(job.DocumentID, err)
	}

	if err := s.documents.MarkCompleted(job.DocumentID, chunksCount); err != nil {
		return err
	}
	return nil
}

// indexText chunks, embeds, and indexes the extracted text, returning the
// number of indexed chunks. Blank chunks (whitespace runs inside the document)
// are skipped; surviving chunks keep their original positions.
func (s *IngestService) indexText(ctx context.Context, documentID uint, text string) (int, error) {
	chunks := textchunk.Split(text, s.opts.ChunkSize, s.opts.ChunkOverlap)

	kept := make([]string, 0, len(chunks))
	positions := make([]int, 0, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		kept = append(kept, chunk)
		positions = append(positions, i)
	}
	if len(kept) == 0 {
		return 0, fmt.Errorf("no chunks produced")
	}

	entries := make([]vectorindex.Entry, 0, len(kept))
	for start := 0; start < len(kept); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(kept) {
			end = len(kept)
		}
		batch := kept[start:end]
		vectors, err := s.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return 0, wrapUpstream("embed chunks", err)
		}
		if len(vectors) != len(batch) {
			return 0, wrapUpstream("embed chunks",
				fmt.Errorf("embedding count mismatch: want %d got %d", len(batch), len(vectors)))
		}
		for i := range batch {
			entries = append(entries, vectorindex.Entry{
				DocumentID: documentID,
				ChunkIndex: positions[start+i],
				Content:    batch[i],
				Embedding:  vectors[i],
			})
		}
	}

	if err := s.index.Add(ctx, entries); err != nil {
		return 0, wrapUpstream("index chunks", err)
	}
	return len(kept), nil
}

func (s *IngestService) ListDocuments() ([]model.Document, error) {
	return s.documents.List()
}

func (s *IngestService) GetDocument(id uint) (*model.Document, error) {
	doc, err := s.documents.GetByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// DeleteDocument removes the document's vectors, unlinks its turns, deletes
// the stored file, and drops the record.
func (s *IngestService) DeleteDocument(ctx context.Context, id uint) error {
	doc, err := s.documents.GetByID(id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		return wrapUpstream("delete document vectors", err)
	}
	if err := s.turns.ClearDocumentID(id); err != nil {
		return err
	}
	_ = os.Remove(doc.StoragePath)
	return s.documents.Delete(id)
}

func (s *IngestService) fail(documentID uint, cause error) error {
	_ = s.documents.MarkFailed(documentID, cause.Error())
	return fmt.Errorf("process document %d: %w", documentID, cause)
}
