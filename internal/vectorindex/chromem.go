package vectorindex

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
)

const (
	metaDocumentID = "document_id"
	metaChunkIndex = "chunk_index"

	compress = false
)

// ChromemIndex is a persistent chromem-go collection. Vectors are supplied by
// the caller; the collection's own embedding function is never invoked.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimension  int
}

// NewChromemIndex opens (or creates) the collection at path. dimension is the
// expected embedding length; Add rejects vectors of any other size so a
// misconfigured embedding model fails loudly instead of corrupting the index.
func NewChromemIndex(path, collectionName string, dimension int) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("open vector db failed: %w", err)
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create collection failed: %w", err)
	}
	return &ChromemIndex{
		db:         db,
		collection: collection,
		dimension:  dimension,
	}, nil
}

func (c *ChromemIndex) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		if c.dimension > 0 && len(e.Embedding) != c.dimension {
			return fmt.Errorf("embedding dimension mismatch: want %d got %d", c.dimension, len(e.Embedding))
		}
		docs[i] = chromem.Document{
			ID:      entryID(e.DocumentID, e.ChunkIndex),
			Content: e.Content,
			Metadata: map[string]string{
				metaDocumentID: strconv.FormatUint(uint64(e.DocumentID), 10),
				metaChunkIndex: strconv.Itoa(e.ChunkIndex),
			},
			Embedding: e.Embedding,
		}
	}
	if err := c.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents to vector index failed: %w", err)
	}
	return nil
}

func (c *ChromemIndex) Search(ctx context.Context, vector []float32, documentID *uint, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	if total := c.collection.Count(); k > total {
		k = total
	}
	if k == 0 {
		return nil, nil
	}

	opts := chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       k,
	}
	if documentID != nil {
		opts.Where = map[string]string{
			metaDocumentID: strconv.FormatUint(uint64(*documentID), 10),
		}
	}

	results, err := c.collection.QueryWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("vector index query failed: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, res := range results {
		docID, err := strconv.ParseUint(res.Metadata[metaDocumentID], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed document id in index metadata: %w", err)
		}
		chunkIndex, _ := strconv.Atoi(res.Metadata[metaChunkIndex])
		matches = append(matches, Match{
			DocumentID: uint(docID),
			ChunkIndex: chunkIndex,
			Content:    res.Content,
			Score:      res.Similarity,
		})
	}
	return matches, nil
}

func (c *ChromemIndex) DeleteByDocument(ctx context.Context, documentID uint) error {
	where := map[string]string{
		metaDocumentID: strconv.FormatUint(uint64(documentID), 10),
	}
	if err := c.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("delete document vectors failed: %w", err)
	}
	return nil
}

func entryID(documentID uint, chunkIndex int) string {
	return fmt.Sprintf("%d-%d", documentID, chunkIndex)
}
