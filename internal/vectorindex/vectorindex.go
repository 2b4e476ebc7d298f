// Package vectorindex stores chunk embeddings and answers nearest-neighbor
// queries, optionally scoped to a single document.
package vectorindex

import "context"

// Entry is one indexed chunk of a document.
type Entry struct {
	DocumentID uint
	ChunkIndex int
	Content    string
	Embedding  []float32
}

// Match is a retrieved chunk with its similarity score.
type Match struct {
	DocumentID uint    `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
}

// Index is the vector store collaborator. Search results are ranked most
// similar first; documentID, when non-nil, restricts results to that document.
type Index interface {
	Add(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float32, documentID *uint, k int) ([]Match, error)
	DeleteByDocument(ctx context.Context, documentID uint) error
}
