package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"docuchat/internal/ai"
	"docuchat/internal/model"
	"docuchat/internal/vectorindex"
)

const (
	defaultTopK          = 4
	defaultHistoryWindow = 10
	defaultSessionTTL    = 24 * time.Hour
)

const answerSystemPrompt = "You are an assistant answering questions about uploaded documents. " +
	"Use only the following context to answer. If the context does not contain " +
	"enough information, say that you cannot answer from the documents. Do not make up facts."

const rewriteSystemPrompt = "Given the conversation so far, rewrite the user's follow-up question " +
	"into a standalone question that can be understood without the conversation. " +
	"Resolve references like \"it\" or \"that\". Return only the rewritten question, nothing else."

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion for a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []ai.Message) (string, error)
}

type SessionStore interface {
	Create(session *model.ChatSession) error
	GetByToken(token string) (*model.ChatSession, error)
}

type TurnStore interface {
	Create(turn *model.Turn) error
	ListRecentBySession(token string, limit int) ([]model.Turn, error)
	ListRecent(limit int, token string) ([]model.Turn, error)
}

type DocumentFinder interface {
	GetByID(id uint) (*model.Document, error)
}

type TranscriptCache interface {
	GetTranscript(ctx context.Context, token string) ([]model.Turn, bool, error)
	SetTranscript(ctx context.Context, token string, turns []model.Turn) error
	DeleteTranscript(ctx context.Context, token string) error
	MarkDirty(ctx context.Context, token string) error
	IsDirty(ctx context.Context, token string) (bool, error)
}

// ChatServiceOptions tune the orchestrator; zero values fall back to the
// documented defaults (k=4, window=10, 24h sessions, rewriting on).
type ChatServiceOptions struct {
	TopK           int
	HistoryWindow  int
	SessionTTL     time.Duration
	DisableRewrite bool
}

// ChatService is the conversational retrieval orchestrator: it resolves the
// session, rewrites follow-up questions into standalone retrieval queries,
// gathers the top-k chunks, and delegates the final answer to the generator.
type ChatService struct {
	sessions  SessionStore
	turns     TurnStore
	documents DocumentFinder
	cache     TranscriptCache
	embedder  Embedder
	generator Generator
	index     vectorindex.Index
	opts      ChatServiceOptions
}

func NewChatService(
	sessions SessionStore,
	turns TurnStore,
	documents DocumentFinder,
	cache TranscriptCache,
	embedder Embedder,
	generator Generator,
	index vectorindex.Index,
	opts ChatServiceOptions,
) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = defaultHistoryWindow
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	return &ChatService{
		sessions:  sessions,
		turns:     turns,
		documents: documents,
		cache:     cache,
		embedder:  embedder,
		generator: generator,
		index:     index,
		opts:      opts,
	}
}

type AskInput struct {
	Question     string
	DocumentID   *uint
	SessionToken string
}

type AskResult struct {
	Question     string              `json:"question"`
	Answer       string              `json:"answer"`
	Sources      []vectorindex.Match `json:"sources"`
	SessionToken string              `json:"session_id"`
}

// Ask answers a question over the indexed documents, honoring prior turns of
// the same session. Exactly one turn is persisted per successful call, after
// the answer exists; collaborator failures leave no partial record behind.
func (s *ChatService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	if input.DocumentID != nil {
		doc, err := s.documents.GetByID(*input.DocumentID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, ErrDocumentNotFound
		}
	}

	session, err := s.resolveSession(strings.TrimSpace(input.SessionToken))
	if err != nil {
		return nil, err
	}

	transcript, err := s.loadTranscript(ctx, session.Token)
	if err != nil {
		return nil, err
	}

	retrievalQuery := question
	if len(transcript) > 0 && !s.opts.DisableRewrite {
		rewritten, err := s.rewriteQuestion(ctx, transcript, question)
		if err != nil {
			return nil, wrapUpstream("rewrite question", err)
		}
		if rewritten != "" {
			retrievalQuery = rewritten
		}
	}

	queryVec, err := s.embedder.Embed(ctx, retrievalQuery)
	if err != nil {
		return nil, wrapUpstream("embed query", err)
	}

	matches, err := s.index.Search(ctx, queryVec, input.DocumentID, s.opts.TopK)
	if err != nil {
		return nil, wrapUpstream("vector search", err)
	}

	// Zero matches is a valid outcome: the generator answers against an empty
	// context and is instructed to say it cannot answer from the documents.
	answer, err := s.generator.Generate(ctx, s.buildAnswerMessages(transcript, matches, question))
	if err != nil {
		return nil, wrapUpstream("generate answer", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = "The model returned an empty response."
	}

	turn := &model.Turn{
		SessionToken: session.Token,
		DocumentID:   input.DocumentID,
		Question:     question,
		Answer:       answer,
		SourcesCount: len(matches),
	}
	if err := s.turns.Create(turn); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.MarkDirty(ctx, session.Token)
		_ = s.cache.DeleteTranscript(ctx, session.Token)
	}

	return &AskResult{
		Question:     question,
		Answer:       answer,
		Sources:      matches,
		SessionToken: session.Token,
	}, nil
}

// History returns recent turns, newest first; token filters to one session
// when non-empty.
func (s *ChatService) History(token string, limit int) ([]model.Turn, error) {
	if token != "" {
		session, err := s.sessions.GetByToken(token)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
	}
	return s.turns.ListRecent(limit, token)
}

func (s *ChatService) resolveSession(token string) (*model.ChatSession, error) {
	if token == "" {
		now := time.Now()
		session := &model.ChatSession{
			Token:     uuid.NewString(),
			IssuedAt:  now,
			ExpiresAt: now.Add(s.opts.SessionTTL),
		}
		if err := s.sessions.Create(session); err != nil {
			return nil, err
		}
		return session, nil
	}

	session, err := s.sessions.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (s *ChatService) loadTranscript(ctx context.Context, token string) ([]model.Turn, error) {
	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, token)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetTranscript(ctx, token); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	turns, err := s.turns.ListRecentBySession(token, s.opts.HistoryWindow)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, token); dirtyErr == nil && !dirty {
			_ = s.cache.SetTranscript(ctx, token, turns)
		}
	}
	return turns, nil
}

// rewriteQuestion asks the generator for a standalone form of the question.
// The result is used for retrieval only and never shown to the caller.
func (s *ChatService) rewriteQuestion(ctx context.Context, transcript []model.Turn, question string) (string, error) {
	messages := make([]ai.Message, 0, 2*len(transcript)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: rewriteSystemPrompt})
	messages = append(messages, transcriptMessages(transcript)...)
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: question})

	rewritten, err := s.generator.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rewritten), nil
}

func (s *ChatService) buildAnswerMessages(transcript []model.Turn, matches []vectorindex.Match, question string) []ai.Message {
	var contextBlock strings.Builder
	if len(matches) == 0 {
		contextBlock.WriteString("(no relevant passages were retrieved)")
	} else {
		for _, m := range matches {
			contextBlock.WriteString("\n---\n")
			contextBlock.WriteString(m.Content)
		}
		contextBlock.WriteString("\n---")
	}

	messages := make([]ai.Message, 0, 2*len(transcript)+2)
	messages = append(messages, ai.Message{
		Role:    ai.RoleSystem,
		Content: answerSystemPrompt + "\n\nContext:\n" + contextBlock.String(),
	})
	messages = append(messages, transcriptMessages(transcript)...)
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: question})
	return messages
}

// transcriptMessages converts stored turns into an alternating user/assistant
// conversation, oldest first.
func transcriptMessages(transcript []model.Turn) []ai.Message {
	messages := make([]ai.Message, 0, 2*len(transcript))
	for _, turn := range transcript {
		messages = append(messages,
			ai.Message{Role: ai.RoleUser, Content: turn.Question},
			ai.Message{Role: ai.RoleAssistant, Content: turn.Answer},
		)
	}
	return messages
}
