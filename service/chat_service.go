package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"docchat-backend/models"

	"github.com/google/generative-ai-go/genai"
)

const defaultContextTimeout = 15 * time.Second

// ErrGenerationFailed marks a failed LLM call. Unlike retrieval and search
// failures, this one is surfaced to the user in place of an answer.
var ErrGenerationFailed = errors.New("failed to generate response")

// ChatModel sends one turn of an ongoing conversation to a language model
// and returns the generated text.
type ChatModel interface {
	Generate(ctx context.Context, history []models.ConversationTurn, message string) (string, error)
}

// ConversationStore persists turns and replays them in creation order.
type ConversationStore interface {
	Append(ctx context.Context, role, content string) error
	ListAll(ctx context.Context) ([]models.ConversationTurn, error)
}

// ChatService runs one user turn: gather document and web context, fuse them
// with the question, generate against the conversation history, persist.
type ChatService struct {
	retriever      *Retriever
	searcher       WebSearcher
	model          ChatModel
	history        ConversationStore
	contextTimeout time.Duration
}

// ChatServiceOption is a functional option for ChatService.
type ChatServiceOption func(*ChatService)

// ChatWithRetriever sets the document retriever.
func ChatWithRetriever(r *Retriever) ChatServiceOption {
	return func(s *ChatService) {
		s.retriever = r
	}
}

// ChatWithWebSearcher sets the live web searcher. A nil searcher disables
// the search context.
func ChatWithWebSearcher(w WebSearcher) ChatServiceOption {
	return func(s *ChatService) {
		s.searcher = w
	}
}

// ChatWithModel sets the chat model.
func ChatWithModel(m ChatModel) ChatServiceOption {
	return func(s *ChatService) {
		s.model = m
	}
}

// ChatWithConversationStore sets the persisted conversation history.
func ChatWithConversationStore(h ConversationStore) ChatServiceOption {
	return func(s *ChatService) {
		s.history = h
	}
}

// ChatWithContextTimeout bounds the combined retrieval and search phase.
func ChatWithContextTimeout(d time.Duration) ChatServiceOption {
	return func(s *ChatService) {
		s.contextTimeout = d
	}
}

// NewChatService creates a chat service.
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{contextTimeout: defaultContextTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs one turn for the given question and returns the model's reply.
//
// The original question (not the fused prompt) is what gets persisted as the
// user turn. Persistence is sequential and at-least-once: a generation
// failure after the user turn was saved leaves that turn orphaned in the
// history, which is accepted rather than made transactional.
func (s *ChatService) Answer(ctx context.Context, question string) (string, error) {
	if s.model == nil {
		return "", errors.New("chat model not set")
	}

	var history []models.ConversationTurn
	if s.history != nil {
		var err error
		history, err = s.history.ListAll(ctx)
		if err != nil {
			log.Printf("Warning: failed to load conversation history: %v", err)
			history = nil
		}
	}

	docContext, searchContext := s.gatherContext(ctx, question)
	prompt := AssemblePrompt(question, docContext, searchContext)

	if s.history != nil {
		if err := s.history.Append(ctx, models.RoleUser, question); err != nil {
			log.Printf("Warning: failed to persist user turn: %v", err)
		}
	}

	answer, err := s.model.Generate(ctx, history, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if s.history != nil {
		if err := s.history.Append(ctx, models.RoleModel, answer); err != nil {
			log.Printf("Warning: failed to persist model turn: %v", err)
		}
	}

	return answer, nil
}

// gatherContext runs retrieval and web search concurrently; the results are
// combined only after both complete. Either side failing or timing out
// degrades that side to its sentinel, never the whole turn.
func (s *ChatService) gatherContext(ctx context.Context, question string) (string, string) {
	callCtx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	docContext := NoDocContext
	searchContext := NoWebResults

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if s.retriever == nil {
			return
		}
		docContext = s.retriever.Retrieve(callCtx, question)
	}()
	go func() {
		defer wg.Done()
		if s.searcher == nil {
			return
		}
		result, err := s.searcher.Search(callCtx, question)
		if err != nil {
			log.Printf("Warning: web search failed, continuing without search context: %v", err)
			return
		}
		searchContext = result
	}()
	wg.Wait()

	return docContext, searchContext
}

// GeminiChatModel implements ChatModel on top of the Gemini chat API.
type GeminiChatModel struct {
	client *genai.Client
	model  string
}

// NewGeminiChatModel creates a chat model for the given model name
// (e.g. "gemini-1.5-flash").
func NewGeminiChatModel(client *genai.Client, model string) *GeminiChatModel {
	return &GeminiChatModel{client: client, model: model}
}

// Generate sends the message as the latest user turn of a chat seeded with
// the persisted history and returns the model's text.
func (m *GeminiChatModel) Generate(ctx context.Context, history []models.ConversationTurn, message string) (string, error) {
	session := m.client.GenerativeModel(m.model).StartChat()
	for _, turn := range history {
		session.History = append(session.History, &genai.Content{
			Role:  turn.Role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}
	if builder.Len() == 0 {
		return "", errors.New("model returned no text")
	}
	return builder.String(), nil
}
