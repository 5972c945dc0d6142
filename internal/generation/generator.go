package generation

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	fullBookMaxTokens  = 1000
	selectionMaxTokens = 800
)

const fullBookSystemPrompt = `You are an AI assistant helping students learn about Physical AI and Humanoid Robotics.

Your task is to answer questions based STRICTLY on the provided context from the textbook. Follow these rules:

1. ONLY use information from the provided context sources
2. If the context doesn't contain enough information to answer, say "I don't have enough information in the textbook to answer this question."
3. DO NOT make up information or use external knowledge
4. When citing information, reference the source number (e.g., "According to Source 1...")
5. Be clear, concise, and educational
6. If the user's question is ambiguous, ask for clarification
7. Format your answers with proper structure (paragraphs, lists when appropriate)

Remember: Accuracy is more important than completeness. It's better to say "I don't know" than to hallucinate information.`

const selectionSystemPrompt = `You are an AI assistant helping students understand specific passages from a Physical AI and Humanoid Robotics textbook.

The user has highlighted a specific passage and is asking a question about it. Your task is to:

1. Focus your answer on the highlighted passage
2. Use the additional context ONLY to provide supporting information
3. Stay within the scope of the highlighted text
4. Be concise and directly address the question
5. If the question cannot be answered from the highlighted passage, say so clearly

Remember: The highlighted passage is the primary source.`

// Generator produces answers through the OpenAI chat-completions API.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
}

// Config configures the response generator.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
}

// New creates a generator. The model defaults to gpt-4o-mini with a low
// temperature to favor deterministic answers.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generator: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	return &Generator{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
	}, nil
}

// Available reports whether the completion client is configured.
func (g *Generator) Available() bool { return g != nil && g.client != nil }

// Generate answers a full-book query from the assembled context.
func (g *Generator) Generate(ctx context.Context, query, docContext string) (string, float64, error) {
	text, err := g.complete(ctx, fullBookSystemPrompt, buildUserMessage(query, docContext), fullBookMaxTokens)
	if err != nil {
		return "", 0, err
	}
	return text, EstimateConfidence(text, docContext), nil
}

// GenerateForSelection answers a query focused on a highlighted passage.
func (g *Generator) GenerateForSelection(ctx context.Context, query, docContext, selectedText string) (string, float64, error) {
	userMessage := fmt.Sprintf(`Highlighted passage:
%s

---

Additional context from textbook:
%s

---

Question: %s

Please answer the question focusing primarily on the highlighted passage above.`, selectedText, docContext, query)

	text, err := g.complete(ctx, selectionSystemPrompt, userMessage, selectionMaxTokens)
	if err != nil {
		return "", 0, err
	}
	return text, EstimateConfidence(text, docContext), nil
}

func (g *Generator) complete(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: g.temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildUserMessage(query, docContext string) string {
	if docContext == "" {
		return fmt.Sprintf(`Question: %s

Context: No relevant information found in the textbook.

Please answer based on the available context.`, query)
	}
	return fmt.Sprintf(`Context from textbook:

%s

---

Question: %s

Please answer the question using ONLY the information from the context above. Cite specific sources when possible.`, docContext, query)
}
