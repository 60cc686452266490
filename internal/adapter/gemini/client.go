package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"cineqa/internal/answer"
)

// Client wraps one genai connection for both embedding and generation.
// Constructed once at bootstrap and closed at shutdown; components receive it
// through their interfaces rather than as ambient state.
type Client struct {
	client     *genai.Client
	genModel   string
	embedModel string
}

func NewClient(ctx context.Context, apiKey, genModel, embedModel string, opts ...option.ClientOption) (*Client, error) {
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{client: client, genModel: genModel, embedModel: embedModel}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", c.embedModel, "length", len(text))
	em := c.client.EmbeddingModel(c.embedModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, err
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("empty embedding received")
	}
	return res.Embedding.Values, nil
}

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	em := c.client.EmbeddingModel(c.embedModel)
	b := em.NewBatch()
	for _, t := range texts {
		b.AddContent(genai.Text(t))
	}
	res, err := em.BatchEmbedContents(ctx, b)
	if err != nil {
		slog.ErrorContext(ctx, "batch embedding failed", "error", err, "count", len(texts))
		return nil, err
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(res.Embeddings))
	}
	out := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

// Complete runs a single non-streaming generation. Used by the query planner
// and the knowledge extractor.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	model := c.client.GenerativeModel(c.genModel)
	model.SetTemperature(temperature)

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return collectText(res), nil
}

// StreamComplete runs a chat-style streaming generation: system instructions,
// prior turns in order, then the question as the final user turn. Each token
// is forwarded to onToken as it arrives; the concatenated answer is returned
// on completion. Cancelling ctx stops the stream without any rollback.
func (c *Client) StreamComplete(ctx context.Context, system string, history []answer.Turn, question string, temperature float32, onToken func(string) error) (string, error) {
	model := c.client.GenerativeModel(c.genModel)
	model.SetTemperature(temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	session := model.StartChat()
	for _, m := range history {
		role := "user"
		if m.Role == answer.RoleAssistant {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	iter := session.SendMessageStream(ctx, genai.Text(question))
	var full string
	for {
		res, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return full, err
		}
		token := collectText(res)
		if token == "" {
			continue
		}
		full += token
		if onToken != nil {
			if err := onToken(token); err != nil {
				return full, err
			}
		}
	}
	return full, nil
}

func collectText(res *genai.GenerateContentResponse) string {
	if res == nil {
		return ""
	}
	var out string
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				out += string(t)
			}
		}
	}
	return out
}
