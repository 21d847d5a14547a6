package ollama

import (
	"context"
	"strings"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

const systemMessage = "You are a helpful document assistant that only uses provided context."

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateAnswer sends the assembled context and question through the
// chat endpoint. Sampling options are fixed per client configuration,
// not per call.
func (g *Generator) GenerateAnswer(ctx context.Context, question string, promptCtx domain.PromptContext) (string, error) {
	request := map[string]any{
		"model": g.client.genModel,
		"messages": []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: buildHybridPrompt(question, promptCtx)},
		},
		"stream": false,
		"options": map[string]any{
			"temperature": g.client.temperature,
			"top_p":       1,
		},
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := g.client.postJSON(ctx, "/api/chat", request, &response, "chat"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Message.Content), nil
}
