package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// maxReviewCode bounds how much of a snippet is sent for review.
const maxReviewCode = 16 * 1024

// CodeReviewer asks Gemini for a short review of a code snippet.
type CodeReviewer struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewCodeReviewer(apiKey, modelName string, concurrentReqs int) (*CodeReviewer, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(1024)
	model.SystemInstruction = genai.NewUserContent(genai.Text(
		"You review short programs written by students. Be concise and concrete."))

	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &CodeReviewer{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (r *CodeReviewer) Close() {
	r.client.Close()
}

// acquireRate blocks until a rate slot is available
func (r *CodeReviewer) acquireRate(ctx context.Context) error {
	select {
	case <-r.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (r *CodeReviewer) releaseRate() {
	r.rateChan <- struct{}{}
}

func (r *CodeReviewer) Review(ctx context.Context, language, code string) (string, error) {
	if err := r.acquireRate(ctx); err != nil {
		return "", err
	}
	defer r.releaseRate()

	resp, err := r.model.GenerateContent(ctx, genai.Text(buildReviewPrompt(language, code)))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini review candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", fmt.Errorf("Gemini returned an empty review")
	}
	return text, nil
}

func buildReviewPrompt(language, code string) string {
	if len(code) > maxReviewCode {
		code = code[:maxReviewCode] + "\n... (truncated)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Review the following %s program.\n", language)
	b.WriteString("Respond in plain text with at most five bullet points covering:\n")
	b.WriteString("- correctness problems or bugs\n")
	b.WriteString("- time complexity and a faster approach if one exists\n")
	b.WriteString("- readability\n")
	b.WriteString("Do not rewrite the whole program.\n\n")
	b.WriteString("```")
	b.WriteString(language)
	b.WriteString("\n")
	b.WriteString(code)
	b.WriteString("\n```\n")
	return b.String()
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
