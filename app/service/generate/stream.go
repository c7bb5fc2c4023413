package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// collectStream consumes a streamed completion and accumulates the deltas
// into one body. The start-of-generation hooks may re-fire while chunks
// arrive; the commit guard upstream makes that harmless.
func (s *Service) collectStream(ctx context.Context, client *openai.Client, request openai.ChatCompletionRequest) (string, error) {
	stream, err := client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return "", fmt.Errorf("failed to create completion stream: %w", err)
	}
	defer stream.Close()

	var builder strings.Builder

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to receive stream chunk: %w", err)
		}

		if len(response.Choices) == 0 {
			continue
		}

		builder.WriteString(response.Choices[0].Delta.Content)
	}

	return strings.TrimSpace(builder.String()), nil
}
