package graphql

import (
	"context"
	"fmt"

	"github.com/iqengi/site/internal/domain"
)

const newsletterMutation = `mutation Newsletter_subscribe($input: NewsletterSubscribeInput!) {
  Newsletter_subscribe(input: $input) {
    success
    message
  }
}`

// Newsletter implements domain.NewsletterSubscriber.
type Newsletter struct {
	client *Client
}

// NewNewsletter creates a subscriber using client.
func NewNewsletter(client *Client) *Newsletter {
	return &Newsletter{client: client}
}

// Subscribe runs the subscribe mutation. A structured failure is returned
// as a result with Success false, not as an error.
func (n *Newsletter) Subscribe(ctx context.Context, email string, source domain.NewsletterSource) (*domain.NewsletterResult, error) {
	var data newsletterData
	vars := map[string]any{"input": map[string]any{"email": email, "source": string(source)}}
	if err := n.client.Mutate(ctx, newsletterMutation, vars, &data); err != nil {
		return nil, fmt.Errorf("newsletter subscribe: %w", err)
	}
	if err := checkContract("Newsletter_subscribe", data); err != nil {
		return nil, err
	}
	return &domain.NewsletterResult{Success: data.Subscribe.Success, Message: data.Subscribe.Message}, nil
}
