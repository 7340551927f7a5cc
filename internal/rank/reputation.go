package rank

import (
	"context"
	"fmt"
)

// Reputation derives a user's reputation from the answer and vote store:
// AcceptedAnswerPoints per accepted answer plus one point per upvote
// received. Read fresh on every call; reputation is never stored.
func (c *Calculator) Reputation(ctx context.Context, userID string) (int, error) {
	accepted, err := c.store.AcceptedAnswerCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("accepted answers: %w", err)
	}

	upvotes, err := c.store.UpvotesReceived(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("upvotes received: %w", err)
	}

	return c.cfg.AcceptedAnswerPoints*accepted + upvotes, nil
}
