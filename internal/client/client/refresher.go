package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/dashapi/internal/client/models"
	"github.com/dmitrijs2005/dashapi/internal/client/queue"
	"github.com/dmitrijs2005/dashapi/internal/client/transport"
	"github.com/google/uuid"
)

// endpointRefresher calls the refresh endpoint of the API. It goes through
// the limiter at replay priority but never through refresh or retry itself.
type endpointRefresher struct {
	c *Client
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (r endpointRefresher) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	req := &transport.Request{
		Method:   http.MethodPost,
		Path:     r.c.cfg.RefreshPath,
		Body:     refreshRequest{Refresh: refreshToken},
		SkipAuth: true,
		ID:       uuid.NewString(),
	}

	resp, err := r.c.send(ctx, req, queue.PriorityReplay, "")
	if err != nil {
		return models.TokenPair{}, err
	}

	var pair models.TokenPair
	if err := json.Unmarshal(resp.Body, &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return pair, nil
}
