// pkg/bunny/live.go
package bunny

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// LiveStream is the provider's view of a live session. Status is the raw
// numeric lifecycle code.
type LiveStream struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	RTMPURL     string `json:"rtmpUrl"`
	StreamKey   string `json:"streamKey"`
	PlaybackURL string `json:"playbackUrl"`
	Status      int    `json:"status"`
}

type createLiveRequest struct {
	Title string `json:"title"`
}

func (c *Client) CreateLiveStream(ctx context.Context, title string) (*LiveStream, error) {
	var out LiveStream
	if err := c.do(ctx, http.MethodPost, c.libraryPath("/live"), createLiveRequest{Title: title}, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("bunny create live stream: empty id in response")
	}
	return &out, nil
}

func (c *Client) GetLiveStream(ctx context.Context, id string) (*LiveStream, error) {
	var out LiveStream
	if err := c.do(ctx, http.MethodGet, c.libraryPath("/live/%s", url.PathEscape(id)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteLiveStream(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.libraryPath("/live/%s", url.PathEscape(id)), nil, nil)
}
