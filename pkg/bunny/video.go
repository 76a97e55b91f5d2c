// pkg/bunny/video.go
package bunny

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Video struct {
	GUID                 string  `json:"guid"`
	Title                string  `json:"title"`
	Status               int     `json:"status"`
	Length               int     `json:"length"`
	ThumbnailFileName    string  `json:"thumbnailFileName"`
	Width                int     `json:"width"`
	Height               int     `json:"height"`
	Framerate            float64 `json:"framerate"`
	StorageSize          int64   `json:"storageSize"`
	AvailableResolutions string  `json:"availableResolutions"`
}

// Resolutions splits the provider's comma separated resolution list.
func (v *Video) Resolutions() []string {
	if v.AvailableResolutions == "" {
		return nil
	}
	parts := strings.Split(v.AvailableResolutions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type createVideoRequest struct {
	Title string `json:"title"`
}

func (c *Client) CreateVideo(ctx context.Context, title string) (*Video, error) {
	var out Video
	if err := c.do(ctx, http.MethodPost, c.libraryPath("/videos"), createVideoRequest{Title: title}, &out); err != nil {
		return nil, err
	}
	if out.GUID == "" {
		return nil, fmt.Errorf("bunny create video: empty guid in response")
	}
	return &out, nil
}

func (c *Client) GetVideo(ctx context.Context, guid string) (*Video, error) {
	var out Video
	if err := c.do(ctx, http.MethodGet, c.libraryPath("/videos/%s", url.PathEscape(guid)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteVideo(ctx context.Context, guid string) error {
	return c.do(ctx, http.MethodDelete, c.libraryPath("/videos/%s", url.PathEscape(guid)), nil, nil)
}

// UploadCredentials lets a client push the file straight to the provider's
// TUS endpoint without ever seeing the API key.
type UploadCredentials struct {
	Endpoint  string `json:"endpoint"`
	LibraryID string `json:"libraryId"`
	VideoID   string `json:"videoId"`
	Signature string `json:"signature"`
	ExpiresAt int64  `json:"expiresAt"`
}

// SignUpload computes sha256(libraryId + apiKey + expiration + videoId).
func (c *Client) SignUpload(videoID string, expires time.Time) UploadCredentials {
	exp := expires.Unix()
	sum := sha256.Sum256([]byte(c.libraryID + c.apiKey + strconv.FormatInt(exp, 10) + videoID))
	return UploadCredentials{
		Endpoint:  DefaultTUSEndpoint,
		LibraryID: c.libraryID,
		VideoID:   videoID,
		Signature: hex.EncodeToString(sum[:]),
		ExpiresAt: exp,
	}
}

func (c *Client) PlaybackURL(guid string) string {
	return fmt.Sprintf("https://%s/%s/playlist.m3u8", c.cdnHostname, guid)
}

func (c *Client) ThumbnailURL(guid, fileName string) string {
	if fileName == "" {
		fileName = "thumbnail.jpg"
	}
	return fmt.Sprintf("https://%s/%s/%s", c.cdnHostname, guid, fileName)
}

func (c *Client) EmbedURL(guid string) string {
	return fmt.Sprintf("%s/%s/%s", embedBaseURL, c.libraryID, guid)
}
