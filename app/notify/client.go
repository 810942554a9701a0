package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// delayHintMS is the typing-delay hint forwarded to the gateway
const delayHintMS = 5000

var _ Sender = (*Client)(nil)

// Client talks to an Evolution-style WhatsApp gateway. One send is one
// blocking POST with a bounded timeout; a timeout counts as a failed
// delivery, there are no retries.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
	Delay  int    `json:"delay"`
}

// Send delivers one message through the named gateway instance. The
// gateway signals acceptance with HTTP 201; any other status or transport
// error is a delivery failure.
func (c *Client) Send(ctx context.Context, instanceName, token, number, text string) error {
	reqBody, err := json.Marshal(sendRequest{
		Number: number,
		Text:   text,
		Delay:  delayHintMS,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, instanceName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected gateway status: %d body=%q", resp.StatusCode, string(body))
	}

	return nil
}
