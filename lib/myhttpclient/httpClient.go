package myhttpclient

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

type restyHTTPClient struct {
	client *resty.Client
}

func newRestyHTTPClient() HTTPSender {
	// No client-side timeout: a hung call stalls the queue rather than
	// silently turning into a retry. Callers can cancel via the context.
	return &restyHTTPClient{
		client: resty.New(),
	}
}

func (c *restyHTTPClient) Send(ctx context.Context, method string, url string, body []byte, headers map[string]string) (int, []byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Execute(method, url)
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error sending %s %s: %s", method, url, err)
	}

	return resp.StatusCode(), resp.Body(), nil
}
