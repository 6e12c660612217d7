package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultAPIURL = "https://api.telegram.org"

// Client talks to the Telegram Bot API.
type Client struct {
	token string
	http  *resty.Client
}

func NewClient(apiURL, token string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		token: token,
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(apiURL, "/")).
			SetTimeout(10 * time.Second),
	}
}

type sendMessageReq struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage sends plain text. No parse mode is set so model output with
// markdown characters goes through unchanged.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	var out apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendMessageReq{ChatID: chatID, Text: text}).
		SetResult(&out).
		SetError(&out).
		Post(c.method("sendMessage"))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return check(resp.StatusCode(), resp.String(), out)
}

// SendDocument uploads data as a file attachment.
func (c *Client) SendDocument(ctx context.Context, chatID int64, data []byte, fileName string) error {
	var out apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"chat_id": strconv.FormatInt(chatID, 10)}).
		SetFileReader("document", fileName, bytes.NewReader(data)).
		SetResult(&out).
		SetError(&out).
		Post(c.method("sendDocument"))
	if err != nil {
		return fmt.Errorf("failed to send telegram document: %w", err)
	}
	return check(resp.StatusCode(), resp.String(), out)
}

func (c *Client) method(name string) string {
	return "/bot" + c.token + "/" + name
}

func check(status int, body string, out apiResponse) error {
	if status >= 300 || !out.OK {
		return fmt.Errorf("telegram api returned status: %d, body: %s", status, body)
	}
	return nil
}
