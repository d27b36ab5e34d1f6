// Package spark implements the completion provider backed by the
// Xunfei Spark chat service: an authenticated streaming websocket with
// HMAC-SHA256-signed request headers and a JSON message envelope of
// header/parameter/payload fields.
package spark

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/tliron/commonlog"

	"github.com/dshills/redline/internal/completion"
)

var log = commonlog.GetLogger("redline.spark")

// Config holds the Spark connection settings.
type Config struct {
	AppID     string
	APIKey    string
	APISecret string

	// Host, Path, and Domain default to the general v2 chat endpoint.
	Host   string
	Path   string
	Domain string

	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the default Spark endpoint settings.
func DefaultConfig() Config {
	return Config{
		Host:        "spark-api.xf-yun.com",
		Path:        "/v2.1/chat",
		Domain:      "generalv2",
		Temperature: 0.5,
		MaxTokens:   1024,
	}
}

// Client is a completion.Provider over the Spark websocket protocol.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
}

// New creates a Spark client. Zero-valued endpoint fields fall back to
// DefaultConfig.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Path == "" {
		cfg.Path = def.Path
	}
	if cfg.Domain == "" {
		cfg.Domain = def.Domain
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Complete implements completion.Provider. It dials the service, sends
// one request envelope, and concatenates the streamed response chunks
// until the terminal status frame arrives.
func (c *Client) Complete(ctx context.Context, req completion.Request) (string, error) {
	url := fmt.Sprintf("wss://%s%s", c.cfg.Host, c.cfg.Path)
	return c.completeWS(ctx, url, req)
}

func (c *Client) completeWS(ctx context.Context, url string, req completion.Request) (string, error) {
	date := time.Now().UTC().Format(http.TimeFormat)

	header := http.Header{}
	header.Set("authorization", c.authorization(date))
	header.Set("date", date)
	header.Set("host", c.cfg.Host)

	conn, _, err := c.dialer.DialContext(ctx, url, header)
	if err != nil {
		return "", fmt.Errorf("spark: dial %s: %w", url, err)
	}
	defer conn.Close()

	msg, err := c.envelope(req.Preceding)
	if err != nil {
		return "", err
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return "", fmt.Errorf("spark: send: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return "", fmt.Errorf("spark: deadline: %w", err)
		}
	}

	// Watch ctx so cancellation unblocks the read loop.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var out strings.Builder
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("spark: read: %w", err)
		}

		frame := gjson.ParseBytes(data)
		if code := frame.Get("header.code").Int(); code != 0 {
			return "", fmt.Errorf("spark: service error %d: %s",
				code, frame.Get("header.message").String())
		}
		for _, chunk := range frame.Get("payload.choices.text").Array() {
			out.WriteString(chunk.Get("content").String())
		}
		if frame.Get("header.status").Int() == 2 {
			break
		}
	}

	log.Debugf("completion of %d bytes received", out.Len())
	return out.String(), nil
}

// authorization builds the base64 HMAC-SHA256 signature header the
// service expects: the signature covers the host, date, and request
// line.
func (c *Client) authorization(date string) string {
	requestLine := fmt.Sprintf("GET %s HTTP/1.1", c.cfg.Path)
	signOrigin := fmt.Sprintf("host: %s\ndate: %s\n%s", c.cfg.Host, date, requestLine)

	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write([]byte(signOrigin))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	origin := fmt.Sprintf(
		`api_key=%q, algorithm=%q, headers=%q, signature=%q`,
		c.cfg.APIKey, "hmac-sha256", "host date request-line", signature)

	return base64.StdEncoding.EncodeToString([]byte(origin))
}

// envelope builds the request message: header/parameter/payload.
func (c *Client) envelope(prompt string) (string, error) {
	uid := strings.ReplaceAll(uuid.NewString(), "-", "")
	if len(uid) > 32 {
		uid = uid[:32]
	}

	msg := "{}"
	var err error
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"header.app_id", c.cfg.AppID},
		{"header.uid", uid},
		{"parameter.chat.domain", c.cfg.Domain},
		{"parameter.chat.temperature", c.cfg.Temperature},
		{"parameter.chat.max_tokens", c.cfg.MaxTokens},
		{"payload.message.text.0.role", "user"},
		{"payload.message.text.0.content", prompt},
	} {
		if msg, err = sjson.Set(msg, kv.path, kv.value); err != nil {
			return "", fmt.Errorf("spark: envelope: %w", err)
		}
	}
	return msg, nil
}
