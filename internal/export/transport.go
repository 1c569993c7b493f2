package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"punchout/internal/config"
	"punchout/internal/logging"
	"punchout/internal/outbox"
)

const userAgent = "Punchout-Go/1.0"

// Header names set on every delivery.
const (
	HeaderVersion   = "X-Punchout-Version"
	HeaderDevice    = "X-Punchout-Device"
	HeaderSignature = "X-Punchout-Signature"
)

// Transport delivers one queued item.
type Transport interface {
	Deliver(ctx context.Context, item *outbox.Item) Outcome
}

// Outcome is the classified result of one delivery attempt.
type Outcome struct {
	Delivered  bool
	Permanent  bool
	StatusCode int
	Err        error
}

// DeliveryError describes a failed delivery and classifies itself for
// outbox.IsPermanent.
type DeliveryError struct {
	Kind       string
	StatusCode int
	Message    string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "delivery failed"
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ErrorKind implements outbox.ErrorClassifier.
func (e *DeliveryError) ErrorKind() string { return e.Kind }

// HTTPTransport posts packets to the configured endpoint.
type HTTPTransport struct {
	endpoint string
	secret   string
	deviceID string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPTransport builds a transport from the export settings. A static
// bearer token takes precedence over client credentials. ctx supplies the
// base HTTP client to oauth2 via oauth2.HTTPClient when set.
func NewHTTPTransport(ctx context.Context, cfg *config.Config, deviceID string, logger *slog.Logger) (*HTTPTransport, error) {
	if cfg == nil {
		return nil, errors.New("export transport: config is required")
	}
	endpoint := strings.TrimSpace(cfg.Export.Endpoint)
	if endpoint == "" {
		return nil, errors.New("export transport: endpoint is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var client *http.Client
	switch {
	case strings.TrimSpace(cfg.Export.BearerToken) != "":
		source := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: strings.TrimSpace(cfg.Export.BearerToken),
			TokenType:   "Bearer",
		})
		client = oauth2.NewClient(ctx, source)
	case strings.TrimSpace(cfg.Export.TokenURL) != "":
		creds := &clientcredentials.Config{
			ClientID:     cfg.Export.ClientID,
			ClientSecret: cfg.Export.ClientSecret,
			TokenURL:     cfg.Export.TokenURL,
			Scopes:       cfg.Export.Scopes,
		}
		client = creds.Client(ctx)
	default:
		if base, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && base != nil {
			clone := *base
			client = &clone
		} else {
			client = &http.Client{}
		}
	}
	client.Timeout = timeout

	return &HTTPTransport{
		endpoint: endpoint,
		secret:   cfg.Export.HMACSecret,
		deviceID: deviceID,
		client:   client,
		logger:   logging.NewComponentLogger(logger, "export"),
	}, nil
}

// Deliver posts item.Packet. 2xx and 409 count as delivered, other 4xx
// responses are permanent, and 5xx or transport errors are transient.
func (t *HTTPTransport) Deliver(ctx context.Context, item *outbox.Item) Outcome {
	if item == nil {
		return Outcome{Permanent: true, Err: &DeliveryError{Kind: outbox.KindPermanent, Message: "no item"}}
	}
	body := []byte(item.Packet)
	version, device := packetHeader(body)
	if version == "" {
		version = Version
	}
	if device == "" {
		device = t.deviceID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Outcome{Permanent: true, Err: &DeliveryError{Kind: outbox.KindPermanent, Message: fmt.Sprintf("build request: %v", err), Err: err}}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderVersion, version)
	req.Header.Set(HeaderDevice, device)
	if t.secret != "" {
		req.Header.Set(HeaderSignature, Sign(t.secret, body))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("export delivery failed", logging.ExportID(item.ExportID), logging.Error(err))
		return Outcome{Err: &DeliveryError{Kind: outbox.KindTransient, Message: err.Error(), Err: err}}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300, code == http.StatusConflict:
		return Outcome{Delivered: true, StatusCode: code}
	case code >= 400 && code < 500:
		return Outcome{
			Permanent:  true,
			StatusCode: code,
			Err:        &DeliveryError{Kind: outbox.KindPermanent, StatusCode: code, Message: statusMessage(code)},
		}
	default:
		return Outcome{
			StatusCode: code,
			Err:        &DeliveryError{Kind: outbox.KindTransient, StatusCode: code, Message: statusMessage(code)},
		}
	}
}

func statusMessage(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}

func packetHeader(body []byte) (string, string) {
	var header struct {
		ExportVersion string `json:"exportVersion"`
		DeviceID      string `json:"deviceId"`
	}
	if err := json.Unmarshal(body, &header); err != nil {
		return "", ""
	}
	return header.ExportVersion, header.DeviceID
}
