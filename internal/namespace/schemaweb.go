package namespace

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultEndpoint is the SchemaWeb REST service base URL
const DefaultEndpoint = "http://www.schemaweb.info/webservices/rest/"

const locationOperation = "GetSchemaLocation.aspx"

// maxResponseBytes bounds the body read from the registry
const maxResponseBytes = 1 << 20

// SchemaWeb resolves identifiers through the SchemaWeb REST service
type SchemaWeb struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// SchemaWebOption configures a SchemaWeb resolver
type SchemaWebOption func(*SchemaWeb)

// WithHTTPClient sets the HTTP client used for lookups
func WithHTTPClient(client *http.Client) SchemaWebOption {
	return func(s *SchemaWeb) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(timeout time.Duration) SchemaWebOption {
	return func(s *SchemaWeb) {
		if timeout > 0 {
			s.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger sets the logger used to report fallbacks
func WithLogger(logger *zap.Logger) SchemaWebOption {
	return func(s *SchemaWeb) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSchemaWeb creates a resolver for the given endpoint; an empty endpoint uses DefaultEndpoint
func NewSchemaWeb(endpoint string, opts ...SchemaWebOption) *SchemaWeb {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	s := &SchemaWeb{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// registryResponse is either <location>...</location> or <error>...</error>
type registryResponse struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

// Lookup asks the registry for the location of publicID
func (s *SchemaWeb) Lookup(ctx context.Context, publicID string) (string, error) {
	target := s.endpoint + locationOperation + "?namespace=" + url.QueryEscape(publicID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read registry response: %w", err)
	}

	var parsed registryResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("invalid registry response: %w", err)
	}

	text := strings.TrimSpace(parsed.Text)
	switch parsed.XMLName.Local {
	case "location":
		if text == "" {
			return "", fmt.Errorf("%w: %s: empty location", ErrNotFound, publicID)
		}
		return text, nil
	case "error":
		return "", fmt.Errorf("%w: %s: %s", ErrNotFound, publicID, text)
	default:
		return "", fmt.Errorf("unexpected registry response element <%s>", parsed.XMLName.Local)
	}
}

// Resolve returns the registered location, or publicID when the lookup fails
func (s *SchemaWeb) Resolve(ctx context.Context, publicID string) string {
	location, err := s.Lookup(ctx, publicID)
	if err != nil {
		s.logger.Debug("namespace resolution fell back to identifier",
			zap.String("namespace", publicID),
			zap.Error(err))
		return publicID
	}
	return location
}
