package fastmail

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultSessionURL     = "https://api.fastmail.com/jmap/session"
	maskedEmailCapability = "https://www.fastmail.com/dev/maskedemail"
	jmapCoreCapability    = "urn:ietf:params:jmap:core"
	createdByApp          = "pykit"
	userAgent             = "pykit/0.1.0"
)

// MaskedEmail is the server's view of a minted address.
type MaskedEmail struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	ForDomain   string `json:"forDomain"`
	Description string `json:"description"`
	State       string `json:"state"`
	CreatedAt   string `json:"createdAt"`
}

// CreateRequest describes the masked email to mint. All fields are optional;
// Fastmail chooses a random prefix when EmailPrefix is empty.
type CreateRequest struct {
	ForDomain   string
	Description string
	EmailPrefix string
}

// Client talks to the Fastmail JMAP API.
type Client struct {
	sessionURL string
	token      string
	accountID  string
	httpClient *http.Client
	dryRun     bool
}

// Option customizes a Client.
type Option func(*Client)

// WithSessionURL overrides the session endpoint. Used by tests.
func WithSessionURL(u string) Option {
	return func(c *Client) { c.sessionURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDryRun makes CreateMaskedEmail synthesize a response without any
// network traffic.
func WithDryRun(enabled bool) Option {
	return func(c *Client) { c.dryRun = enabled }
}

// NewClient builds a Fastmail client. accountID may be empty; the primary
// masked-email account from the session document is used instead.
func NewClient(token, accountID string, opts ...Option) (*Client, error) {
	c := &Client{
		sessionURL: defaultSessionURL,
		token:      strings.TrimSpace(token),
		accountID:  strings.TrimSpace(accountID),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.token == "" && !c.dryRun {
		return nil, fmt.Errorf("fastmail API token is required")
	}
	return c, nil
}

type sessionDocument struct {
	APIURL          string            `json:"apiUrl"`
	PrimaryAccounts map[string]string `json:"primaryAccounts"`
}

type jmapRequest struct {
	Using       []string `json:"using"`
	MethodCalls []any    `json:"methodCalls"`
}

type jmapResponse struct {
	MethodResponses [][]json.RawMessage `json:"methodResponses"`
}

type maskedEmailSetResponse struct {
	Created    map[string]MaskedEmail     `json:"created"`
	NotCreated map[string]json.RawMessage `json:"notCreated"`
}

// CreateMaskedEmail mints a new masked email address in the enabled state.
func (c *Client) CreateMaskedEmail(ctx context.Context, req CreateRequest) (*MaskedEmail, error) {
	if c.dryRun {
		return c.mockMaskedEmail(req), nil
	}

	session, err := c.fetchSession(ctx)
	if err != nil {
		return nil, err
	}

	accountID := c.accountID
	if accountID == "" {
		accountID = session.PrimaryAccounts[maskedEmailCapability]
		if accountID == "" {
			return nil, fmt.Errorf("no primary account with masked email capability")
		}
	}

	payload := jmapRequest{
		Using: []string{jmapCoreCapability, maskedEmailCapability},
		MethodCalls: []any{
			[]any{
				"MaskedEmail/set",
				map[string]any{
					"accountId": accountID,
					"create": map[string]any{
						"new": map[string]any{
							"state":       "enabled",
							"forDomain":   req.ForDomain,
							"description": req.Description,
							"emailPrefix": req.EmailPrefix,
							"createdBy":   createdByApp,
						},
					},
				},
				"0",
			},
		},
	}

	apiURL := session.APIURL
	if apiURL == "" {
		return nil, fmt.Errorf("session document has no apiUrl")
	}

	var resp jmapResponse
	if err := c.post(ctx, apiURL, payload, &resp); err != nil {
		return nil, err
	}
	return parseSetResponse(resp)
}

func parseSetResponse(resp jmapResponse) (*MaskedEmail, error) {
	if len(resp.MethodResponses) == 0 || len(resp.MethodResponses[0]) < 2 {
		return nil, fmt.Errorf("empty JMAP method response")
	}
	var method string
	if err := json.Unmarshal(resp.MethodResponses[0][0], &method); err != nil {
		return nil, fmt.Errorf("decode JMAP method name: %w", err)
	}
	if method != "MaskedEmail/set" {
		return nil, fmt.Errorf("unexpected JMAP response method %q", method)
	}
	var set maskedEmailSetResponse
	if err := json.Unmarshal(resp.MethodResponses[0][1], &set); err != nil {
		return nil, fmt.Errorf("decode MaskedEmail/set response: %w", err)
	}
	created, ok := set.Created["new"]
	if !ok {
		if raw, present := set.NotCreated["new"]; present {
			return nil, fmt.Errorf("masked email rejected: %s", string(raw))
		}
		return nil, fmt.Errorf("masked email missing from response")
	}
	if created.Email == "" {
		return nil, fmt.Errorf("masked email response carries no address")
	}
	return &created, nil
}

func (c *Client) fetchSession(ctx context.Context) (*sessionDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch JMAP session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("JMAP session returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var session sessionDocument
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode JMAP session: %w", err)
	}
	return &session, nil
}

func (c *Client) post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode JMAP request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build JMAP request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call JMAP API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("JMAP API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode JMAP response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func (c *Client) mockMaskedEmail(req CreateRequest) *MaskedEmail {
	prefix := req.EmailPrefix
	if prefix == "" {
		buf := make([]byte, 4)
		_, _ = rand.Read(buf)
		prefix = "mock" + hex.EncodeToString(buf)
	}
	domain := req.ForDomain
	if domain == "" {
		domain = "fastmail.com"
	}
	return &MaskedEmail{
		ID:          "dry-run-email-id",
		Email:       prefix + "@" + domain,
		ForDomain:   req.ForDomain,
		Description: req.Description,
		State:       "enabled",
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}
