package clickup

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/domain/types"
	"github.com/secmon-lab/crewpulse/pkg/utils/safe"
)

const defaultBaseURL = "https://api.clickup.com/api/v2"

// client implements Service interface
type client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	teamID     types.TeamID
}

// Option customizes the client
type Option func(*client)

// WithBaseURL overrides the API base URL (used by tests)
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// New creates a new ClickUp service with the provided API token and team ID
func New(token string, teamID types.TeamID, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("ClickUp API token is required")
	}
	if teamID == "" {
		return nil, goerr.New("ClickUp team ID is required")
	}

	c := &client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		teamID:     teamID,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("path", path))
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "request failed", goerr.V("path", path))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return goerr.Wrap(&RateLimitError{RetryAfter: retryAfter(resp)}, "upstream rate limited",
			goerr.V("path", path))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return goerr.New("unexpected status from ClickUp",
			goerr.V("path", path),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode response", goerr.V("path", path))
	}

	return nil
}

// retryAfter reads the Retry-After header (seconds) from a 429 response.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Identity returns the user ID of the token's own principal
func (c *client) Identity(ctx context.Context) (types.UserID, error) {
	var resp identityResponse
	if err := c.get(ctx, "/user", nil, &resp); err != nil {
		return "", goerr.Wrap(err, "failed to fetch identity")
	}
	return extractIdentity(&resp)
}

// TeamMembers returns the members of the configured team
func (c *client) TeamMembers(ctx context.Context) ([]model.Member, error) {
	var resp teamResponse
	if err := c.get(ctx, "/team/"+c.teamID.String(), nil, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch team members", goerr.V("team", c.teamID))
	}

	members := extractMembers(&resp)
	if len(members) == 0 {
		return nil, goerr.New("team has no members in any known response shape", goerr.V("team", c.teamID))
	}
	return members, nil
}

// TimeEntries lists time entries for one assignee within [start, end]
func (c *client) TimeEntries(ctx context.Context, assignee types.UserID, start, end time.Time) ([]*TimeEntry, error) {
	query := url.Values{
		"assignee":   []string{assignee.String()},
		"start_date": []string{strconv.FormatInt(start.UnixMilli(), 10)},
		"end_date":   []string{strconv.FormatInt(end.UnixMilli(), 10)},
	}

	var resp entriesResponse
	if err := c.get(ctx, "/team/"+c.teamID.String()+"/time_entries", query, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch time entries", goerr.V("assignee", assignee))
	}
	return extractEntries(&resp), nil
}

// CurrentTimeEntry returns the running entry of the authenticated user
func (c *client) CurrentTimeEntry(ctx context.Context) (*TimeEntry, error) {
	var resp entryResponse
	if err := c.get(ctx, "/team/"+c.teamID.String()+"/time_entries/current", nil, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch current time entry")
	}
	return resp.Data, nil
}

// TimeEntry fetches full detail of a single entry
func (c *client) TimeEntry(ctx context.Context, id string) (*TimeEntry, error) {
	var resp entryResponse
	if err := c.get(ctx, "/team/"+c.teamID.String()+"/time_entries/"+id, nil, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch time entry", goerr.V("id", id))
	}
	if resp.Data == nil {
		return nil, goerr.New("time entry not found", goerr.V("id", id))
	}
	return resp.Data, nil
}
