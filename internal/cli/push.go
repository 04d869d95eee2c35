package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/rebound/pkg/logger"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client posts roster tables to a running rebound service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// PushResult is the roster summary returned by the service.
type PushResult struct {
	Status string `json:"status"`
	Roster struct {
		BatchID  string    `json:"batch_id"`
		Source   string    `json:"source"`
		Rows     int       `json:"rows"`
		LoadedAt time.Time `json:"loaded_at"`
	} `json:"roster"`
}

// RemoteError is a non-2xx answer from the service.
type RemoteError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Errors  []struct {
		Line   int    `json:"line"`
		Column string `json:"column"`
		Reason string `json:"reason"`
	} `json:"errors"`
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "server returned %d %s: %s", e.Status, e.Code, e.Message)
	for _, pe := range e.Errors {
		fmt.Fprintf(&b, "\n  line %d, column %s: %s", pe.Line, pe.Column, pe.Reason)
	}
	return b.String()
}

// PushTable uploads a CSV table as the new roster.
func (c *Client) PushTable(ctx context.Context, src io.Reader) (PushResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/students", src)
	if err != nil {
		return PushResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/csv")
	return c.do(req)
}

// PushSample asks the service to regenerate its sample roster.
func (c *Client) PushSample(ctx context.Context, size int) (PushResult, error) {
	url := c.baseURL + "/students/sample"
	if size > 0 {
		url += fmt.Sprintf("?size=%d", size)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return PushResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (PushResult, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return PushResult{}, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		remote := &RemoteError{Status: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err := json.Unmarshal(body, remote); err != nil {
			remote.Message = strings.TrimSpace(string(body))
		}
		return PushResult{}, remote
	}

	var out PushResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return PushResult{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload a roster table to a running service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			baseURL, _ := cmd.Flags().GetString("url")
			in, _ := cmd.Flags().GetString("in")
			sample, _ := cmd.Flags().GetInt("sample")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			client := NewClient(baseURL, timeout)
			var (
				res PushResult
				err error
			)
			if sample > 0 {
				res, err = client.PushSample(cmd.Context(), sample)
			} else {
				src, closeIn, openErr := openInput(cmd, in)
				if openErr != nil {
					return openErr
				}
				defer closeIn()
				res, err = client.PushTable(cmd.Context(), src)
			}
			if err != nil {
				return err
			}

			logger.Get().Debug(cmd.Context(), "roster pushed",
				logger.String("url", baseURL),
				logger.String("batchId", res.Roster.BatchID),
			)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Roster %s loaded from %s: %d students\n",
				res.Roster.BatchID, res.Roster.Source, res.Roster.Rows)
			return err
		},
	}
	cmd.Flags().String("url", "http://localhost:9080", "Base URL of the service")
	cmd.Flags().String("in", "-", "Input CSV (default stdin)")
	cmd.Flags().Int("sample", 0, "Regenerate a server-side sample of this size instead of uploading")
	cmd.Flags().Duration("timeout", 30*time.Second, "HTTP request timeout")
	return cmd
}
