package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const maxEventLine = 1 << 20

// Stream opens the server-sent event channel for one job and calls emit with
// the data of every event until ctx is cancelled or the server closes the
// connection. It never writes to the channel.
func (c *Client) Stream(ctx context.Context, jobID string, emit func(data []byte)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/events", url.Values{"fileId": {jobID}}, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isNetworkError(err) {
			return fmt.Errorf("GET /api/events: %w: %w", ErrUnavailable, err)
		}
		return fmt.Errorf("GET /api/events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(req, resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), maxEventLine)
	var data []string
	flush := func() {
		if len(data) == 0 {
			return
		}
		emit([]byte(strings.Join(data, "\n")))
		data = data[:0]
	}
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read event stream: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.New("event stream closed by server")
}
