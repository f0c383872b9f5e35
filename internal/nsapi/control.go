package nsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/samsite/internal/nation"
)

// ControlRequest is one request to a region's control page. A nil Form
// issues a GET; otherwise the form is POSTed.
type ControlRequest struct {
	Region    string
	Pin       string
	Userclick int64
	Form      url.Values
}

// RegionControl loads or submits the region control page. Site requests
// are not paced by the governor: they are gated by operator authorization.
func (c *Client) RegionControl(ctx context.Context, cr ControlRequest) (*Page, error) {
	u := fmt.Sprintf("%s/page=region_control/region=%s/template-overall=none/userclick=%d",
		c.siteBase, nation.Canonicalize(cr.Region), cr.Userclick)

	method := http.MethodGet
	var body io.Reader
	if cr.Form != nil {
		method = http.MethodPost
		body = strings.NewReader(cr.Form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.siteUA)
	req.Header.Set("Cookie", "pin="+cr.Pin)
	if cr.Form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nsapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, URL: u}
	}

	c.log.Debug().Str("method", method).Str("region", cr.Region).Int64("userclick", cr.Userclick).Msg("region control")
	return ParsePage(resp.Body)
}
