package nsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/samsite/internal/nation"
)

// Filter selects which members of a region are reported.
type Filter int

const (
	// AllMembers reports every resident nation.
	AllMembers Filter = iota
	// WAMembers reports only World Assembly members.
	WAMembers
)

func (f Filter) String() string {
	if f == WAMembers {
		return "wa"
	}
	return "all"
}

func (f Filter) shard() string {
	if f == WAMembers {
		return "wanations"
	}
	return "nations"
}

// Membership is one snapshot of a region: canonical member names in the
// order reported, and the region's last update counter.
type Membership struct {
	Members  []string
	Revision uint64
}

type regionResponse struct {
	Nations    string `xml:"NATIONS"`
	WANations  string `xml:"UNNATIONS"`
	LastUpdate uint64 `xml:"LASTUPDATE"`
	Delegate   string `xml:"DELEGATE"`
	Officers   []struct {
		Nation string `xml:"NATION"`
	} `xml:"OFFICERS>OFFICER"`
}

func (r regionResponse) members() []string {
	if r.WANations != "" {
		return nation.Split(r.WANations)
	}
	return nation.Split(r.Nations)
}

type nationResponse struct {
	Region string `xml:"REGION"`
}

// Membership fetches the current members and revision of a region.
func (c *Client) Membership(ctx context.Context, region string, filter Filter) (Membership, error) {
	q := url.Values{}
	q.Set("q", filter.shard()+" lastupdate")
	q.Set("region", nation.Canonicalize(region))

	resp, err := c.apiGet(ctx, q, nil)
	if err != nil {
		return Membership{}, err
	}

	var r regionResponse
	if err := decodeXML(resp, &r); err != nil {
		return Membership{}, fmt.Errorf("membership of %s: %w", region, err)
	}
	return Membership{Members: r.members(), Revision: r.LastUpdate}, nil
}

// Nations returns every resident of a region.
func (c *Client) Nations(ctx context.Context, region string) ([]string, error) {
	m, err := c.Membership(ctx, region, AllMembers)
	if err != nil {
		return nil, err
	}
	return m.Members, nil
}

// Officers returns the delegate and regional officers of a region.
func (c *Client) Officers(ctx context.Context, region string) ([]string, error) {
	q := url.Values{}
	q.Set("q", "officers delegate")
	q.Set("region", nation.Canonicalize(region))

	resp, err := c.apiGet(ctx, q, nil)
	if err != nil {
		return nil, err
	}

	var r regionResponse
	if err := decodeXML(resp, &r); err != nil {
		return nil, fmt.Errorf("officers of %s: %w", region, err)
	}

	var officers []string
	// The API reports "0" when the region has no delegate.
	if d := strings.TrimSpace(r.Delegate); d != "" && d != "0" {
		officers = append(officers, nation.Canonicalize(d))
	}
	for _, o := range r.Officers {
		if n := strings.TrimSpace(o.Nation); n != "" {
			officers = append(officers, nation.Canonicalize(n))
		}
	}
	return officers, nil
}

// RegionOf returns the canonical region a nation resides in.
func (c *Client) RegionOf(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("q", "region")
	q.Set("nation", nation.Canonicalize(name))

	resp, err := c.apiGet(ctx, q, nil)
	if err != nil {
		return "", err
	}

	var r nationResponse
	if err := decodeXML(resp, &r); err != nil {
		return "", fmt.Errorf("region of %s: %w", name, err)
	}
	if r.Region == "" {
		return "", fmt.Errorf("region of %s: empty response", name)
	}
	return nation.Canonicalize(r.Region), nil
}

// Login authenticates a nation over the API and returns the session pin.
// The pin is valid for site requests as well.
func (c *Client) Login(ctx context.Context, name, password string) (string, error) {
	q := url.Values{}
	q.Set("q", "ping")
	q.Set("nation", nation.Canonicalize(name))

	h := http.Header{}
	h.Set("X-Password", password)

	resp, err := c.apiGet(ctx, q, h)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound {
		return "", ErrBadCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, URL: resp.Request.URL.String()}
	}

	pin := strings.TrimSpace(resp.Header.Get("X-Pin"))
	if pin == "" {
		return "", ErrBadCredentials
	}
	return pin, nil
}
