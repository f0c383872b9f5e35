// Package missile drives the authenticate -> prime -> engage protocol
// against the region control page and classifies each outcome.
package missile

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/ppiankov/samsite/internal/nation"
	"github.com/ppiankov/samsite/internal/nsapi"
)

var (
	// ErrNotAuthenticated is returned by Prime before Authenticate succeeds.
	ErrNotAuthenticated = errors.New("missile: session not authenticated")
	// ErrNotPrimed is returned by Engage before Prime succeeds.
	ErrNotPrimed = errors.New("missile: session not primed")
	// ErrNoActionToken is returned when a control page carries no chk value.
	ErrNoActionToken = errors.New("missile: no action token on control page")
)

// State is the protocol position of a Session.
type State int

const (
	Created State = iota
	Authenticated
	Primed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Authenticated:
		return "authenticated"
	case Primed:
		return "primed"
	default:
		return "invalid"
	}
}

// Locator finds the region a nation lives in.
type Locator interface {
	RegionOf(ctx context.Context, name string) (string, error)
}

// Authenticator exchanges credentials for a session pin.
type Authenticator interface {
	Login(ctx context.Context, name, password string) (string, error)
}

// Site serves the region control page.
type Site interface {
	RegionControl(ctx context.Context, req nsapi.ControlRequest) (*nsapi.Page, error)
}

// Session holds the continuation pin, the single-use action token and the
// region being acted on. It is owned by the control loop and is not safe
// for concurrent use.
type Session struct {
	site   Site
	log    zerolog.Logger
	state  State
	pin    string
	chk    string
	region string
}

// NewSession creates a session acting in region.
func NewSession(site Site, region string, log zerolog.Logger) *Session {
	return &Session{
		site:   site,
		log:    log,
		region: nation.Canonicalize(region),
	}
}

// Create looks up the region of the acting nation and returns a session
// for it.
func Create(ctx context.Context, loc Locator, site Site, actor string, log zerolog.Logger) (*Session, error) {
	region, err := loc.RegionOf(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", actor, err)
	}
	return NewSession(site, region, log), nil
}

// Region returns the region the session acts on.
func (s *Session) Region() string {
	return s.region
}

// State returns the protocol state.
func (s *Session) State() State {
	return s.state
}

// OverrideRegion makes the session act on a region other than the one the
// acting nation lives in.
func (s *Session) OverrideRegion(region string) {
	s.region = nation.Canonicalize(region)
}

// Authenticate logs in and stores the session pin. Failure is fatal to
// the run; the caller does not retry.
func (s *Session) Authenticate(ctx context.Context, auth Authenticator, name, password string) error {
	pin, err := auth.Login(ctx, name, password)
	if err != nil {
		return fmt.Errorf("failed to log in to %s: %w", name, err)
	}
	s.pin = pin
	s.state = Authenticated
	s.log.Info().Str("nation", nation.Canonicalize(name)).Msg("authenticated")
	return nil
}

// Prime loads the control page once to harvest the first action token.
// It must follow an authorization pulse; it does not block for one.
func (s *Session) Prime(ctx context.Context, userclick int64) error {
	mustAuthorize(userclick)
	if s.state == Created {
		return ErrNotAuthenticated
	}

	page, err := s.site.RegionControl(ctx, nsapi.ControlRequest{
		Region:    s.region,
		Pin:       s.pin,
		Userclick: userclick,
	})
	if err != nil {
		return fmt.Errorf("failed to arm: %w", err)
	}
	if !s.harvest(page) {
		return ErrNoActionToken
	}
	s.state = Primed
	return nil
}

// Engage submits a ban for target and re-harvests the action token from
// the response, whatever the outcome. An error means no response could be
// parsed; the token is then unchanged.
func (s *Session) Engage(ctx context.Context, target string, userclick int64) (Result, error) {
	mustAuthorize(userclick)
	if s.state != Primed {
		return Result{}, ErrNotPrimed
	}

	form := url.Values{}
	form.Set("ban", "1")
	form.Set("nation_name", nation.Canonicalize(target))
	form.Set("chk", s.chk)

	page, err := s.site.RegionControl(ctx, nsapi.ControlRequest{
		Region:    s.region,
		Pin:       s.pin,
		Userclick: userclick,
		Form:      form,
	})
	if err != nil {
		return Result{}, fmt.Errorf("engage %s: %w", target, err)
	}

	if !s.harvest(page) {
		s.log.Warn().Str("target", target).Msg("response carried no action token; keeping previous")
	}

	result := classify(page)
	s.log.Info().
		Str("target", target).
		Stringer("result", result).
		Str("detail", result.Detail).
		Msg("engagement")
	return result, nil
}

func (s *Session) harvest(page *nsapi.Page) bool {
	chk, ok := page.InputValue("chk")
	if !ok || chk == "" {
		return false
	}
	s.chk = chk
	return true
}

// classify reads the outcome off a control page. An info block means
// success; otherwise the first error block is matched against markers.
func classify(page *nsapi.Page) Result {
	if page.HasClass("info") {
		return Result{Success: true}
	}
	text, ok := page.ClassText("error")
	if !ok {
		return Result{Reason: Unknown}
	}
	return Result{Reason: classifyError(text), Detail: text}
}

// mustAuthorize panics on a zero pulse. A zero pulse means the operator
// authorization gate was bypassed, which is a bug in the caller.
func mustAuthorize(userclick int64) {
	if userclick == 0 {
		panic("missile: zero userclick; authorization gate bypassed")
	}
}
