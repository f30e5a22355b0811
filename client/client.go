package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/habedi/cardidle/db"
	"golang.org/x/time/rate"
)

const (
	CommunityURL      = "https://steamcommunity.com"
	DefaultMaxRetries = 18
	DefaultRetryDelay = 500 * time.Millisecond
	requestTimeout    = 30 * time.Second
)

// Cookie names used by the community site.
const (
	cookieSessionID     = "sessionid"
	cookieLoginSecure   = "steamLoginSecure"
	cookieParental      = "steamparental"
	cookieRememberLogin = "steamRememberLogin"
	cookieMachineAuth   = "steamMachineAuth"
)

// SessionStore hands out and persists the signed-in session.
type SessionStore interface {
	Session() (*db.Session, error)
	SaveSession(s *db.Session) error
}

// Client reads badge and gamecard pages of the signed-in profile.
type Client struct {
	Store      SessionStore
	BaseURL    string
	Transport  http.RoundTripper
	Limiter    *rate.Limiter
	Threads    int
	MaxRetries int
	RetryDelay time.Duration
}

// NewClient returns a client pacing requests at requestsPerSecond and reading
// badge pages on threads workers.
func NewClient(store SessionStore, requestsPerSecond float64, threads int) *Client {
	return &Client{
		Store:      store,
		BaseURL:    CommunityURL,
		Limiter:    newLimiter(requestsPerSecond),
		Threads:    threads,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// httpClient returns an http.Client whose jar carries the session cookies.
func (c *Client) httpClient(sess *db.Session) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	cookies := sessionCookies(sess)
	for _, raw := range c.cookieHosts(sess) {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid cookie URL %q: %w", raw, err)
		}
		jar.SetCookies(u, cookies)
	}
	return &http.Client{Jar: jar, Transport: c.Transport, Timeout: requestTimeout}, nil
}

func (c *Client) cookieHosts(sess *db.Session) []string {
	hosts := []string{c.baseURL()}
	if sess != nil && sess.ProfileURL != "" && !strings.HasPrefix(sess.ProfileURL, c.baseURL()) {
		hosts = append(hosts, sess.ProfileURL)
	}
	return hosts
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return CommunityURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func sessionCookies(sess *db.Session) []*http.Cookie {
	if sess == nil {
		return nil
	}
	var cookies []*http.Cookie
	add := func(name, value string) {
		if value != "" {
			cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
		}
	}
	add(cookieSessionID, sess.SessionID)
	add(cookieLoginSecure, sess.LoginSecure)
	add(cookieParental, sess.Parental)
	add(cookieRememberLogin, sess.RememberLogin)
	if sess.MachineAuthName != "" {
		add(sess.MachineAuthName, sess.MachineAuth)
	}
	return cookies
}

// applyCookies copies the session cookies found in cookies onto sess and
// reports whether anything changed.
func applyCookies(sess *db.Session, cookies []*http.Cookie) bool {
	changed := false
	set := func(dst *string, value string) {
		if value != "" && *dst != value {
			*dst = value
			changed = true
		}
	}
	for _, ck := range cookies {
		switch {
		case ck.Name == cookieSessionID:
			set(&sess.SessionID, ck.Value)
		case ck.Name == cookieLoginSecure:
			set(&sess.LoginSecure, ck.Value)
		case ck.Name == cookieParental:
			set(&sess.Parental, ck.Value)
		case ck.Name == cookieRememberLogin:
			set(&sess.RememberLogin, ck.Value)
		case strings.HasPrefix(ck.Name, cookieMachineAuth):
			set(&sess.MachineAuthName, ck.Name)
			set(&sess.MachineAuth, ck.Value)
		}
	}
	return changed
}

// profileURL returns the session's profile URL without a trailing slash.
func profileURL(sess *db.Session) (string, error) {
	if sess == nil || sess.ProfileURL == "" {
		return "", fmt.Errorf("profile URL is not known")
	}
	return strings.TrimRight(sess.ProfileURL, "/"), nil
}
