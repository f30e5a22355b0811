package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/habedi/cardidle/db"
	"github.com/rs/zerolog/log"
)

var SteamLoginURL = CommunityURL + "/login/home/?goto=my"

// IsLoggedIn follows the /my/ redirect and reports whether it lands on a profile.
// A newly learned profile URL is saved with the session.
func (c *Client) IsLoggedIn(ctx context.Context) (bool, error) {
	sess, err := c.Store.Session()
	if err != nil || !sess.Valid() {
		return false, nil
	}
	hc, err := c.httpClient(sess)
	if err != nil {
		return false, err
	}
	final, _, err := c.visitMy(ctx, hc)
	if err != nil {
		return false, err
	}
	if !isProfilePath(final.Path) {
		log.Info().Str("url", final.String()).Msg("Session is not signed in")
		return false, nil
	}
	if sess.ProfileURL == "" {
		sess.ProfileURL = profileRoot(final.String())
		if err := c.Store.SaveSession(sess); err != nil {
			return true, fmt.Errorf("failed to save profile URL: %w", err)
		}
		log.Info().Str("profile", sess.ProfileURL).Msg("Learned profile URL")
	}
	return true, nil
}

// RefreshLoginToken visits the site so it can reissue the login cookies and
// saves whatever changed.
func (c *Client) RefreshLoginToken(ctx context.Context) error {
	sess, err := c.Store.Session()
	if err != nil {
		return err
	}
	hc, err := c.httpClient(sess)
	if err != nil {
		return err
	}
	_, cookies, err := c.visitMy(ctx, hc)
	if err != nil {
		return fmt.Errorf("failed to refresh login token: %w", err)
	}
	if !applyCookies(sess, cookies) {
		log.Debug().Msg("Login cookies unchanged")
		return nil
	}
	if err := c.Store.SaveSession(sess); err != nil {
		return fmt.Errorf("failed to save refreshed session: %w", err)
	}
	log.Info().Msg("Login token refreshed")
	return nil
}

// visitMy requests /my/ and returns the final URL and the cookies the jar holds afterwards.
func (c *Client) visitMy(ctx context.Context, hc *http.Client) (*url.URL, []*http.Cookie, error) {
	if err := c.wait(ctx); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/my/", nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if _, err := readResponseBody(resp); err != nil {
		return nil, nil, err
	}
	base, _ := url.Parse(c.baseURL())
	return resp.Request.URL, hc.Jar.Cookies(base), nil
}

func isProfilePath(path string) bool {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	return len(parts) >= 2 && (parts[0] == "id" || parts[0] == "profiles") && parts[1] != ""
}

// Login opens a browser on the sign-in page and waits until the user lands on
// their profile, then returns the captured session. A headless attempt reuses
// the browser profile in userDataDir and falls back to a window when it fails.
func Login(ctx context.Context, userDataDir string, headless bool) (*db.Session, error) {
	bctx, cancel, err := createChromeContext(ctx, userDataDir, headless)
	if err != nil {
		return nil, err
	}
	defer cancel()
	log.Info().Msg("Trying to login to Steam Community.")
	sess, err := performLogin(bctx, headless)
	if err != nil && headless {
		log.Warn().Err(err).Msg("Headless login failed, retrying with window mode.")
		fmt.Println("Headless login failed, retrying with window mode.")
		wctx, wcancel, werr := createChromeContext(ctx, userDataDir, false)
		if werr != nil {
			return nil, fmt.Errorf("failed to create Chrome context: %w", werr)
		}
		defer wcancel()
		sess, err = performLogin(wctx, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if !sess.Valid() {
		return nil, errors.New("login finished without session cookies")
	}
	log.Info().Str("profile", sess.ProfileURL).Msg("Login succeeded")
	return sess, nil
}

func createChromeContext(parent context.Context, userDataDir string, headless bool) (context.Context, context.CancelFunc, error) {
	var execPath string
	if p, err := exec.LookPath("google-chrome"); err == nil {
		execPath = p
	} else if p, err := exec.LookPath("chromium"); err == nil {
		execPath = p
	} else if p, err := exec.LookPath("chrome"); err == nil {
		execPath = p
	} else {
		return nil, nil, fmt.Errorf("no Chrome or Chromium executable found in PATH")
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", headless),
	)
	if userDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(userDataDir))
	}
	allocatorCtx, cancelAllocator := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelContext := chromedp.NewContext(allocatorCtx, chromedp.WithLogf(log.Info().Msgf))
	return ctx, func() {
		cancelContext()
		cancelAllocator()
	}, nil
}

func performLogin(ctx context.Context, headlessMode bool) (*db.Session, error) {
	timeout := 4 * time.Minute
	if headlessMode {
		timeout = 30 * time.Second
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var finalURL string
	var cookies []*network.Cookie
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(SteamLoginURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for {
				var currentURL string
				if err := chromedp.Location(&currentURL).Do(ctx); err != nil {
					return err
				}
				if u, err := url.Parse(currentURL); err == nil && isProfilePath(u.Path) {
					finalURL = currentURL
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(500 * time.Millisecond):
				}
			}
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().WithURLs([]string{CommunityURL}).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}

	httpCookies := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		httpCookies = append(httpCookies, &http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	sess := &db.Session{ProfileURL: profileRoot(finalURL)}
	applyCookies(sess, httpCookies)
	return sess, nil
}

// profileRoot trims a profile URL to https://host/id/<name>.
func profileRoot(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimRight(raw, "/")
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 {
		u.Path = "/" + parts[0] + "/" + parts[1]
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
