package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/habedi/cardidle/badge"
	"github.com/habedi/cardidle/pkg/pool"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

var (
	appIDRegexp = regexp.MustCompile(`/gamecards/(\d+)`)
	hoursRegexp = regexp.MustCompile(`([\d,]+(?:\.\d+)?)\s*hrs?`)
	dropsRegexp = regexp.MustCompile(`(\d+)`)
)

// LoadTitles reads every badge page of the signed-in profile. The first page is
// read alone to learn the page count; the rest are read concurrently.
func (c *Client) LoadTitles(ctx context.Context) ([]badge.Entry, error) {
	sess, err := c.Store.Session()
	if err != nil {
		return nil, err
	}
	profile, err := profileURL(sess)
	if err != nil {
		return nil, err
	}
	hc, err := c.httpClient(sess)
	if err != nil {
		return nil, err
	}

	body, err := c.getPage(ctx, hc, badgePageURL(profile, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load badge page 1: %w", err)
	}
	first, pages, err := parseBadgePage(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse badge page 1: %w", err)
	}
	log.Debug().Int("pages", pages).Int("titles", len(first)).Msg("Read first badge page")

	all := [][]badge.Entry{first}
	if pages > 1 {
		rest := make([]int, 0, pages-1)
		for p := 2; p <= pages; p++ {
			rest = append(rest, p)
		}
		results, errs := pool.Map(ctx, rest, c.Threads, func(ctx context.Context, page int) ([]badge.Entry, error) {
			body, err := c.getPage(ctx, hc, badgePageURL(profile, page))
			if err != nil {
				return nil, fmt.Errorf("failed to load badge page %d: %w", page, err)
			}
			entries, _, err := parseBadgePage(body)
			if err != nil {
				return nil, fmt.Errorf("failed to parse badge page %d: %w", page, err)
			}
			return entries, nil
		})
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		all = append(all, results...)
	}

	seen := make(map[string]bool)
	var entries []badge.Entry
	for _, page := range all {
		for _, e := range page {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			entries = append(entries, e)
		}
	}
	log.Info().Int("titles", len(entries)).Msg("Badge pages loaded")
	return entries, nil
}

// CheckDrops reads the gamecard page of one title.
func (c *Client) CheckDrops(ctx context.Context, id string) (badge.DropCount, error) {
	sess, err := c.Store.Session()
	if err != nil {
		return badge.DropCount{}, err
	}
	profile, err := profileURL(sess)
	if err != nil {
		return badge.DropCount{}, err
	}
	hc, err := c.httpClient(sess)
	if err != nil {
		return badge.DropCount{}, err
	}
	body, err := c.getPage(ctx, hc, profile+"/gamecards/"+id+"/")
	if err != nil {
		return badge.DropCount{}, fmt.Errorf("failed to load gamecards of %s: %w", id, err)
	}
	return parseDrops(body)
}

func badgePageURL(profile string, page int) string {
	return fmt.Sprintf("%s/badges/?p=%d", profile, page)
}

// parseBadgePage returns the titles listed on one badge page and the total page count.
// Foil badges are skipped.
func parseBadgePage(body []byte) ([]badge.Entry, int, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	var entries []badge.Entry
	for _, row := range findAll(doc, withClass("badge_row")) {
		link := findFirst(row, withClass("badge_row_overlay"))
		if link == nil {
			continue
		}
		href := attr(link, "href")
		m := appIDRegexp.FindStringSubmatch(href)
		if m == nil || strings.Contains(href, "border=1") {
			continue
		}
		e := badge.Entry{ID: m[1], Remaining: badge.Known(0)}
		if n := findFirst(row, withClass("badge_title")); n != nil {
			e.Name = cleanText(ownText(n))
		}
		if e.Name == "" {
			e.Name = e.ID
		}
		if n := findFirst(row, withClass("badge_title_stats_playtime")); n != nil {
			e.HoursPlayed = parseHours(textContent(n))
		}
		if n := findFirst(row, withClass("progress_info_bold")); n != nil {
			e.Remaining = parseDropText(textContent(n))
		}
		entries = append(entries, e)
	}

	pages := 1
	for _, n := range findAll(doc, withClass("pagelink")) {
		if p, err := strconv.Atoi(strings.TrimSpace(textContent(n))); err == nil && p > pages {
			pages = p
		}
	}
	return entries, pages, nil
}

// parseDrops reads the remaining drop count from a gamecard page.
// A page without drop information means no drops are left.
func parseDrops(body []byte) (badge.DropCount, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return badge.DropCount{}, err
	}
	n := findFirst(doc, withClass("progress_info_bold"))
	if n == nil {
		return badge.Known(0), nil
	}
	return parseDropText(textContent(n)), nil
}

// parseDropText handles "3 card drops remaining" and "No card drops remaining".
func parseDropText(s string) badge.DropCount {
	m := dropsRegexp.FindStringSubmatch(s)
	if m == nil {
		return badge.Known(0)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return badge.Known(0)
	}
	return badge.Known(n)
}

func parseHours(s string) float64 {
	m := hoursRegexp.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	h, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return h
}

// --- HTML helpers ---

func withClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// ownText returns the text of n's direct text children.
func ownText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// cleanText collapses runs of whitespace, including non-breaking spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
