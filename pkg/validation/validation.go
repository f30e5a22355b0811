package validation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	MinThreads = 1
	MaxThreads = 20
)

func ValidateThreadCount(threads int) error {
	if threads < MinThreads || threads > MaxThreads {
		return fmt.Errorf("thread count must be between %d and %d, got %d", MinThreads, MaxThreads, threads)
	}
	return nil
}

// ValidateTitleID checks that id is a positive decimal app ID.
func ValidateTitleID(id string) error {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return fmt.Errorf("title ID must be a positive integer, got %q", id)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateProfileURL accepts community profile URLs of the form
// https://steamcommunity.com/id/<name> or /profiles/<steamid>.
func ValidateProfileURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid profile URL %q: %w", raw, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("profile URL must use http or https, got %q", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || (parts[0] != "id" && parts[0] != "profiles") || parts[1] == "" {
		return fmt.Errorf("profile URL must look like https://steamcommunity.com/id/<name>, got %q", raw)
	}
	return nil
}
