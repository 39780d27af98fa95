package validation

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxStepDescription is the longest step description accepted, in characters.
const MaxStepDescription = 2000

// MaxNameLength bounds submitter, brand and model names.
const MaxNameLength = 255

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the URL identifier for a display name: lower-cased, every
// run of characters outside [a-z0-9] replaced by a single hyphen, leading and
// trailing hyphens trimmed. Slugify(Slugify(s)) == Slugify(s).
func Slugify(name string) string {
	s := nonSlugRun.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// This prevents javascript:, data:, vbscript:, and other dangerous URL schemes
// from ending up in image or logo links.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// ValidateEmail checks that s is a bare e-mail address.
func ValidateEmail(s string) bool {
	if s == "" || len(s) > MaxNameLength {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// ValidateName checks a required display name after trimming.
func ValidateName(s string) (bool, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, "name is required"
	}
	if utf8.RuneCountInString(s) > MaxNameLength {
		return false, "name is too long"
	}
	return true, ""
}

// ValidateStepDescription checks a guide step body.
func ValidateStepDescription(s string) (bool, string) {
	if strings.TrimSpace(s) == "" {
		return false, "step description is required"
	}
	if utf8.RuneCountInString(s) > MaxStepDescription {
		return false, "step description is too long"
	}
	return true, ""
}
