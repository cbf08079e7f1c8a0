package scrape

import (
	"errors"
	"fmt"
)

// Site-defense conditions are terminal for a request: the transport layer
// never retries them, the caller decides what to do.
var (
	ErrCaptcha     = errors.New("portal requested a captcha, try again later")
	ErrBlocked     = errors.New("access to the portal is blocked (403), try again later")
	ErrRateLimited = errors.New("portal rate limit hit (429), try again later")
	ErrNoResults   = errors.New("result container not found in page")
)

// SiteError reports a non-200 response that is neither a block nor a rate
// limit.
type SiteError struct {
	StatusCode int
	URL        string
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("portal error: HTTP %d from %s", e.StatusCode, e.URL)
}

// IsSiteDefense reports whether err is one of the anti-scraping outcomes
// that should be surfaced to the user rather than retried.
func IsSiteDefense(err error) bool {
	return errors.Is(err, ErrCaptcha) || errors.Is(err, ErrBlocked) || errors.Is(err, ErrRateLimited)
}
