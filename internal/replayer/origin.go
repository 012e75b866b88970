// Package replayer implements the browser-context replayer (component D):
// re-issuing a stored request from inside the live page's JS context so
// the server cannot distinguish it from organic browser traffic.
package replayer

import (
	"fmt"
	"net/url"
)

// Origin parses the target URL's origin (scheme://host[:port]), the
// granularity the replayer uses to decide whether the controlled page
// needs to navigate before replay (spec.md §4.D step 1).
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing target url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("target url %q has no scheme/host", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}
