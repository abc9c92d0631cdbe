package media

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// DefaultHosts are the video hosts accepted when no explicit allowlist is set.
var DefaultHosts = []string{
	"youtube.com",
	"www.youtube.com",
	"m.youtube.com",
	"music.youtube.com",
	"youtu.be",
}

// Locator is a validated reference to a remote video. Construct via ParseLocator.
type Locator struct {
	raw     string
	videoID string
}

// ParseLocator validates a raw video link: it must be a well-formed absolute
// http(s) URI whose host is on the allowlist. An empty allowlist means
// DefaultHosts. Validation performs no network I/O.
func ParseLocator(raw string, allowedHosts ...string) (Locator, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Locator{}, fmt.Errorf("empty video link")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("malformed video link: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Locator{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return Locator{}, fmt.Errorf("video link missing host")
	}

	hosts := allowedHosts
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	host := strings.ToLower(u.Hostname())
	ok := false
	for _, h := range hosts {
		if host == h {
			ok = true
			break
		}
	}
	if !ok {
		return Locator{}, fmt.Errorf("unsupported video host %q", host)
	}

	return Locator{raw: raw, videoID: extractVideoID(u)}, nil
}

// String returns the original link.
func (l Locator) String() string { return l.raw }

// VideoID returns the video's identifier within the host, or a best-effort
// fallback derived from the path. Used to namespace downloaded artifacts.
func (l Locator) VideoID() string { return l.videoID }

func extractVideoID(u *url.URL) string {
	q := u.Query()
	if v := q.Get("v"); v != "" {
		return v
	}
	if v := q.Get("id"); v != "" {
		return v
	}
	// youtu.be/<id> and similar path-addressed hosts
	if p := strings.Trim(path.Clean(u.Path), "/"); p != "" && p != "." {
		return path.Base(p)
	}
	return "video"
}
