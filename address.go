package webcrawl

import "net/url"

// ParseAddress parses rawURL as an absolute URL with a host.
// The returned string is the parser's serialization and is the identity
// used for deduplication; no further canonicalization is applied.
func ParseAddress(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, Errorf(EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, Errorf(EINVALID, "URL %q must be absolute with a host", rawURL)
	}
	return u, nil
}

// Host returns the host name of rawURL without any port, or "" if it
// cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
