package streamtest

import (
	"net"
	"net/url"
	"strings"
)

// Variants derives alternate URLs for recognized provider URL shapes: scheme
// swap, explicit default port swap or drop, /listen and /stream suffix swap,
// the shoutcast "/;" root form, and playlist extension strip. Each variant
// applies a single mutation to the original; the original itself is never
// returned. Unparseable or non-HTTP inputs yield nothing.
func Variants(raw string) []string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return nil
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil
	}

	seen := map[string]struct{}{parsed.String(): {}}
	var out []string
	add := func(candidate url.URL) {
		text := candidate.String()
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}

	// Scheme swap carries an explicit default port with it.
	swapped := *parsed
	if parsed.Scheme == "http" {
		swapped.Scheme = "https"
		if parsed.Port() == "80" {
			swapped.Host = hostWithPort(parsed, "443")
		}
	} else {
		swapped.Scheme = "http"
		if parsed.Port() == "443" {
			swapped.Host = hostWithPort(parsed, "80")
		}
	}
	add(swapped)

	if (parsed.Scheme == "http" && parsed.Port() == "80") ||
		(parsed.Scheme == "https" && parsed.Port() == "443") {
		bare := *parsed
		bare.Host = parsed.Hostname()
		add(bare)
	}

	path := parsed.EscapedPath()
	switch {
	case strings.HasSuffix(path, "/listen"):
		add(withPath(parsed, strings.TrimSuffix(path, "/listen")+"/stream"))
	case strings.HasSuffix(path, "/stream"):
		add(withPath(parsed, strings.TrimSuffix(path, "/stream")+"/listen"))
	}

	// Shoutcast servers serve browsers a status page at the root and expose
	// the stream itself at "/;".
	switch path {
	case "", "/":
		add(withPath(parsed, "/;"))
	case "/;":
		add(withPath(parsed, "/"))
	}

	// Playlist URLs usually sit next to the stream they reference.
	lowered := strings.ToLower(path)
	for _, ext := range []string{".m3u", ".pls"} {
		if strings.HasSuffix(lowered, ext) {
			add(withPath(parsed, path[:len(path)-len(ext)]))
			break
		}
	}

	return out
}

func withPath(u *url.URL, path string) url.URL {
	alt := *u
	alt.Path = path
	alt.RawPath = ""
	return alt
}

func hostWithPort(u *url.URL, port string) string {
	if port == "" {
		return u.Hostname()
	}
	return net.JoinHostPort(u.Hostname(), port)
}
