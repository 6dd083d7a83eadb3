package httpclient

import (
	"context"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

type getFunc func(ctx context.Context, url string) (int, []byte, error)

// robotsCache holds one parsed robots.txt per scheme and host.
type robotsCache struct {
	mu        sync.Mutex
	userAgent string
	hosts     map[string]*robotstxt.RobotsData
}

func newRobotsCache(userAgent string) *robotsCache {
	return &robotsCache{
		userAgent: userAgent,
		hosts:     make(map[string]*robotstxt.RobotsData),
	}
}

// allowed reports whether rawURL may be fetched. An unreachable or broken
// robots.txt allows everything; only a context error is returned.
func (r *robotsCache) allowed(ctx context.Context, rawURL string, get getFunc) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true, nil
	}
	key := u.Scheme + "://" + u.Host

	r.mu.Lock()
	data, ok := r.hosts[key]
	r.mu.Unlock()

	if !ok {
		status, body, err := get(ctx, key+"/robots.txt")
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil || status >= 500 {
			// treat as missing
			status, body = 404, nil
		}
		data, err = robotstxt.FromStatusAndBytes(status, body)
		if err != nil {
			data, _ = robotstxt.FromStatusAndBytes(404, nil)
		}

		r.mu.Lock()
		r.hosts[key] = data
		r.mu.Unlock()
	}

	return data.TestAgent(u.RequestURI(), r.userAgent), nil
}
