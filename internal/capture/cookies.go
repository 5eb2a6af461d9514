package capture

import (
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

// cookieParams converts cookies read from the browser into parameters that
// can be set again before a navigation. Session cookies keep no expiry.
func cookieParams(cookies []*network.Cookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
			Priority: c.Priority,
		}
		if !c.Session && c.Expires > 0 {
			sec := int64(c.Expires)
			nsec := int64((c.Expires - float64(sec)) * float64(time.Second))
			exp := cdp.TimeSinceEpoch(time.Unix(sec, nsec))
			p.Expires = &exp
		}
		params = append(params, p)
	}
	return params
}
