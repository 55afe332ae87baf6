package stream

import "strings"

// OriginChecker allows websocket upgrades from a fixed set of origins.
// An empty list or "*" allows every origin.
type OriginChecker struct {
	allowed  map[string]struct{}
	allowAll bool
}

func NewOriginChecker(origins []string) *OriginChecker {
	c := &OriginChecker{allowed: make(map[string]struct{})}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			c.allowAll = true
			continue
		}
		if o != "" {
			c.allowed[o] = struct{}{}
		}
	}
	if len(c.allowed) == 0 {
		c.allowAll = true
	}
	return c
}

func (c *OriginChecker) Check(origin string) bool {
	// non-browser clients such as the CLI send no Origin
	if origin == "" || c.allowAll {
		return true
	}
	_, ok := c.allowed[origin]
	return ok
}
