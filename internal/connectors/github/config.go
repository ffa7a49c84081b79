package github

import "time"

// Config holds settings shared by the GitHub collectors.
type Config struct {
	// Token is the access token used for API authentication.
	Token string

	// MinDate is the creation-date floor. Records created before it
	// are skipped individually; paging continues past them.
	MinDate time.Time

	// MaxPulls caps how many closed pull requests the review collector
	// examines per repository. Zero means the default.
	MaxPulls int
}

// DefaultMaxPulls bounds the review scan; review comment fetches cost
// one request per pull.
const DefaultMaxPulls = 200

func (c Config) maxPulls() int {
	if c.MaxPulls > 0 {
		return c.MaxPulls
	}
	return DefaultMaxPulls
}
