// Package github harvests troubleshooting material from the GitHub
// REST API: closed issues with their resolution comments, and review
// threads on merged pull requests. All requests go through a shared
// rate limiter that honours both a proactive throttle and the
// X-RateLimit response headers.
package github
