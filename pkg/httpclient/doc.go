// Package httpclient is the only way the scraper talks to the network.
//
// A Client sends GET requests with a fixed User-Agent, waits on a politeness
// limiter before every request, retries transient failures with the same
// delay and honours robots.txt. Failures are returned as *errors.Error so the
// caller can tell a missing page from a flaky network.
package httpclient
