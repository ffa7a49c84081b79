// Package discussions harvests answered GitHub Discussions through the
// GraphQL API. The discussion body becomes the problem and the marked
// answer (or the best comment standing in for one) becomes the
// solution. Pagination uses GraphQL cursors; rate limiting reuses the
// shared GitHub limiter since GraphQL reports the same headers.
package discussions
