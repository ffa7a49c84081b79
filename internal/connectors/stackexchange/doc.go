// Package stackexchange harvests questions with accepted answers from
// the Stack Exchange API. The question body becomes the problem and the
// accepted answer the solution, both converted from HTML to markdown-ish
// plain text. The API's quota and backoff fields drive throttling.
package stackexchange
