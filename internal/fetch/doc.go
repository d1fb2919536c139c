// Package fetch performs the rate-limited, retried HTTP retrieval that both
// the detail scraping loop and the image downloader build on.
//
// Politeness is the whole point of this package:
//   - a randomized delay between distinct page requests
//   - exponential backoff between retries of the same request
//   - a rotating browser User-Agent pool with full browser-like headers
//   - an optional robots.txt check before a run starts
//
// Design decision: the HTTP layer is go-resty/resty rather than a bare
// net/http client because resty carries the retry count, backoff bounds and
// header plumbing we need as configuration instead of hand-rolled loops.
package fetch
