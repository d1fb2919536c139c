// Package log provides logging with automatic masking of credentials,
// built on top of the standard slog package.
//
// The scraper carries session cookies and custom headers from the site
// config file, and those values end up as log attributes in debug mode.
// The RedactHandler masks them before they reach the underlying handler,
// so verbose logs can be shared without leaking credentials.
//
// Usage:
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//	logger.Debug("request sent",
//	    "cookie", "session=abc123", // masked
//	    "url", "https://masonstores.com/products/velvet-sofa",
//	)
package log
