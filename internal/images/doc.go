// Package images downloads product photos into a per-product directory
// tree, one file per size variant.
//
// The site's CDN publishes each photo in several crops (original, 800x800,
// 400x400) under predictable names, so variants are derived offline and
// probed with HEAD requests before downloading. Files that already exist
// on disk are skipped without touching the network, which makes reruns
// idempotent.
//
// Downloads run under a bounded worker pool (errgroup with a limit) and a
// shared rate limiter paces requests across workers. A failed download is
// logged and counted, never fatal to the batch.
package images
