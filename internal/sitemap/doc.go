// Package sitemap turns a sitemap document into an ordered, deduplicated
// list of product URLs.
//
// Two document shapes are supported, because the target site has served
// both over time:
//
//   - standard XML sitemaps (<urlset><url><loc>...</loc></url></urlset>)
//   - an HTML rendering of the sitemap where each URL sits in a
//     <td class="url"> table cell
//
// Design decision: the XML path uses encoding/xml and the HTML fallback
// uses golang.org/x/net/html rather than regular expressions, because both
// parsers tolerate the malformed markup real sites produce while a regex
// silently mismatches on it.
package sitemap
