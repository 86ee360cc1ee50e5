// Package crawler fetches the HTML pages of a site so they can be audited
// like a folder of local documents.
//
// # Architecture
//
// The Spider walks a site breadth first from a start URL. It stays on the
// start host and below the start path, honors depth and page limits, and
// waits between requests. Links are extracted with golang.org/x/net/html by
// the Parser.
//
// # Usage
//
//	spider := crawler.NewSpider(nil, crawler.WithMaxDepth(2))
//	pages, err := spider.Crawl(ctx, "https://www.example.com/docs/")
//
// A Spider also serves as a batch source:
//
//	result, err := batch.RunBatch(ctx, spider.Provider("https://www.example.com/"))
//
// # Politeness
//
//   - One request at a time, with a configurable delay between requests
//   - Pages with <meta name="robots" content="nofollow"> are not expanded
//   - Response bodies are read up to a size limit
package crawler
