// Package http provides the RoundTripper chain shared by the catalog client and the downloader:
// debug-level request/response dumps and User-Agent injection.
package http
