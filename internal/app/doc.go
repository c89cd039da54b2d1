// Package app wires the catalog client, the downloader and the tagging components
// into the download service, and implements the non-download commands.
package app
