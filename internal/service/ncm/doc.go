// Package ncm provides the download-and-tag pipeline for catalog songs and program episodes.
// Each track runs through its own assembler: resolve a stream, download audio,
// fetch and shrink the cover, fetch the lyric, embed everything as tags, clean up.
package ncm
