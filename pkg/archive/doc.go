// Package archive packs a directory of downloaded images into a zip file.
//
// An existing archive is extended rather than overwritten: its entries are
// copied into the new file without recompression, entries with the same name
// as an incoming file are replaced, and the result is moved into place only
// after it was completely written. Deflate is provided by klauspost/compress.
package archive
