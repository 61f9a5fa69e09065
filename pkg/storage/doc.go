// Package storage manages a download destination directory.
//
// A Manager answers whether a file of a given name already exists, writes new
// files through a temporary file that is renamed into place only after the
// copy succeeded, and removes files that were rejected after writing.
// Partial downloads therefore never appear under their final name.
//
//	store, err := storage.NewManager("wallpapers")
//	if err != nil {
//	    return err
//	}
//	if !store.Exists("abc123.png") {
//	    size, err := store.Save(resp.Body, "abc123.png")
//	    ...
//	}
package storage
