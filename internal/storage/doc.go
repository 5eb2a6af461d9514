// Package storage maps archive artifacts onto the filesystem.
//
// Every file the archiver produces goes through the FS interface so that
// tests can observe writes and inject failures without touching disk.
// Layout computes the location of each artifact from the output directory,
// and URLToPath mirrors a URL's path under a directory without letting
// ".." segments escape it.
package storage
