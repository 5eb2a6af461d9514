// Package main provides the entry point for the sitearchive CLI.
//
// sitearchive renders every page of a website in headless Chrome and
// archives the screenshots as PNG files and paginated PDF documents.
//
// Usage:
//
//	sitearchive --url example.com
//	sitearchive split example.com/all_pages.pdf
//	sitearchive history example.com
//
// See --help for all available options.
package main

// main is the entry point for sitearchive.
func main() {
	Execute()
}
