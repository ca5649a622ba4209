package format

import (
	"golang.org/x/tools/imports"
)

// Go formats Go source and fixes its import block.
func Go(filename string, src []byte) ([]byte, error) {
	return imports.Process(filename, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: false,
	})
}
