// ABOUTME: Shape-based classification of the CLI's positional argument
// ABOUTME: One auditable place deciding data-file mode vs direct mode
package contextgen

import (
	"strings"
)

// ArgKind tags how a positional argument was classified
type ArgKind int

const (
	// ArgDataFile means the argument names a structured data file
	ArgDataFile ArgKind = iota
	// ArgDirectMode means the argument names a spec folder and session
	// data should be captured fresh
	ArgDirectMode
)

// ClassifiedArg is the tagged result of classifying one argument
type ClassifiedArg struct {
	Kind  ArgKind
	Value string
}

// dataFileExtensions mark arguments that are always data files, even
// when the rest of the name looks like a spec folder.
var dataFileExtensions = []string{".json"}

// ClassifyArg resolves the entry point's single-argument ambiguity: a
// string matching the spec folder naming pattern that does not end in a
// structured-data extension is direct mode; everything else is a data
// file path.
func ClassifyArg(arg string) ClassifiedArg {
	for _, ext := range dataFileExtensions {
		if strings.HasSuffix(arg, ext) {
			return ClassifiedArg{Kind: ArgDataFile, Value: arg}
		}
	}
	if ValidateFolderName(arg) == nil {
		return ClassifiedArg{Kind: ArgDirectMode, Value: arg}
	}
	return ClassifiedArg{Kind: ArgDataFile, Value: arg}
}
