package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/slash-lang/slash/errors"
	"github.com/slash-lang/slash/parser"
)

const (
	ansiBoldStart = "\033[1m"
	ansiBoldEnd   = "\033[0m"
	ansiRedStart  = "\033[31m"
	ansiRedEnd    = "\033[0m"
)

// reportLexErrors prints every scan error with the offending line and a
// caret underline.
func reportLexErrors(w io.Writer, src string, errs []error) {
	for _, err := range errs {
		e, ok := err.(*errors.Error)
		if !ok {
			fmt.Fprintln(w, err)
			continue
		}
		reportOffending(w, src, e.Pos.Line-1, e.Pos.StartCol, e.Pos.EndCol, e.Description)
	}
}

// reportParseErrors prints every parse error with the offending line
// and a caret underline.
func reportParseErrors(w io.Writer, src string, errs []*parser.Error) {
	for _, err := range errs {
		failed := err.Failed
		reportOffending(w, src, failed.Line, failed.StartCol, failed.EndCol,
			"Error during parsing: "+err.Msg)
	}
}

func reportOffending(w io.Writer, src string, line, startCol, endCol int, msg string) {
	fmt.Fprintf(w, "%s[line %d]%s: %s\n", ansiBoldStart, line+1, ansiBoldEnd, msg)

	text, ok := offendingLine(src, line)
	if !ok {
		return
	}
	fmt.Fprintf(w, ">%s\n ", text)

	if startCol < 0 {
		startCol = 0
	}
	if endCol <= startCol {
		endCol = startCol + 1
	}
	fmt.Fprint(w, strings.Repeat(" ", startCol))
	fmt.Fprint(w, ansiRedStart)
	fmt.Fprint(w, strings.Repeat("^", endCol-startCol))
	fmt.Fprint(w, ansiRedEnd)
	fmt.Fprintln(w)
}

func offendingLine(src string, lineNo int) (string, bool) {
	lines := strings.Split(src, "\n")
	if lineNo < 0 || lineNo >= len(lines) {
		return "", false
	}
	return lines[lineNo], true
}
