// Copyright 2024 Slash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lexer implements the scanner for slash source code.
//
// The lexer is a finite state machine where the lex* family of functions
// are the states and their return values are the transitions. Scanning a
// shell command switches the machine into a dedicated argument-list
// sub-machine, so `grep -rs --color=auto pattern` is scanned as text
// arguments instead of expression operators.
package lexer

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/slash-lang/slash/errors"
	"github.com/slash-lang/slash/token"
)

const eof = byte(0)

// Result is the outcome of scanning a source buffer.
type Result struct {
	// Tokens scanned, always terminated by an EOF token.
	Tokens []token.Token

	// Errors found while scanning. Scanning continues after an error so
	// a single run can harvest multiple errors.
	Errors *errors.List

	// LineCount is the number of lines scanned.
	LineCount int
}

// HadError tells if scanning found any error.
func (r Result) HadError() bool {
	return r.Errors.AsError() != nil
}

type lexer struct {
	input string

	start     int // start offset of the token being scanned
	pos       int // current offset
	lineCount int
	posInLine int

	tokens []token.Token
	errs   *errors.List
}

// stateFn is a lexer state. It returns the next state, or nil to stop.
type stateFn func(l *lexer) stateFn

// Lex scans the given source into a token stream.
func Lex(input string) Result {
	l := &lexer{
		input: input,
		errs:  errors.L(),
	}

	for state := stateFn(lexAny); state != nil; {
		state = state(l)
	}

	log.Trace().
		Str("action", "Lex()").
		Int("tokens", len(l.tokens)).
		Int("lines", l.lineCount+1).
		Msg("scanned source")

	return Result{
		Tokens:    l.tokens,
		Errors:    l.errs,
		LineCount: l.lineCount,
	}
}

func (l *lexer) next() byte {
	c := eof
	if l.pos < len(l.input) {
		c = l.input[l.pos]
	}
	l.pos++
	l.posInLine++
	return c
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.input) {
		return eof
	}
	return l.input[l.pos]
}

func (l *lexer) peekAhead(step int) byte {
	idx := l.pos + step
	if idx < 0 || idx >= len(l.input) {
		return eof
	}
	return l.input[idx]
}

func (l *lexer) backup() {
	if l.pos == 0 {
		panic("lexer: backup at position 0")
	}
	// Fine because we never increment lineCount and then backup.
	l.posInLine--
	l.pos--
}

func (l *lexer) ignore() {
	l.start = l.pos
}

func (l *lexer) match(expected byte) bool {
	if l.peek() == expected {
		l.next()
		return true
	}
	return false
}

func (l *lexer) matchAny(expected string) bool {
	for i := 0; i < len(expected); i++ {
		if l.match(expected[i]) {
			return true
		}
	}
	return false
}

func (l *lexer) accept(acceptList string) bool {
	c := l.next()
	if c != eof && strings.IndexByte(acceptList, c) >= 0 {
		return true
	}
	l.backup()
	return false
}

func (l *lexer) acceptRun(acceptList string) {
	for l.accept(acceptList) {
	}
}

func (l *lexer) emit(t token.Type) {
	length := l.pos - l.start
	hi := l.pos
	if hi > len(l.input) {
		hi = len(l.input)
	}
	lo := l.start
	if lo > hi {
		lo = hi
	}
	l.tokens = append(l.tokens, token.Token{
		Type:   t,
		Lexeme: l.input[lo:hi],
		Line:   l.lineCount,
		// A single token can not span multiple lines, so this is fine.
		StartCol: l.posInLine - length,
		EndCol:   l.posInLine,
	})
	l.start = l.pos
}

func (l *lexer) prevTokenType() token.Type {
	if len(l.tokens) == 0 {
		return token.Error
	}
	return l.tokens[len(l.tokens)-1].Type
}

// shellArgEmit backs up, emits any pending text argument and advances
// past the byte that terminated it.
func (l *lexer) shellArgEmit() {
	l.backup()
	if l.start != l.pos {
		l.emit(token.TextLit)
	}
	l.next()
}

func (l *lexer) errorf(format string, args ...interface{}) {
	length := l.pos - l.start
	pos := errors.Pos{
		Line:     l.lineCount + 1,
		StartCol: l.posInLine - length,
		EndCol:   l.posInLine,
	}
	l.errs.Append(errors.E(append([]interface{}{errors.ErrLex, pos, format}, args...)...))
}

func isNumeric(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isValidIdentifier(c byte) bool {
	return isNumeric(c) || isAlpha(c) || c == '_' || c == '-'
}

func lexAny(l *lexer) stateFn {
	for {
		c := l.next()
		switch c {
		case ' ', '\t', '\v':
			l.ignore()

		case ';':
			l.emit(token.Newline)

		case '\n':
			l.emit(token.Newline)
			l.lineCount++
			l.posInLine = 0

		case '(':
			l.emit(token.LParen)
		case ')':
			return lexRParen
		case '[':
			l.emit(token.LBracket)
		case ']':
			l.emit(token.RBracket)
		case '{':
			l.emit(token.LBrace)
		case '}':
			l.emit(token.RBrace)
		case ',':
			l.emit(token.Comma)
		case ':':
			l.emit(token.Colon)
		case '\\':
			l.emit(token.Backslash)

		case '=':
			l.emitMatched('=', token.EqualEqual, token.Equal)
		case '&':
			l.emitMatched('&', token.AnpAnp, token.Anp)
		case '|':
			l.emitMatched('|', token.PipePipe, token.Pipe)
		case '!':
			l.emitMatched('=', token.BangEqual, token.Bang)
		case '>':
			if l.match('=') {
				l.emit(token.GreaterEqual)
			} else {
				l.emitMatched('>', token.GreaterGreater, token.Greater)
			}
		case '<':
			l.emitMatched('=', token.LessEqual, token.Less)
		case '.':
			if l.peek() == '/' {
				l.emit(token.Dot)
				return lexShellArgList
			}
			l.emitMatched('.', token.DotDot, token.Dot)
		case '@':
			l.emitMatched('[', token.AtLBracket, token.At)
		case '+':
			l.emitMatched('=', token.PlusEqual, token.Plus)
		case '-':
			l.emitMatched('=', token.MinusEqual, token.Minus)
		case '%':
			l.emitMatched('=', token.PercentEqual, token.Percent)
		case '/':
			if l.match('=') {
				l.emit(token.SlashEqual)
			} else if l.match('/') {
				l.emitMatched('=', token.SlashSlashEqual, token.SlashSlash)
			} else {
				l.emit(token.Slash)
			}
		case '*':
			if l.match('=') {
				l.emit(token.StarEqual)
			} else if l.match('*') {
				l.emitMatched('=', token.StarStarEqual, token.StarStar)
			} else {
				l.emit(token.Star)
			}

		case '$':
			return lexAccess

		case '"', '\'':
			return lexString

		case '#':
			return lexComment

		case eof:
			return lexEnd

		default:
			if isNumeric(c) {
				l.backup()
				return lexNumber
			}
			if isValidIdentifier(c) {
				l.backup()
				return lexIdentifier
			}
			l.errorf("Unrecognized character")
			l.ignore()
		}
	}
}

func (l *lexer) emitMatched(expected byte, matched, single token.Type) {
	if l.match(expected) {
		l.emit(matched)
	} else {
		l.emit(single)
	}
}

func lexEnd(l *lexer) stateFn {
	l.emit(token.EOF)
	return nil
}

// lexShellArgList scans the argument list of a shell command.
//
// We are quite strict in that we require command identifiers to be
// alphanumeric plus '-' and '_'. The arguments however need a lot more
// flexibility:
//
//	whitespace             -> emit pending text, skip and continue
//	$                      -> emit pending text, scan access
//	", '                   -> emit pending text, scan string
//	(                      -> emit pending text, scan subshell until ')'
//	)                      -> emit pending text, stop via rparen
//	\n } ; | > < & eof     -> emit pending text, back up and stop
func lexShellArgList(l *lexer) stateFn {
	for {
		c := l.next()
		switch c {
		case ' ', '\t', '\v':
			l.shellArgEmit()
			l.acceptRun(" \t\v")
			l.ignore()

		case '$':
			l.shellArgEmit()
			lexAccess(l)
		case '"', '\'':
			l.shellArgEmit()
			lexString(l)

		case '(':
			l.shellArgEmit()
			l.lexSubshell()
		case ')':
			l.shellArgEmit()
			return lexRParen

		case '\n', '}', ';', '|', '>', '<', '&', eof:
			l.shellArgEmit()
			l.backup()
			return lexAny
		}
	}
}

// lexSubshell scans '(' and then runs the main machine until the
// matching rparen state has emitted its token.
func (l *lexer) lexSubshell() {
	l.emit(token.LParen)
	for state := stateFn(lexAny); l.prevTokenType() != token.RParen; {
		if state == nil {
			l.errorf("Expected ')' before end of input")
			return
		}
		state = state(l)
	}
}

func lexNumber(l *lexer) stateFn {
	digits := "_0123456789"

	// hex and binary
	if l.accept("0") {
		changedBase := false
		if l.accept("xX") {
			digits = "_0123456789abcdefABCDEF"
			changedBase = true
		} else if l.accept("bB") {
			digits = "_01"
			changedBase = true
		}
		// edge case: no valid digits
		if changedBase && !l.matchAny(digits[1:]) {
			l.errorf("Number must contain at least one valid digit")
			return lexAny
		}
	}

	l.acceptRun(digits)
	// two consecutive dots form a range token, not a fraction
	if l.peekAhead(1) != '.' {
		if l.accept(".") {
			l.acceptRun(digits)
		}
	}

	l.emit(token.Number)
	return lexAny
}

func lexIdentifier(l *lexer) stateFn {
	for isValidIdentifier(l.next()) {
	}
	l.backup()

	switch l.prevTokenType() {
	case token.Greater, token.GreaterGreater, token.Less:
		// a redirect target is a single shell argument, so `> out.txt`
		// and `< in.txt` each scan as one text literal; a keyword that
		// stands alone stays a keyword
		_, isKeyword := token.Keyword(l.input[l.start:l.pos])
		if c := l.peek(); !isKeyword || (c != eof && strings.IndexByte(" \t\v\n;})|&<>", c) < 0) {
			return lexShellArgList
		}
	}

	if kw, ok := token.Keyword(l.input[l.start:l.pos]); ok {
		l.emit(kw)
		return lexAny
	}

	switch l.prevTokenType() {
	case token.Var, token.Loop, token.Comma, token.As, token.Equal, token.Func:
		l.emit(token.Ident)
		return lexAny
	}

	l.emit(token.TextLit)
	return lexShellArgList
}

func lexAccess(l *lexer) stateFn {
	// came from '$' which we drop from the lexeme
	l.ignore()

	// edge case: $? is a valid access
	if l.match('?') {
		l.emit(token.Access)
		return lexAny
	}

	if !isValidIdentifier(l.next()) {
		l.errorf("Illegal identifier name")
		return lexAny
	}

	for isValidIdentifier(l.next()) {
	}
	l.backup()
	l.emit(token.Access)
	return lexAny
}

func lexString(l *lexer) stateFn {
	// drop the opening quote
	l.ignore()

	strType := l.peekAhead(-1)
	strStartCol := l.posInLine
	var sb strings.Builder

	// scanSegment scans string content up to the closing quote, handling
	// escapes. It returns false when scanning has to be aborted, in which
	// case an error was already reported.
	scanSegment := func() bool {
		for {
			c := l.next()
			if c == strType {
				return true
			}
			switch c {
			case eof, '\n':
				l.backup()
				l.errorf("Unterminated string literal")
				return false
			case '\\':
				// single quoted strings keep escapes verbatim
				if strType == '\'' {
					sb.WriteByte('\\')
					continue
				}
				switch esc := l.next(); esc {
				case '"':
					sb.WriteByte(esc)
				case 'n':
					sb.WriteByte('\n')
				case '\\':
					sb.WriteByte('\\')
				default:
					l.errorf("Unknown escape sequence")
					// continue scanning after the string terminates
					for {
						c = l.next()
						if c == '"' || c == eof {
							break
						}
					}
					return false
				}
			default:
				sb.WriteByte(c)
			}
		}
	}

	if !scanSegment() {
		l.ignore()
		return lexAny
	}
	strEndCol := l.posInLine - 1

	// handle the multi-line continuation: closing quote, optional blanks,
	// a backslash, a newline and a new opening quote of the same kind
	for {
		l.acceptRun(" \t\v")
		if !l.match('\\') {
			break
		}
		l.acceptRun(" \t\v")
		if !l.match('\n') {
			l.ignore()
			l.errorf("Unexpected character after string continuation")
			return lexAny
		}

		// Every token but these multi-line strings spans a single line.
		// The token records the final line of the literal.
		l.lineCount++
		l.posInLine = 0
		l.acceptRun(" \t\v")
		l.start = l.pos

		if !l.match(strType) {
			l.next()
			l.errorf("Expected another string after '\\'")
			l.ignore()
			return lexAny
		}

		strStartCol = l.posInLine
		if !scanSegment() {
			l.ignore()
			return lexAny
		}
		strEndCol = l.posInLine - 1
	}

	l.tokens = append(l.tokens, token.Token{
		Type:     token.String,
		Lexeme:   sb.String(),
		Line:     l.lineCount,
		StartCol: strStartCol,
		EndCol:   strEndCol,
	})

	l.ignore()
	return lexAny
}

func lexComment(l *lexer) stateFn {
	for {
		c := l.next()
		if c == eof {
			return lexEnd
		}
		if c == '\n' {
			break
		}
	}
	l.backup()
	l.ignore()
	return lexAny
}

func lexRParen(l *lexer) stateFn {
	l.emit(token.RParen)
	return lexAny
}
