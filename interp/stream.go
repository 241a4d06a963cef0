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

package interp

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// StreamCtx is the single stream context every command, pipeline,
// subshell and builtin executes through. In, Out and Err default to the
// process stdio. activeFds tracks open pipe ends so they can be closed
// deterministically once children are waited for.
type StreamCtx struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	activeFds []*os.File
}

func (ctx *StreamCtx) pushFd(f *os.File) {
	ctx.activeFds = append(ctx.activeFds, f)
}

func (ctx *StreamCtx) popFd() {
	if len(ctx.activeFds) == 0 {
		internalf("stream: fd pop on empty stack")
	}
	ctx.activeFds = ctx.activeFds[:len(ctx.activeFds)-1]
}

// closeActiveFds closes every tracked pipe end. Closing twice is
// harmless and mirrors how children and parent both release their copy.
func (ctx *StreamCtx) closeActiveFds() {
	for _, f := range ctx.activeFds {
		_ = f.Close()
	}
}

// reset restores the context to the stdio defaults.
func (ctx *StreamCtx) reset(in io.Reader, out, errw io.Writer) {
	ctx.closeActiveFds()
	ctx.activeFds = nil
	ctx.In = in
	ctx.Out = out
	ctx.Err = errw
}

// execProgram runs an external program with argv[0] as its path. The
// child inherits the context streams, every tracked pipe end is closed
// once the child has been started, and the parent blocks until the
// child exits. Returns the child exit code.
func execProgram(ctx *StreamCtx, argv []string) int {
	log.Trace().
		Str("action", "execProgram()").
		Strs("argv", argv).
		Msg("spawning child process")

	cmd := exec.Cmd{
		Path:   argv[0],
		Args:   argv,
		Env:    os.Environ(),
		Stdin:  ctx.In,
		Stdout: ctx.Out,
		Stderr: ctx.Err,
	}

	if err := cmd.Start(); err != nil {
		ctx.closeActiveFds()
		log.Debug().
			Str("action", "execProgram()").
			Err(err).
			Msg("failed to start child")
		return 127
	}

	ctx.closeActiveFds()

	err := cmd.Wait()
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}

// WhichKind is the resolution class of a command name.
type WhichKind int

const (
	// WhichNotFound means the command could not be resolved.
	WhichNotFound WhichKind = iota

	// WhichBuiltin means the command is a shell builtin.
	WhichBuiltin

	// WhichExtern means the command resolved to an executable path.
	WhichExtern
)

// WhichResult is the outcome of resolving a command name.
type WhichResult struct {
	Kind    WhichKind
	Path    string
	Builtin builtinFunc
}

// which resolves a command name: an absolute path is taken verbatim,
// then the builtin table is consulted, then each entry of the colon
// separated PATH is searched for a regular file with the user execute
// bit set.
func which(command string, pathVar string) WhichResult {
	// edge case: command is a path
	if strings.HasPrefix(command, "/") {
		return WhichResult{Kind: WhichExtern, Path: command}
	}

	if builtin, ok := builtins[command]; ok {
		return WhichResult{Kind: WhichBuiltin, Builtin: builtin}
	}

	for _, dir := range strings.Split(pathVar, ":") {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, command)
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() && info.Mode().Perm()&0o100 != 0 {
			return WhichResult{Kind: WhichExtern, Path: candidate}
		}
	}

	return WhichResult{Kind: WhichNotFound}
}
