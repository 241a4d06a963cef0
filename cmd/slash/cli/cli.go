package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/madlambda/spells/errutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/slash-lang/slash"
	"github.com/slash-lang/slash/config"
	"github.com/slash-lang/slash/interp"
	"github.com/slash-lang/slash/lexer"
	"github.com/slash-lang/slash/parser"
)

const (
	ErrScriptRead errutil.Error = "could not read file"
)

type cliSpec struct {
	Version kong.VersionFlag `help:"Print slash version."`

	Command  string `short:"c" optional:"true" help:"Execute the given string as slash source."`
	LogLevel string `optional:"true" default:"disabled" enum:"disabled,trace,debug,info,warn,error,fatal" help:"Log level to use: 'disabled', 'trace', 'debug', 'info', 'warn', 'error' or 'fatal'."`

	Args []string `arg:"" optional:"true" passthrough:"" name:"script" help:"Script file to execute followed by its arguments."`
}

// Run runs slash with the provided flags defined on args and returns
// the process exit code. args is the command line without the program
// name: flags, then an optional script path and its arguments.
//
// Output is written on stdout, diagnostics on stderr. The interactive
// REPL and the read builtin consume the provided stdin.
//
// Each Run call is completely isolated from each other (no shared state)
// as far as the parameters are not shared between the Run calls.
func Run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	parsedArgs := cliSpec{}
	kongExit := false
	kongExitStatus := 0

	kparser, err := kong.New(&parsedArgs,
		kong.Name("slash"),
		kong.Description("The slash shell language"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Exit(func(status int) {
			// Avoid kong aborting the entire process since the CLI is
			// designed as a library
			kongExit = true
			kongExitStatus = status
		}),
		kong.Vars{"version": slash.Version()},
		kong.Writers(stdout, stderr))
	if err != nil {
		fmt.Fprintf(stderr, "failed to create cli parser: %v\n", err)
		return 1
	}

	_, err = kparser.Parse(args)
	if kongExit {
		return kongExitStatus
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to parse cli args %v: %v\n", args, err)
		return 2
	}

	configureLogging(parsedArgs.LogLevel, stderr)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "slash: %v\n", err)
		return 1
	}

	c := &cli{
		parsedArgs: &parsedArgs,
		config:     cfg,
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
	}
	return c.run()
}

type cli struct {
	parsedArgs *cliSpec
	config     config.Config
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

func (c *cli) run() int {
	if c.parsedArgs.Command != "" {
		return c.runSource(c.parsedArgs.Command, []string{"slash"})
	}

	if len(c.parsedArgs.Args) > 0 {
		path := c.parsedArgs.Args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(c.stderr, "slash: %v\n", errutil.Chain(ErrScriptRead, err))
			return 1
		}
		return c.runSource(string(data), c.parsedArgs.Args)
	}

	return c.interactive()
}

func (c *cli) newInterpreter(argv []string) *interp.Interpreter {
	ip := interp.New(argv, c.stdin, c.stdout, c.stderr)
	ip.TuneGC(c.config.GC.MinRunBytes, c.config.GC.GrowFactor)
	return ip
}

// runSource lexes, parses and executes a whole source buffer, the
// one-shot (non interactive) mode of slash.
func (c *cli) runSource(src string, argv []string) int {
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}

	lexResult := lexer.Lex(src)
	if lexResult.HadError() {
		reportLexErrors(c.stderr, src, lexResult.Errors.Errors())
		return 1
	}

	parseResult := parser.Parse(lexResult.Tokens)
	if parseResult.HadError() {
		reportParseErrors(c.stderr, src, parseResult.Errors)
		return 1
	}

	ip := c.newInterpreter(argv)
	defer ip.Close()
	return ip.Run(parseResult.Stmts)
}

// interactive runs the REPL. When a parse fails with a single
// "expected '}'" error (or any such error while already inside a
// block), the driver switches to the continuation prompt and
// accumulates lines until the block closes.
func (c *cli) interactive() int {
	log.Debug().
		Str("action", "cli.interactive()").
		Str("version", slash.Version()).
		Msg("starting REPL")

	ip := c.newInterpreter([]string{"slash"})
	defer ip.Close()

	reader := bufio.NewReader(c.stdin)
	buf := ""
	insideBlock := false

	for {
		prompt := c.config.Prompt
		if insideBlock {
			prompt = c.config.ContinuationPrompt
		}
		fmt.Fprint(c.stdout, prompt)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			// EOF ends the session
			fmt.Fprintln(c.stdout)
			return ip.ExitCode()
		}
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}

		src := buf + line

		lexResult := lexer.Lex(src)
		if lexResult.HadError() {
			reportLexErrors(c.stderr, src, lexResult.Errors.Errors())
			buf = ""
			insideBlock = false
			continue
		}

		parseResult := parser.Parse(lexResult.Tokens)
		switch {
		case !parseResult.HadError():
			ip.Run(parseResult.Stmts)
			if ip.Exited() {
				return ip.ExitCode()
			}
			buf = ""

		case (len(parseResult.Errors) == 1 || insideBlock) &&
			parseResult.LastError().Kind == parser.ErrExpectedRBrace:
			// the block is still open: keep the input and continue
			// reading on the secondary prompt
			buf = src
			insideBlock = true
			continue

		default:
			reportParseErrors(c.stderr, src, parseResult.Errors)
			buf = ""
		}

		insideBlock = false
	}
}

func configureLogging(logLevel string, output io.Writer) {
	zloglevel, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		zloglevel = zerolog.FatalLevel
	}

	zerolog.SetGlobalLevel(zloglevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: output})
}
