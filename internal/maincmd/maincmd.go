package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/DanielAraldiEDU/uniscript/internal/compiler"
)

const binName = "uniscriptc"

const defaultPath = "prompt.txt"

var shortUsage = fmt.Sprintf(`
usage: %s [<path>]
Run '%[1]s --help' for details.
`, binName)

var longUsage = fmt.Sprintf(`usage: %s [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiles a UniScript source file (default %[2]s): runs lexing, parsing and
semantic analysis, writes output.bip when analysis raised no error, prints
diagnostics to stderr and a success line to stdout.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName, defaultPath)

// Cmd is the single-command CLI entry point described by §6: `compiler
// [path]`, default prompt.txt.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string)         { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if len(c.args) > 1 {
		return fmt.Errorf("at most one path argument expected, got %d", len(c.args))
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	path := defaultPath
	if len(c.args) == 1 {
		path = c.args[0]
	}

	if err := run(stdio, path); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.Failure
	}
	return mainer.Success
}

func run(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	res := compiler.Compile(src)
	snap := res.Snapshot

	// The terminal lexical/syntactic fault, if any, prints once with a real
	// line:column prefix via go/scanner.ErrorList's own Error() formatting;
	// every other diagnostic (warnings, semantic errors) prints from the
	// snapshot's byte-offset view.
	if len(res.ScanErrors) > 0 {
		fmt.Fprintln(stdio.Stderr, res.ScanErrors.Error())
	}
	for _, d := range snap.Diagnostics {
		if snap.Kind == "lexical" || snap.Kind == "syntactic" {
			if d.Message == snap.Message && d.Position == snap.Position {
				continue
			}
		}
		fmt.Fprintf(stdio.Stderr, "%s: %s (pos %d, len %d)\n", d.Severity, d.Message, d.Position, d.Length)
	}

	if !snap.Ok {
		return fmt.Errorf("%s: compilation failed (%s): %s", path, snap.Kind, snap.Message)
	}

	if res.Program != nil {
		if err := os.WriteFile("output.bip", []byte(res.Program.Render()), 0o644); err != nil {
			return fmt.Errorf("writing output.bip: %w", err)
		}
	}

	fmt.Fprintf(stdio.Stdout, "%s: compiled successfully, %d symbol(s)\n", path, len(snap.SymbolTable))
	return nil
}
