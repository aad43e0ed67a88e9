package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dscc/pkg/compiler"
)

const usage = `usage: dscc [options] <input file>

options:
  -o <file>   write output to <file>
  -S          emit textual IR
  -c          compile only, do not link
  -O<n>       optimization level 0-3 (accepted, currently no effect)
  -v          verbose stage output
  -h, --help  show this help
`

type cliArgs struct {
	input    string
	output   string
	emitIR   bool
	compile  bool
	optLevel int
	verbose  bool
}

func main() {
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "dscc:", err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	data, err := os.ReadFile(args.input)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dscc:", err)
		os.Exit(1)
	}

	module, reporter := compiler.Compile(args.input, string(data), compiler.Options{
		OptLevel: args.optLevel,
		Verbose:  args.verbose,
		Log:      os.Stderr,
	})
	reporter.Print(os.Stderr)
	if module == nil {
		os.Exit(1)
	}

	out := outputName(args)
	if err := os.WriteFile(out, []byte(module.String()), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "dscc:", err)
		os.Exit(1)
	}
	if args.verbose {
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
	}
}

func parseArgs(argv []string) (cliArgs, error) {
	var args cliArgs
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-h" || arg == "--help":
			fmt.Print(usage)
			os.Exit(0)
		case arg == "-o":
			i++
			if i >= len(argv) {
				return args, fmt.Errorf("-o requires an argument")
			}
			args.output = argv[i]
		case arg == "-S":
			args.emitIR = true
		case arg == "-c":
			args.compile = true
		case arg == "-v":
			args.verbose = true
		case strings.HasPrefix(arg, "-O"):
			level := arg[2:]
			if len(level) != 1 || level[0] < '0' || level[0] > '3' {
				return args, fmt.Errorf("invalid optimization level %q", arg)
			}
			args.optLevel = int(level[0] - '0')
		case strings.HasPrefix(arg, "-"):
			return args, fmt.Errorf("unknown option %q", arg)
		default:
			if args.input != "" {
				return args, fmt.Errorf("multiple input files: %q and %q", args.input, arg)
			}
			args.input = arg
		}
	}
	if args.input == "" {
		return args, fmt.Errorf("no input file")
	}
	return args, nil
}

// outputName resolves the output path: an explicit -o wins, then the
// input stem with .s for -S, .o for -c, and a.out otherwise.
func outputName(args cliArgs) string {
	if args.output != "" {
		return args.output
	}
	stem := strings.TrimSuffix(filepath.Base(args.input), filepath.Ext(args.input))
	switch {
	case args.emitIR:
		return stem + ".s"
	case args.compile:
		return stem + ".o"
	}
	return "a.out"
}
