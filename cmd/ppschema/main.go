// Command ppschema inspects the schema batches saved next to plainprops
// values.
//
//   - print: list the enums and structs of a batch with their members
//   - check: validate a batch
//   - diff: report how the schemas of one batch evolved from another, and
//     whether values saved under the old one still load
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"plainprops/batch"
)

const version = "0.1.0"

const usage = `Inspect plainprops schema batches.

Usage:
    ppschema print [--verbose=<level>] <batch>
    ppschema check [--verbose=<level>] <batch>
    ppschema diff [--verbose=<level>] <old> <new>
    ppschema -h | --help
    ppschema --version

Options:
    -h --help            Show this screen.
    --version            Show version.
    --verbose=<level>    Log verbosity [default: 0].`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		panic(err)
	}

	_ = flag.Set("logtostderr", "true")
	if v, _ := opts.String("--verbose"); v != "" {
		_ = flag.Set("v", v)
	}

	ok, err := run(opts, os.Stdout)

	glog.Flush()

	if err != nil {
		fmt.Fprintln(os.Stderr, "ppschema:", err)
		os.Exit(2)
	}

	if !ok {
		os.Exit(1)
	}
}

// run executes the parsed command. It reports false when diff finds errors.
func run(opts docopt.Opts, w io.Writer) (bool, error) {
	if cmd, _ := opts.Bool("diff"); cmd {
		return diff(opts, w)
	}

	path, _ := opts.String("<batch>")

	b, err := batch.LoadFile(path)
	if err != nil {
		return false, err
	}

	glog.V(1).Infof("ppschema: loaded %s", path)

	if cmd, _ := opts.Bool("print"); cmd {
		printBatch(w, b)
		return true, nil
	}

	fmt.Fprintf(w, "%s: %d structs, %d enums, %d names\n", path, len(b.Structs), len(b.Enums), len(b.Names))

	return true, nil
}

func diff(opts docopt.Opts, w io.Writer) (bool, error) {
	oldPath, _ := opts.String("<old>")
	newPath, _ := opts.String("<new>")

	old, err := batch.LoadFile(oldPath)
	if err != nil {
		return false, err
	}

	cur, err := batch.LoadFile(newPath)
	if err != nil {
		return false, err
	}

	diags := batch.Compare(old, cur)
	fmt.Fprint(w, diags.String())

	return !diags.HasErrors(), nil
}

func printBatch(w io.Writer, b *batch.Batch) {
	for _, e := range b.Enums {
		fmt.Fprintf(w, "enum %s %s %s\n", b.TypeString(e.Type), e.Mode, e.Width)

		for _, en := range e.Enumerators {
			fmt.Fprintf(w, "    %s = %d\n", b.NameText(en.Name), en.Constant)
		}
	}

	for _, s := range b.Structs {
		fmt.Fprintf(w, "struct %s", b.TypeString(s.Type))

		if s.Super != batch.NoIndex {
			fmt.Fprintf(w, " : %s", b.TypeString(b.Structs[s.Super].Type))
		}

		fmt.Fprintf(w, " (%s)\n", s.Occupancy)

		for _, m := range s.Members {
			fmt.Fprintf(w, "    %s %s\n", b.NameText(m.Name), memberString(b, m))
		}
	}
}

func memberString(b *batch.Batch, m batch.MemberSchema) string {
	if m.Type == nil {
		return "?"
	}

	out := m.Type.String()
	for _, it := range m.Items {
		out += "/" + it.String()
	}

	if ref := b.SchemaName(m); ref != "" {
		out += " " + ref
	}

	return out
}
