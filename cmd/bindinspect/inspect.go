package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/gogpu/shaderbind"
	"github.com/gogpu/shaderbind/layout"
	"github.com/gogpu/shaderbind/reflection"
)

// Exit codes.
const (
	exitInvalid    = 1
	exitOverBudget = 2
	exitUsage      = 3
)

var out io.Writer = os.Stdout

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		shaderbind.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
}

// loadProgram reflects every file in args and merges the stages.
func loadProgram(ctx *cli.Context) (*reflection.ProgramReflection, error) {
	setupLogging(ctx)
	if ctx.NArg() == 0 {
		return nil, cli.NewExitError("missing WGSL files", exitUsage)
	}
	stages := make([]*reflection.ProgramReflection, 0, ctx.NArg())
	for _, path := range ctx.Args() {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, cli.NewExitError(err.Error(), exitUsage)
		}
		p, err := reflection.ReflectWGSL(string(src))
		if err != nil {
			return nil, cli.NewExitError(fmt.Sprintf("%s: %v", path, err), exitInvalid)
		}
		stages = append(stages, p)
	}
	merged, err := reflection.Merge(stages...)
	if err != nil {
		return nil, cli.NewExitError(err.Error(), exitInvalid)
	}
	return merged, nil
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(header)
	return table
}

func reflectCmd(ctx *cli.Context) error {
	p, err := loadProgram(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Stages: %s\n\n", p.Stages())

	for _, kind := range []reflection.BufferKind{reflection.BufferConstant, reflection.BufferStructured} {
		bufs := p.Buffers(kind)
		if len(bufs) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s buffers\n", kind)
		table := newTable("Buffer", "Register", "Size", "Variable", "Type", "Offset", "Array")
		for _, b := range bufs {
			table.Append([]string{b.Name(), strconv.Itoa(int(b.Register())), strconv.Itoa(int(b.Size())), "---", "", "", ""})
			for _, v := range b.Variables() {
				table.Append([]string{"", "", "", v.Name, v.Type.String(), strconv.Itoa(int(v.Offset)), arraySize(v.ArraySize)})
			}
		}
		table.Render()
		fmt.Fprintln(out)
	}

	if res := p.Resources(); len(res) > 0 {
		fmt.Fprintln(out, "Resources")
		table := newTable("Name", "Kind", "Register", "Array", "Access", "Dimension", "Return", "Format", "Visibility")
		for _, r := range res {
			table.Append([]string{
				r.Name, r.Kind.String(), strconv.Itoa(int(r.Register)), arraySize(r.ArraySize),
				r.Access.String(), r.Dimension.String(), r.ReturnType.String(), string(r.Format), r.Visibility.String(),
			})
		}
		table.Render()
		fmt.Fprintln(out)
	}

	printAttributes("Vertex attributes", p.VertexAttributes())
	printAttributes("Fragment outputs", p.FragmentOutputs())
	return nil
}

func printAttributes(title string, attrs []*reflection.Attribute) {
	if len(attrs) == 0 {
		return
	}
	fmt.Fprintln(out, title)
	table := newTable("Name", "Location", "Type", "Array")
	for _, a := range attrs {
		table.Append([]string{a.Name, strconv.Itoa(int(a.Location)), a.Type.String(), arraySize(a.ArraySize)})
	}
	table.Render()
	fmt.Fprintln(out)
}

func arraySize(n uint32) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(int(n))
}

func layoutCmd(ctx *cli.Context) error {
	p, err := loadProgram(ctx)
	if err != nil {
		return err
	}
	budget := ctx.Int("budget")
	l, err := layout.Build(p, budget)
	if errors.Is(err, layout.ErrCapacityExceeded) {
		return cli.NewExitError(err.Error(), exitOverBudget)
	}
	if err != nil {
		return cli.NewExitError(err.Error(), exitInvalid)
	}
	if l.IsEmpty() {
		fmt.Fprintln(out, "Empty layout")
		return nil
	}

	table := newTable("Space", "Kind", "Registers", "Cost")
	for _, r := range l.Ranges() {
		table.Append([]string{
			strconv.Itoa(int(r.Space)), r.Kind.String(),
			fmt.Sprintf("%d-%d", r.Base, r.End()-1), strconv.Itoa(r.Cost()),
		})
	}
	table.SetFooter([]string{"Total", "", "", fmt.Sprintf("%d / %d", l.Cost(), budget)})
	table.Render()
	fmt.Fprintln(out)

	entries := newTable("Binding", "Name", "Type", "Count", "Visibility")
	for _, e := range l.Entries() {
		entries.Append([]string{
			strconv.Itoa(int(e.Binding)), e.Name, e.Type.String(), arraySize(e.Count), e.Visibility.String(),
		})
	}
	entries.Render()
	return nil
}

func checkCmd(ctx *cli.Context) error {
	p, err := loadProgram(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "OK: %d stage(s), %d constant buffer(s), %d structured buffer(s), %d resource(s)\n",
		len(ctx.Args()),
		len(p.Buffers(reflection.BufferConstant)),
		len(p.Buffers(reflection.BufferStructured)),
		len(p.Resources()))
	return nil
}
