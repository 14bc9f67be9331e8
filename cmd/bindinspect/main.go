// Command bindinspect prints the binding reflection and layout of WGSL
// shader programs.
package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/gogpu/shaderbind"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "bindinspect"
	app.Usage = "inspect shader bindings and layouts"
	app.Version = shaderbind.Version
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "reflect",
			Usage: "print the variables, resources and stage IO of a program",
			Description: `
Reflect every WGSL file given, merge the stages into one program and print
its constant buffers, structured buffers, global resources, vertex
attributes and fragment outputs.`,
			ArgsUsage: "stage1.wgsl stage2.wgsl ...",
			Action:    reflectCmd,
		},
		{
			Name:  "layout",
			Usage: "print the merged binding ranges and their root cost",
			Description: `
Build the binding layout of the merged program. Exits with status 2 when the
layout costs more than the budget.`,
			ArgsUsage: "stage1.wgsl stage2.wgsl ...",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "budget, b",
					Value: 64,
					Usage: "root cost budget in DWORDs",
				},
			},
			Action: layoutCmd,
		},
		{
			Name:      "check",
			Usage:     "check that the stages of a program declare their bindings consistently",
			ArgsUsage: "stage1.wgsl stage2.wgsl ...",
			Action:    checkCmd,
		},
	}
	return app
}
