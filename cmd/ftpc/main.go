package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "ftpc"
	app.Usage = "FTP client"
	app.Version = "0.1.0"
	app.Flags = globalFlags()
	app.Commands = []cli.Command{
		shellCommand(),
		getCommand(),
		putCommand(),
		listCommand(),
	}
	app.Action = runShell

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
