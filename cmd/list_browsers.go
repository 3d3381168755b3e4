package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/browser-acceptor/flags"
	"github.com/ethereum-optimism/infra/browser-acceptor/registry"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

// ListBrowsersCommand defines the "list-browsers" command, which prints the
// resolved browser profiles of a profiles file.
func ListBrowsersCommand() *cli.Command {
	return &cli.Command{
		Name:      "list-browsers",
		Usage:     "List the browser profiles defined in a profiles file",
		ArgsUsage: "[profiles-file]",
		Flags: []cli.Flag{
			flags.Browsers,
		},
		Action: listBrowsers,
	}
}

func listBrowsers(ctx *cli.Context) error {
	path := ctx.String(flags.Browsers.Name)
	if ctx.Args().Present() {
		path = ctx.Args().First()
	}
	if path == "" {
		return cli.Exit("a browser profiles file is required", 2)
	}

	log := oplog.NewLogger(ctx.App.ErrWriter, oplog.DefaultCLIConfig())
	reg, err := registry.NewRegistry(registry.Config{Log: log, ProfilesFile: path})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	t := table.NewWriter()
	t.SetOutputMirror(ctx.App.Writer)
	t.SetTitle(fmt.Sprintf("Browser profiles (%s)", path))
	t.AppendHeader(table.Row{"ID", "REMOTE", "BROWSER", "REQUIRES"})
	for _, id := range reg.ProfileIDs() {
		p, err := reg.Profile(id)
		if err != nil {
			t.AppendRow(table.Row{id, "-", "-", err.Error()})
			continue
		}
		browser := "-"
		if name, ok := p.Capabilities["browserName"]; ok {
			browser = fmt.Sprint(name)
		}
		t.AppendRow(table.Row{p.ID, p.Remote, browser, fmt.Sprint(p.RequiredCapabilities)})
	}
	t.Render()
	return nil
}
