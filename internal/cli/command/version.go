package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/recofeed-go/internal/cli/output"
	"github.com/yndnr/recofeed-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			return render(c, versionResult{buildinfo.Get()})
		},
	}
}

type versionResult struct {
	buildinfo.Info
}

func (r versionResult) Table(bool) *output.Table {
	return output.Fields(
		"version", r.Version,
		"commit", r.Commit,
		"build_time", r.BuildTime,
		"go_version", r.GoVersion,
	)
}
