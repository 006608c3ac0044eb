package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/recofeed-go/internal/cli/output"
	"github.com/yndnr/recofeed-go/internal/feed"
	"github.com/yndnr/recofeed-go/internal/storage/snapshot"
)

// SnapshotCommand returns the snapshot subcommand group.
func SnapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Inspect cached feed snapshots",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List stored snapshots",
				Action: snapshotList,
			},
			{
				Name:   "show",
				Usage:  "Show a stored snapshot",
				Flags:  []cli.Flag{kindFlag()},
				Action: snapshotShow,
			},
			{
				Name:   "clear",
				Usage:  "Remove a stored snapshot",
				Flags:  []cli.Flag{kindFlag()},
				Action: snapshotClear,
			},
		},
	}
}

// snapshotRow is one stored snapshot. Current is false when the next
// mount would discard it.
type snapshotRow struct {
	snapshot.Summary
	Kind    string `json:"kind"`
	Current bool   `json:"current"`
}

type snapshotRows []snapshotRow

func (rows snapshotRows) Table(wide bool) *output.Table {
	t := &output.Table{Headers: []string{"KIND", "ITEMS", "PERIOD", "CAPTURED", "CURRENT"}}
	if wide {
		t.Headers = append(t.Headers, "KEY", "SCHEMA", "ENCRYPTED", "ERROR")
	}
	for _, r := range rows {
		captured := "-"
		if !r.CapturedAt.IsZero() {
			captured = r.CapturedAt.Local().Format("2006-01-02 15:04")
		}
		period := string(r.Filters.TimePeriod)
		if period == "" {
			period = "-"
		}
		cells := []string{r.Kind, strconv.Itoa(r.Items), period, captured, strconv.FormatBool(r.Current)}
		if wide {
			errText := r.Error
			if errText == "" {
				errText = "-"
			}
			cells = append(cells, r.Key, strconv.Itoa(r.SchemaVersion), strconv.FormatBool(r.Encrypted), errText)
		}
		t.AddRow(cells...)
	}
	return t
}

// snapshotList reads every stored snapshot without restoring, so entries
// taken under other filters are listed rather than erased.
func snapshotList(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	sums, err := snapshot.List(c.Context, rt.kv, feed.SnapshotPrefix, rt.cipher)
	if err != nil {
		return err
	}

	rows := make(snapshotRows, 0, len(sums))
	for _, sum := range sums {
		row := snapshotRow{Summary: sum, Kind: strings.TrimPrefix(sum.Key, feed.SnapshotPrefix)}
		if ctrl, err := rt.controller(row.Kind); err == nil && sum.Error == "" {
			row.Current = sum.SchemaVersion >= feed.MinSupportedSchemaVersion &&
				sum.Filters.Equal(ctrl.Filters())
		}
		rows = append(rows, row)
	}
	return render(c, rows)
}

// snapshotResult prints the items of a snapshot as a table.
type snapshotResult struct {
	*feed.SnapshotView
}

func (r snapshotResult) Table(wide bool) *output.Table {
	return output.ItemsTable(r.Items, wide)
}

func snapshotShow(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl, err := rt.controller(c.String("kind"))
	if err != nil {
		return err
	}
	view, ok, err := ctrl.Snapshot(c.Context)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(errWriter(c), "no snapshot for %s\n", ctrl.Kind())
		return nil
	}

	if err := render(c, snapshotResult{view}); err != nil {
		return err
	}
	if format, _ := output.ParseFormat(state(c).flags.Output); format == output.FormatTable {
		fmt.Fprintf(writer(c), "\n%d items captured %s (schema %d)",
			len(view.Items), view.CapturedAt.Local().Format("2006-01-02 15:04"), view.SchemaVersion)
		if !view.Current {
			fmt.Fprint(writer(c), ", taken under other filters")
		}
		fmt.Fprintln(writer(c))
	}
	return nil
}

func snapshotClear(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl, err := rt.controller(c.String("kind"))
	if err != nil {
		return err
	}
	if err := ctrl.ClearSnapshot(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(writer(c), "✓ Snapshot cleared: %s\n", ctrl.Kind())
	return nil
}
