package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/recofeed-go/internal/cli/output"
	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/core/loader"
	"github.com/yndnr/recofeed-go/internal/feed"
)

// FeedCommand returns the feed subcommand group.
func FeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Show feeds",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Restore or load a feed and print it",
				Flags: append(filterFlags(),
					kindFlag(),
					&cli.IntFlag{
						Name:    "pages",
						Aliases: []string{"p"},
						Usage:   "Extra pages to load after the first",
					},
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Ignore the snapshot and load from the server",
					},
				),
				Action: feedShow,
			},
			{
				Name:   "more",
				Usage:  "Restore a feed and load one more page",
				Flags:  []cli.Flag{kindFlag()},
				Action: feedMore,
			},
		},
	}
}

func kindFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Feed: recommendations, past_recommendations, popular, rating_history",
		Value:   string(feed.KindRecommendations),
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "time-period",
			Aliases: []string{"t"},
			Usage:   "Time period (RECENT, DAY, WEEK, MONTH, YEAR, ALL, ...)",
		},
		&cli.Int64Flag{
			Name:  "category",
			Usage: "Category id (-1 for any)",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Recommendation source: any, user, feed",
		},
		&cli.BoolFlag{
			Name:  "positive-only",
			Usage: "Rating history: thumbs up only",
		},
	}
}

// filtersFromFlags applies the filter flags that were set on top of base.
func filtersFromFlags(c *cli.Context, base domain.Filters) (domain.Filters, error) {
	f := base
	if c.IsSet("time-period") {
		p, err := domain.ParseTimePeriod(c.String("time-period"))
		if err != nil {
			return f, err
		}
		f.TimePeriod = p
	}
	if c.IsSet("category") {
		f.CategoryID = c.Int64("category")
	}
	if c.IsSet("source") {
		s, err := domain.ParseSourceType(c.String("source"))
		if err != nil {
			return f, err
		}
		f.SourceType = s
	}
	if c.IsSet("positive-only") {
		f.PositiveOnly = c.Bool("positive-only")
	}
	return f, nil
}

func feedShow(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl, err := rt.controller(c.String("kind"))
	if err != nil {
		return err
	}
	filters, err := filtersFromFlags(c, ctrl.Filters())
	if err != nil {
		return err
	}

	ctx := c.Context
	var req *loader.Request
	switch {
	case !filters.Equal(ctrl.Filters()):
		req = ctrl.ApplySettings(ctx, filters)
	case c.Bool("refresh"):
		req = ctrl.Reload(ctx)
	default:
		req = ctrl.Mount(ctx)
	}
	if err := waitLoad(c, req, fmt.Sprintf("loading %s", ctrl.Kind())); err != nil {
		return err
	}

	if err := loadPages(c, ctrl, c.Int("pages")); err != nil {
		return err
	}
	return renderView(c, ctrl.View())
}

func feedMore(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl, err := rt.controller(c.String("kind"))
	if err != nil {
		return err
	}
	if err := waitLoad(c, ctrl.Mount(c.Context), fmt.Sprintf("loading %s", ctrl.Kind())); err != nil {
		return err
	}
	if !ctrl.View().HasMore {
		fmt.Fprintln(errWriter(c), "no more items")
		return renderView(c, ctrl.View())
	}
	if err := loadPages(c, ctrl, 1); err != nil {
		return err
	}
	return renderView(c, ctrl.View())
}

// loadPages loads up to n more pages, stopping early at the end of the feed.
func loadPages(c *cli.Context, ctrl feed.Controller, n int) error {
	if n <= 0 {
		return nil
	}
	var bar *output.ProgressBar
	if w := progressWriter(c); w != nil {
		bar = output.NewProgressBar(w, string(ctrl.Kind()), n)
		defer bar.Finish()
	}

	for i := 0; i < n && ctrl.View().HasMore; i++ {
		if err := waitRequest(c.Context, ctrl.LoadMore(c.Context)); err != nil {
			return err
		}
		if bar != nil {
			bar.Page(len(ctrl.View().Items))
		}
	}
	return nil
}

// waitLoad waits for req, animating a spinner on terminals.
func waitLoad(c *cli.Context, req *loader.Request, message string) error {
	w := progressWriter(c)
	if w == nil || req == nil {
		return waitRequest(c.Context, req)
	}

	s := output.NewSpinner(w, message)
	s.Start()
	if err := waitRequest(c.Context, req); err != nil {
		s.Fail(err.Error())
		return err
	}
	s.Stop()
	return nil
}

// waitRequest blocks until req completes. A superseded request is not an
// error: the request that replaced it carries the result.
func waitRequest(ctx context.Context, req *loader.Request) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := feed.Wait(ctx, req)
	return err
}

// progressWriter is stderr when it is a terminal, nil otherwise.
func progressWriter(c *cli.Context) io.Writer {
	if errWriter(c) != io.Writer(os.Stderr) || !output.IsTerminal(os.Stderr) {
		return nil
	}
	if state(c).flags.Output != string(output.FormatTable) {
		return nil
	}
	return os.Stderr
}

// feedResult prints a feed as a table of items, or in full as JSON/YAML.
type feedResult struct {
	feed.View
}

func (r feedResult) Table(wide bool) *output.Table {
	return output.ItemsTable(r.Items, wide)
}

// filtersResult prints filters as FIELD/VALUE rows.
type filtersResult struct {
	domain.Filters
}

func (r filtersResult) Table(bool) *output.Table {
	f := r.Filters
	return output.Fields(
		"time_period", string(f.TimePeriod),
		"category_id", strconv.FormatInt(f.CategoryID, 10),
		"source_type", string(f.SourceType),
		"include_popular", strconv.FormatBool(f.IncludePopular),
		"decay_percent", strconv.Itoa(f.DecayPercent),
		"positive_only", strconv.FormatBool(f.PositiveOnly),
		"personalize", strconv.FormatBool(f.Personalize),
	)
}

func renderView(c *cli.Context, v feed.View) error {
	if err := render(c, feedResult{v}); err != nil {
		return err
	}
	if format, _ := output.ParseFormat(state(c).flags.Output); format != output.FormatTable {
		return nil
	}

	w := writer(c)
	source := "loaded"
	if v.Restored {
		source = "restored"
	}
	fmt.Fprintf(w, "\n%d items %s", len(v.Items), source)
	if !v.LastUpdated.IsZero() {
		fmt.Fprintf(w, ", updated %s", v.LastUpdated.Local().Format("2006-01-02 15:04"))
	}
	if v.HasMore {
		fmt.Fprint(w, ", more available")
	}
	fmt.Fprintln(w)
	return nil
}
