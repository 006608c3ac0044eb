package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/recofeed-go/internal/cli/repl"
	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/feed"
)

// BrowseCommand opens an interactive session on one feed.
func BrowseCommand() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Page through a feed interactively",
		Flags: []cli.Flag{
			kindFlag(),
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "Where browse history is kept",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: browse,
	}
}

func browse(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl, err := rt.controller(c.String("kind"))
	if err != nil {
		return err
	}

	history := repl.NewHistory(c.String("history-file"))
	if err := history.Load(); err != nil {
		rt.log.Debug("history not loaded", "error", err)
	}

	r := repl.New(
		repl.WithIO(c.App.Reader, writer(c)),
		repl.WithPrompt(fmt.Sprintf("recofeed(%s)> ", ctrl.Kind())),
		repl.WithHistory(history),
	)
	r.Register(browseCommands(c, ctrl)...)

	if err := waitLoad(c, ctrl.Mount(c.Context), fmt.Sprintf("loading %s", ctrl.Kind())); err != nil {
		fmt.Fprintf(errWriter(c), "error: %v\n", err)
	} else if err := renderView(c, ctrl.View()); err != nil {
		return err
	}

	runErr := r.Run(c.Context)
	if err := history.Save(); err != nil {
		rt.log.Debug("history not saved", "error", err)
	}
	return runErr
}

func browseCommands(c *cli.Context, ctrl feed.Controller) []repl.Command {
	show := func(context.Context, []string) error {
		return renderView(c, ctrl.View())
	}
	return []repl.Command{
		{
			Name:  "more",
			Usage: "load the next page",
			Run: func(ctx context.Context, _ []string) error {
				if !ctrl.View().HasMore {
					fmt.Fprintln(writer(c), "no more items")
					return nil
				}
				if err := waitLoad(c, ctrl.LoadMore(ctx), "loading more"); err != nil {
					return err
				}
				return show(ctx, nil)
			},
		},
		{
			Name:  "reload",
			Usage: "load the first page again",
			Run: func(ctx context.Context, _ []string) error {
				if err := waitLoad(c, ctrl.Reload(ctx), "reloading"); err != nil {
					return err
				}
				return show(ctx, nil)
			},
		},
		{
			Name:  "show",
			Usage: "print the current list",
			Run:   show,
		},
		{
			Name:  "filters",
			Usage: "print the filters, or set the time period: filters PERIOD",
			Run: func(ctx context.Context, args []string) error {
				if len(args) == 0 {
					return render(c, filtersResult{ctrl.Filters()})
				}
				period, err := domain.ParseTimePeriod(args[0])
				if err != nil {
					return err
				}
				f := ctrl.Filters()
				f.TimePeriod = period
				if err := waitLoad(c, ctrl.ApplySettings(ctx, f), "loading"); err != nil {
					return err
				}
				return show(ctx, nil)
			},
		},
	}
}
