package command

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/recofeed-go/internal/cli/output"
	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/remote"
)

func urlFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "url",
		Aliases:  []string{"u"},
		Usage:    "Page URL",
		Required: true,
	}
}

// RateCommand records a vote on a page.
func RateCommand() *cli.Command {
	return &cli.Command{
		Name:  "rate",
		Usage: "Rate a page",
		Flags: []cli.Flag{
			urlFlag(),
			&cli.StringFlag{
				Name:     "rating",
				Aliases:  []string{"r"},
				Usage:    "up, neutral or down",
				Required: true,
			},
			&cli.Int64Flag{
				Name:  "category",
				Usage: "Category id to file the page under",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Where the rating was made",
				Value: "cli",
			},
		},
		Action: rate,
	}
}

// UnrateCommand removes a vote.
func UnrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "unrate",
		Usage:  "Remove the rating of a page",
		Flags:  []cli.Flag{urlFlag()},
		Action: unrate,
	}
}

// SetCategoryCommand moves a rated page to another category.
func SetCategoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-category",
		Usage: "Move a rated page to a category",
		Flags: []cli.Flag{
			urlFlag(),
			&cli.Int64Flag{
				Name:     "category",
				Usage:    "Category id",
				Required: true,
			},
		},
		Action: setCategory,
	}
}

// MarkUnreadCommand rewinds the last visit so pages show up as unread.
func MarkUnreadCommand() *cli.Command {
	return &cli.Command{
		Name:  "mark-unread",
		Usage: "Mark recommendations from a page onward as unread",
		Flags: []cli.Flag{
			urlFlag(),
			&cli.StringFlag{
				Name:    "time-period",
				Aliases: []string{"t"},
				Usage:   "Time period the mark applies to",
				Value:   string(domain.PeriodLastVisit),
			},
		},
		Action: markUnread,
	}
}

func rate(c *cli.Context) error {
	rating, err := domain.ParseRating(c.String("rating"))
	if err != nil {
		return err
	}

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := c.Context
	url := c.String("url")
	if err := rt.client.Rate(ctx, remote.RateQuery{
		URL:        url,
		Rating:     rating,
		Source:     c.String("source"),
		CategoryID: c.Int64("category"),
	}); err != nil {
		return err
	}

	if err := rt.feeds.Restore(ctx); err != nil {
		rt.log.Warn("snapshot restore failed", "error", err)
	}
	if err := rt.feeds.ApplyRating(ctx, url, &rating); err != nil {
		return fmt.Errorf("update snapshots: %w", err)
	}
	if c.IsSet("category") {
		if err := rt.feeds.ApplyCategory(ctx, url, categoryByID(c.Int64("category"))); err != nil {
			return fmt.Errorf("update snapshots: %w", err)
		}
	}

	fmt.Fprintf(writer(c), "✓ Rated %s: %s\n", rating, url)
	return nil
}

func unrate(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := c.Context
	url := c.String("url")
	if err := rt.client.DeleteRating(ctx, url); err != nil {
		return err
	}

	if err := rt.feeds.Restore(ctx); err != nil {
		rt.log.Warn("snapshot restore failed", "error", err)
	}
	if err := rt.feeds.ApplyRating(ctx, url, nil); err != nil {
		return fmt.Errorf("update snapshots: %w", err)
	}

	fmt.Fprintf(writer(c), "✓ Rating removed: %s\n", url)
	return nil
}

func setCategory(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := c.Context
	url := c.String("url")
	id := c.Int64("category")
	if err := rt.client.SetPageCategory(ctx, url, id); err != nil {
		return err
	}

	category := categoryByID(id)
	if cats, err := rt.client.Categories(ctx); err == nil {
		for _, cat := range cats {
			if cat.ID == id {
				category = cat
				break
			}
		}
	} else {
		rt.log.Debug("category names unavailable", "error", err)
	}

	if err := rt.feeds.Restore(ctx); err != nil {
		rt.log.Warn("snapshot restore failed", "error", err)
	}
	if err := rt.feeds.ApplyCategory(ctx, url, category); err != nil {
		return fmt.Errorf("update snapshots: %w", err)
	}

	fmt.Fprintf(writer(c), "✓ Category set to %s: %s\n", category.Name, url)
	return nil
}

func markUnread(c *cli.Context) error {
	period, err := domain.ParseTimePeriod(c.String("time-period"))
	if err != nil {
		return err
	}

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := c.Context
	res, err := rt.client.MarkUnread(ctx, c.String("url"), period)
	if err != nil {
		return err
	}

	if err := rt.feeds.Restore(ctx); err != nil {
		rt.log.Warn("snapshot restore failed", "error", err)
	}
	if err := rt.feeds.MarkDirty(ctx); err != nil {
		return fmt.Errorf("update snapshots: %w", err)
	}

	return render(c, markUnreadResult{res})
}

type markUnreadResult struct {
	remote.MarkUnreadResult
}

func (r markUnreadResult) Table(bool) *output.Table {
	return output.Fields(
		"unread_count", strconv.Itoa(r.UnreadCount),
		"visit_discarded", strconv.FormatBool(r.VisitDiscarded),
	)
}

// categoryByID names the client sentinels; other ids keep an empty name
// until the server supplies one.
func categoryByID(id int64) domain.Category {
	switch id {
	case domain.AnyCategory.ID:
		return domain.AnyCategory
	case domain.DefaultCategory.ID:
		return domain.DefaultCategory
	}
	return domain.Category{ID: id}
}
