package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/internal/service"
	"github.com/mdouchement/travellog/pkg/libtl"
	"github.com/pkg/errors"
)

// A Post holds the parameters of a new story.
type Post struct {
	Description string
	PhotoPath   string
	Lat         *float64
	Lon         *float64
}

// Stories prints the feed, pending stories first.
func Stories(ctx context.Context, app *App, w io.Writer) error {
	feed, err := app.Stories.Feed(ctx)
	if err != nil {
		return errors.Wrap(err, "could not fetch stories")
	}

	if feed.Cached {
		fmt.Fprintln(w, "Offline, showing cached stories")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tCREATED AT\tLOCATION\tDESCRIPTION")
	for _, story := range feed.Stories {
		id := story.ID
		if story.Offline {
			id += " (pending)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, story.Name, story.CreatedAt.Local().Format(time.DateTime), location(story.Lat, story.Lon), story.Description)
	}
	return tw.Flush()
}

// Publish submits a new story, saving it as pending when the API is unreachable.
func Publish(ctx context.Context, app *App, w io.Writer, post Post) error {
	data, err := os.ReadFile(post.PhotoPath)
	if err != nil {
		return errors.Wrap(err, "could not read photo")
	}

	submission, err := app.Stories.Submit(ctx, libtl.NewStory{
		Description: post.Description,
		Photo: libtl.Photo{
			Filename:    filepath.Base(post.PhotoPath),
			ContentType: http.DetectContentType(data),
			Data:        data,
		},
		Lat: post.Lat,
		Lon: post.Lon,
	})
	if err != nil {
		return errors.Wrap(err, "could not publish story")
	}

	if submission.Published {
		fmt.Fprintln(w, "Story published")
		return nil
	}
	fmt.Fprintf(w, "Offline, story saved as %s and will be synced later\n", submission.Pending.ID)
	return nil
}

// Pendings prints the stories waiting to be synced.
func Pendings(app *App, w io.Writer) error {
	pendings, err := app.Stories.Pendings()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED AT\tPHOTO\tLOCATION\tDESCRIPTION")
	for _, pending := range pendings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", pending.ID, pending.CreatedAt.Local().Format(time.DateTime), photo(pending.Photo), location(pending.Lat, pending.Lon), pending.Description)
	}
	return tw.Flush()
}

// Discard deletes a pending story.
func Discard(app *App, id string) error {
	return app.Stories.DeletePending(id)
}

// Sync pushes the pending stories, or only the given one.
func Sync(ctx context.Context, app *App, w io.Writer, id string) error {
	var outcomes []service.Outcome

	if id == "" {
		var err error
		if outcomes, err = app.Reconciler.Reconcile(ctx); err != nil {
			return err
		}
	} else {
		outcome, err := app.Reconciler.ReconcileOne(ctx, id)
		if err != nil {
			return err
		}
		outcomes = append(outcomes, outcome)
	}

	if len(outcomes) == 0 {
		fmt.Fprintln(w, "Nothing to sync")
		return nil
	}

	var failures int
	for _, outcome := range outcomes {
		if outcome.Success {
			fmt.Fprintf(w, "%s synced\n", outcome.RecordID)
			continue
		}
		failures++
		fmt.Fprintf(w, "%s failed: %s\n", outcome.RecordID, outcome.Error)
	}

	if failures > 0 {
		return errors.Errorf("%d/%d stories could not be synced", failures, len(outcomes))
	}
	return nil
}

// Bookmark bookmarks a cached story.
func Bookmark(app *App, w io.Writer, id string) error {
	bookmark, err := app.Stories.Bookmark(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Story of %s bookmarked\n", bookmark.Name)
	return nil
}

// Unbookmark removes a bookmark.
func Unbookmark(app *App, id string) error {
	return app.Stories.Unbookmark(id)
}

// Bookmarks prints the bookmarks.
func Bookmarks(app *App, w io.Writer) error {
	bookmarks, err := app.Stories.Bookmarks()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tBOOKMARKED AT\tDESCRIPTION")
	for _, bookmark := range bookmarks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", bookmark.ID, bookmark.Name, bookmark.BookmarkedAt.Local().Format(time.DateTime), bookmark.Description)
	}
	return tw.Flush()
}

func location(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return "-"
	}
	return strconv.FormatFloat(*lat, 'f', 4, 64) + "," + strconv.FormatFloat(*lon, 'f', 4, 64)
}

func photo(p model.Photo) string {
	return fmt.Sprintf("%s (%s, %d bytes)", p.Filename, p.ContentType, p.Size)
}
