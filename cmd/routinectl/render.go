package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/Lllllllleong/routinesharing/internal/routines"
)

func renderSummaries(w io.Writer, summaries []routines.SessionSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No routines shared yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTITLE\tDAYS\tITEMS\tLIKES\tUPLOADED")
	for _, s := range summaries {
		likes := fmt.Sprintf("%d", s.Likes)
		if s.LikedToday {
			likes += " ♥"
		}
		uploaded := "-"
		if !s.LatestUpload.IsZero() {
			uploaded = s.LatestUpload.Local().Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", s.Key, s.Title, s.DayCount, s.ItemCount, likes, uploaded)
	}
	_ = tw.Flush()
}

func renderDetail(w io.Writer, d routines.SessionDetail, all bool) {
	fmt.Fprintf(w, "%s  (%d likes)\n", d.Title, d.Likes)
	for _, day := range d.Days {
		fmt.Fprintf(w, "\n%s  %d\n", day.Day, day.Total)
		items := day.Visible
		if all {
			items = append(append([]routines.DayItem(nil), day.Visible...), day.Hidden...)
		}
		for _, it := range items {
			fmt.Fprintf(w, "  [%s] %d. %s\n", it.TimeType, it.Order, it.Name)
		}
		if day.Folded && !all {
			fmt.Fprintf(w, "  ... %d more (--all)\n", day.HiddenCount)
		}
	}
}

func renderDraft(w io.Writer, d *routines.Draft, replacing string) {
	if replacing != "" {
		fmt.Fprintf(w, "Editing %s; submit replaces it.\n", replacing)
	}
	if d.Title != "" {
		fmt.Fprintf(w, "Title: %s\n", d.Title)
	}
	entries := d.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(w, "The draft is empty.")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, e.DayOfWeek, e.TimeType)
		for _, r := range e.Routines {
			fmt.Fprintf(w, "     %d. %s\n", r.Order, r.Name)
		}
	}
}

func renderBatch(w io.Writer, r routines.BatchResult) {
	if r.Total == 0 {
		return
	}
	if r.Complete() {
		fmt.Fprintf(w, "Uploaded %d documents as %s.\n", r.Total, r.UploadID)
		return
	}
	fmt.Fprintf(w, "Uploaded %d of %d documents as %s before failing. The draft was kept.\n", len(r.Written), r.Total, r.UploadID)
}
