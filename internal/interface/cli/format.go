package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/dustin/go-humanize"
	"github.com/neilberkman/dmclient/internal/core/archive"
	"github.com/neilberkman/dmclient/internal/core/db"
	"github.com/neilberkman/dmclient/internal/core/models"
	"github.com/neilberkman/dmclient/internal/core/schema"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// loadArchive loads archive metadata, logging why a load failed at debug
// level and returning the user-facing message.
func loadArchive(path string) (*models.ArchiveMeta, error) {
	meta, err := archive.Load(path)
	if err == nil {
		return meta, nil
	}

	var verrs schema.ValidationErrors
	var invalid *archive.InvalidArchiveMetadataError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			logger.Debug("invalid field", "path", path, "field", fe.Field, "reason", fe.Reason, "detail", fe.Detail)
		}
	case errors.As(err, &invalid):
		logger.Debug("load failure", "path", path, "cause", invalid.Cause)
	}

	return nil, fmt.Errorf("not a valid campaign archive: %s", path)
}

func openCatalog() (*db.DB, error) {
	database, err := db.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return database, nil
}

// inspectData builds the mustache context for the inspect template
func inspectData(meta *models.ArchiveMeta, now time.Time) map[string]interface{} {
	data := map[string]interface{}{
		"id":             meta.ID.String(),
		"game_system_id": meta.GameSystemID,
		"name":           meta.Name,
		"description":    meta.Description,
		"author":         meta.Author,
		"isbn":           meta.ISBN,
		"path":           meta.LastSeenPath,
	}
	if meta.CreationDate != nil {
		data["created"] = formatDate(*meta.CreationDate)
		data["created_ago"] = humanize.RelTime(*meta.CreationDate, now, "ago", "from now")
	}
	if meta.RevisionDate != nil {
		data["revised"] = formatDate(*meta.RevisionDate)
		data["revised_ago"] = humanize.RelTime(*meta.RevisionDate, now, "ago", "from now")
	}
	return data
}

func renderInspect(tmpl string, meta *models.ArchiveMeta, now time.Time) (string, error) {
	out, err := mustache.Render(tmpl, inspectData(meta, now))
	if err != nil {
		return "", fmt.Errorf("failed to render inspect template: %w", err)
	}
	return out, nil
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}

// parseSince turns "last week", "yesterday" or an ISO 8601 date into a time
func parseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}

	if t, err := schema.ParseISO8601(s); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(s, now)
	if err == nil && result != nil {
		return result.Time, nil
	}

	return time.Time{}, fmt.Errorf("could not understand date %q", s)
}

// truncate collapses whitespace and shortens s to maxLen runes at a word break
func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	truncated := runes[:maxLen]
	for i := len(truncated) - 1; i > maxLen-20 && i > 0; i-- {
		if truncated[i] == ' ' {
			truncated = truncated[:i]
			break
		}
	}

	return string(truncated) + "..."
}

func printArchive(i int, rec db.ArchiveRecord) {
	name := rec.Meta.Name
	if name == "" {
		name = "(untitled)"
	}
	fmt.Printf("[%d] %s %s\n", i, titleStyle.Render(name), systemStyle.Render("["+rec.Meta.GameSystemID+"]"))
	fmt.Printf("    ID:   %s\n", rec.Meta.ID)
	if rec.Meta.Description != "" {
		fmt.Printf("    %s\n", truncate(rec.Meta.Description, 80))
	}
	if rec.Meta.Author != "" {
		fmt.Printf("    By:   %s\n", rec.Meta.Author)
	}
	if rec.Meta.LastSeenPath != "" {
		fmt.Println(metaStyle.Render("    Path: " + rec.Meta.LastSeenPath))
	}
	if rec.Meta.RevisionDate != nil {
		fmt.Println(metaStyle.Render("    Revised " + humanize.Time(*rec.Meta.RevisionDate)))
	} else if rec.Meta.CreationDate != nil {
		fmt.Println(metaStyle.Render("    Created " + humanize.Time(*rec.Meta.CreationDate)))
	}
	fmt.Println()
}
