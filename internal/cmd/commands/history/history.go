package history

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Zheaoli/hexo-algoliasearch/internal/cmd/base"
	"github.com/Zheaoli/hexo-algoliasearch/internal/config"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/database"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/models"
)

type Command struct {
	*base.Command

	flagConfig string
	flagLimit  int
	flagID     string
}

func (c *Command) Synopsis() string {
	return "List recent sync runs"
}

func (c *Command) Help() string {
	return `Usage: hexo-algoliasearch history [options]

  This command lists the most recent sync runs recorded in the history
  database, newest first, followed by the last successful run. With -id it
  shows a single run in full. Only the history block of the configuration
  is read, so no search backend credentials are needed.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("history", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "_config.yml",
		"Path to the `file` to load.",
	)
	f.IntVar(
		&c.flagLimit, "limit", 10,
		"Number of runs to show.",
	)
	f.StringVar(
		&c.flagID, "id", "",
		"Show the run with this `ID` instead of listing runs.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagLimit < 1 {
		ui.Error("limit must be at least 1")
		return 1
	}

	var id uuid.UUID
	if c.flagID != "" {
		parsed, err := uuid.Parse(c.flagID)
		if err != nil {
			ui.Error(fmt.Sprintf("invalid run ID %q: %v", c.flagID, err))
			return 1
		}
		id = parsed
	}

	history, err := config.LoadHistory(c.flagConfig)
	if errors.Is(err, config.ErrHistoryNotConfigured) {
		ui.Error("run history is not configured, add a history block to the config")
		return 1
	}
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}

	db, err := database.Connect(database.Config{
		Driver: history.Driver,
		DSN:    history.DSN,
	}, c.Log.Named("history"))
	if err != nil {
		ui.Error(fmt.Sprintf("error connecting to history database: %v", err))
		return 1
	}
	defer database.Close(db)

	if id != uuid.Nil {
		run := models.SyncRun{ID: id}
		if err := run.Get(db); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ui.Error(fmt.Sprintf("no sync run with ID %s", id))
				return 1
			}
			ui.Error(fmt.Sprintf("error getting run: %v", err))
			return 1
		}
		ui.Output(formatRun(run))
		return 0
	}

	var runs models.SyncRuns
	if err := runs.FindRecent(db, c.flagLimit); err != nil {
		ui.Error(fmt.Sprintf("error listing runs: %v", err))
		return 1
	}

	if len(runs) == 0 {
		ui.Info("No sync runs recorded")
		return 0
	}

	ui.Output(formatRuns(runs))

	var last models.SyncRun
	switch err := last.LastSucceeded(db); {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ui.Info("No successful sync run recorded")
	case err != nil:
		ui.Error(fmt.Sprintf("error finding last successful run: %v", err))
		return 1
	default:
		ui.Info(fmt.Sprintf("Last successful run: %s (%s)",
			last.StartedAt.Local().Format(time.DateTime), last.ID))
	}
	return 0
}

func formatRun(r models.SyncRun) string {
	finished := "-"
	if r.FinishedAt != nil {
		finished = r.FinishedAt.Local().Format(time.DateTime)
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", r.ID)
	fmt.Fprintf(w, "Status:\t%s\n", r.Status)
	fmt.Fprintf(w, "Backend:\t%s\n", r.Backend)
	fmt.Fprintf(w, "Index:\t%s\n", r.IndexName)
	fmt.Fprintf(w, "Started:\t%s\n", r.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Finished:\t%s\n", finished)
	fmt.Fprintf(w, "Duration:\t%s\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "Posts:\t%d\n", r.Posts)
	fmt.Fprintf(w, "Pages:\t%d\n", r.Pages)
	fmt.Fprintf(w, "Documents:\t%d\n", r.Documents)
	fmt.Fprintf(w, "Chunks:\t%d\n", r.Chunks)
	fmt.Fprintf(w, "Cleared:\t%t\n", r.Cleared)
	if r.Error != "" {
		fmt.Fprintf(w, "Error:\t%s\n", r.Error)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func formatRuns(runs models.SyncRuns) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tBACKEND\tINDEX\tPOSTS\tPAGES\tDOCS\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.ID.String()[:8],
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			r.Backend,
			r.IndexName,
			r.Posts,
			r.Pages,
			r.Documents,
			r.Duration().Round(time.Millisecond),
			r.Error,
		)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}
