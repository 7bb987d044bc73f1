package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
)

// cliUserID attributes searches recorded from the command line
const cliUserID = "cli:local"

// Execute searches every configured source for the query.
func (c *SearchCommand) Execute(args []string) error {
	query, err := joinArgs(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	repos, uc, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	ctx := context.Background()
	groups, stats, err := uc.Aggregator.SearchWithStats(ctx, query, c.Limit)
	if err != nil {
		return err
	}

	if c.Save {
		saved, err := uc.Group.SaveResults(ctx, groups)
		if err != nil {
			fmt.Printf("[CLI] Saved %d/%d groups: %v\n", saved, len(groups), err)
		}
		if err := uc.Group.RecordSearch(ctx, cliUserID, query, len(groups)); err != nil {
			fmt.Printf("[CLI] Failed to record search: %v\n", err)
		}
	}

	if c.globals.JSON {
		return writeJSON(c.out, map[string]interface{}{
			"query":  query,
			"groups": nonNil(groups),
			"stats":  stats,
		})
	}

	fmt.Fprintf(c.out, "%d groups for %q (%d sources, %d failed)\n", len(groups), query, stats.Sources, stats.Failed)
	printGroups(c.out, groups, time.Now())
	return nil
}

// Execute prints stored groups matching the fragment.
func (c *SavedCommand) Execute(args []string) error {
	query, err := joinArgs(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	repos, uc, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	groups, err := uc.Group.Saved(context.Background(), query, c.Limit)
	if err != nil {
		return err
	}

	if c.globals.JSON {
		return writeJSON(c.out, map[string]interface{}{
			"query":  query,
			"groups": nonNil(groups),
		})
	}

	fmt.Fprintf(c.out, "%d saved groups matching %q\n", len(groups), query)
	printGroups(c.out, groups, time.Now())
	return nil
}

func printGroups(w io.Writer, groups []*domain.Group, now time.Time) {
	for i, g := range groups {
		fmt.Fprintf(w, "%2d. %s", i+1, g.Title)
		if g.Username != "" {
			fmt.Fprintf(w, " (@%s)", g.Username)
		}
		fmt.Fprintln(w)

		if g.Members != "" {
			fmt.Fprintf(w, "    members: %s\n", g.Members)
		}
		if link := g.Link(); link != "" {
			fmt.Fprintf(w, "    %s\n", link)
		}
		if !g.FoundAt.IsZero() {
			fmt.Fprintf(w, "    found %s via %s\n", humanize.RelTime(g.FoundAt, now, "ago", "from now"), g.Source)
		}
	}
}

func nonNil(groups []*domain.Group) []*domain.Group {
	if groups == nil {
		return []*domain.Group{}
	}
	return groups
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
