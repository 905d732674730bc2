// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

var resultsCmd = &cobra.Command{
	Use:   "results [directory]",
	Short: "Show a project's collected papers",
	Long: `Results lists the project corpus ranked by score. Seeds carry no
score and sort last under score ordering.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().String("sort", "score", "sort order (score, year, citations)")
	resultsCmd.Flags().Int("limit", 0, "maximum rows to show (0 = all)")
	resultsCmd.Flags().String("format", "table", "output format (table, json)")

	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir, err := resolveDir(args)
	if err != nil {
		return err
	}
	s, err := openProjectStore(dir)
	if err != nil {
		return err
	}
	defer s.Close()

	project, err := getProject(ctx, s, dir)
	if err != nil {
		return err
	}
	papers, err := s.ListByProject(ctx, project.ID)
	if err != nil {
		return err
	}

	sortKey, _ := cmd.Flags().GetString("sort")
	if err := sortPapers(papers, sortKey); err != nil {
		return err
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table":
		printPapersTable(papers)
		if rec, err := s.LastCompletedIteration(ctx, project.ID); err == nil {
			fmt.Printf("Last completed iteration: %d (%s)\n",
				rec.IterationNumber, rec.CompletedAt.Format("2006-01-02 15:04"))
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(papers)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func sortPapers(papers []types.Paper, key string) error {
	switch key {
	case "score":
		sort.SliceStable(papers, func(i, j int) bool {
			return papers[i].Score > papers[j].Score
		})
	case "year":
		sort.SliceStable(papers, func(i, j int) bool {
			return papers[i].PublicationYear > papers[j].PublicationYear
		})
	case "citations":
		sort.SliceStable(papers, func(i, j int) bool {
			return papers[i].CitedByCount > papers[j].CitedByCount
		})
	default:
		return fmt.Errorf("unknown sort key %q (score, year, citations)", key)
	}
	return nil
}

func printPapersTable(papers []types.Paper) {
	if len(papers) == 0 {
		fmt.Println("No papers collected.")
		return
	}
	fmt.Printf("%-12s %-8s %4s %9s %5s  %s\n",
		"OPENALEX", "METHOD", "YEAR", "CITATIONS", "SCORE", "TITLE")
	for _, p := range papers {
		title := p.Title
		if len(title) > 70 {
			title = title[:67] + "..."
		}
		fmt.Printf("%-12s %-8s %4s %9d %5.2f  %s\n",
			p.OpenAlexID, methodLabel(p.DiscoveryMethod), formatYear(p.PublicationYear),
			p.CitedByCount, p.Score, title)
	}
	fmt.Printf("\n%d paper(s)\n", len(papers))
}

func methodLabel(m types.DiscoveryMethod) string {
	if m == "" {
		return string(types.DiscoverySeed)
	}
	return string(m)
}
