// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-snowball/internal/openalex"
	"github.com/pdiddy/citation-snowball/internal/store"
	"github.com/pdiddy/citation-snowball/pkg/types"
)

var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "Manage a project's seed papers",
}

var seedsAddCmd = &cobra.Command{
	Use:   "add [identifiers...]",
	Short: "Add seed papers by DOI, OpenAlex id, or title",
	Long: `Add resolves each identifier against OpenAlex and records the work
as a seed. Identifiers may be DOIs (10.xxxx/... or doi.org URLs), OpenAlex
work ids (W...), or free-text titles.`,
	RunE: runSeedsAdd,
}

var seedsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a project's seed papers",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSeedsList,
}

func init() {
	seedsAddCmd.Flags().String("dir", ".", "project directory")

	seedsCmd.AddCommand(seedsAddCmd)
	seedsCmd.AddCommand(seedsListCmd)
	rootCmd.AddCommand(seedsCmd)
}

func runSeedsAdd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more identifiers (DOIs, OpenAlex ids, or titles)")
	}
	ctx := cmd.Context()

	dirFlag, _ := cmd.Flags().GetString("dir")
	dir, err := resolveDir([]string{dirFlag})
	if err != nil {
		return err
	}
	s, err := openProjectStore(dir)
	if err != nil {
		return err
	}
	defer s.Close()

	project, err := getOrCreateProject(ctx, s, dir)
	if err != nil {
		return err
	}
	client := newWorkSource(s)

	var failed int
	for _, id := range args {
		if err := addSeed(ctx, s, client, project.ID, id); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", id, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d identifier(s) could not be added", failed)
	}
	return nil
}

func runSeedsList(cmd *cobra.Command, args []string) error {
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
	seeds, err := s.ListSeeds(ctx, project.ID)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		fmt.Println("No seed papers.")
		return nil
	}
	for _, p := range seeds {
		fmt.Printf("%-12s %4s  %s\n", p.OpenAlexID, formatYear(p.PublicationYear), p.Title)
	}
	return nil
}

// addSeed resolves one identifier and records it as a seed paper.
func addSeed(ctx context.Context, s *store.Store, client *openalex.Client, projectID, identifier string) error {
	work, err := resolveSeed(ctx, client, identifier)
	if err != nil {
		return err
	}
	paper := types.FromWork(work)
	stored, created, err := s.CreateOrGetPaper(ctx, projectID, paper)
	if err != nil {
		return err
	}
	if !created {
		fmt.Printf("Already present: %s (%s)\n", stored.Title, stored.OpenAlexID)
		return nil
	}
	fmt.Printf("Added seed: %s (%s)\n", stored.Title, stored.OpenAlexID)
	return nil
}

// resolveSeed maps an identifier to an OpenAlex work. DOIs and work ids
// resolve directly; anything else is treated as a title search, taking the
// best match.
func resolveSeed(ctx context.Context, client *openalex.Client, identifier string) (types.Work, error) {
	id := strings.TrimSpace(identifier)
	switch {
	case isDOI(id):
		return client.SearchByDOI(ctx, openalex.CleanDOI(id))
	case isWorkID(id):
		return client.GetWork(ctx, openalex.CleanWorkID(id))
	default:
		works, err := client.SearchByTitle(ctx, id)
		if err != nil {
			return types.Work{}, err
		}
		if len(works) == 0 {
			return types.Work{}, fmt.Errorf("no OpenAlex match for title %q", id)
		}
		return works[0], nil
	}
}

func isDOI(id string) bool {
	return strings.HasPrefix(id, "10.") ||
		strings.Contains(id, "doi.org/")
}

func isWorkID(id string) bool {
	cleaned := openalex.CleanWorkID(id)
	if len(cleaned) < 2 || cleaned[0] != 'W' {
		return false
	}
	for _, r := range cleaned[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// importSeedsFile adds one seed per non-blank line; lines starting with #
// are comments. Unresolvable lines warn and are skipped.
func importSeedsFile(ctx context.Context, s *store.Store, client *openalex.Client, projectID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := addSeed(ctx, s, client, projectID, line); err != nil {
			if errors.Is(err, openalex.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "warning: %s: not found on OpenAlex\n", line)
				continue
			}
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", line, err)
		}
	}
	return scanner.Err()
}

func formatYear(year int) string {
	if year == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", year)
}
