// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-snowball/internal/bootstrap"
	"github.com/pdiddy/citation-snowball/internal/download"
	"github.com/pdiddy/citation-snowball/internal/snowball"
	"github.com/pdiddy/citation-snowball/internal/store"
	"github.com/pdiddy/citation-snowball/pkg/types"
)

const defaultDownloadDelay = 1 * time.Second

var runCmd = &cobra.Command{
	Use:   "run [directory]",
	Short: "Run citation snowball expansion for a project",
	Long: `Run expands a project's corpus through iterative citation-graph
traversal: each iteration collects papers citing, cited by, and sharing
authors with the working set, filters and scores them, and admits the best
candidates until the corpus saturates or the iteration budget is exhausted.

The project lives in <directory>/.snowball/. Seeds are imported from
<directory>/seeds.txt on the first run when the project has none.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntP("max-iterations", "n", 0, "override the iteration budget")
	runCmd.Flags().StringP("mode", "m", "", "iteration mode (automatic, semi-automatic, manual, fixed)")
	runCmd.Flags().String("selection", "", "selection strategy (top-k, provenance-threshold)")
	runCmd.Flags().StringSliceP("keywords", "k", nil, "keyword allow-list applied to titles and abstracts")
	runCmd.Flags().String("ref-report", "", "reference-counter report to bootstrap seeds from")
	runCmd.Flags().Int("ref-rounds", 1, "bootstrap recursion rounds (later rounds admit works co-referenced by the previous round's seeds)")
	runCmd.Flags().BoolP("resume", "r", false, "continue a completed project")
	runCmd.Flags().Bool("no-download", false, "skip downloading open-access PDFs")
	runCmd.Flags().Bool("no-export", false, "skip exporting the results report")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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

	project, err := getOrCreateProject(ctx, s, dir)
	if err != nil {
		return err
	}

	resume, _ := cmd.Flags().GetBool("resume")
	if project.IsComplete {
		if !resume {
			return fmt.Errorf("project %q is already complete; pass --resume to continue", project.Name)
		}
		project.IsComplete = false
	}

	if err := applyRunOverrides(cmd, &project); err != nil {
		return err
	}
	if err := s.UpdateProject(ctx, project); err != nil {
		return err
	}

	client := newWorkSource(s)

	seeds, err := s.ListSeeds(ctx, project.ID)
	if err != nil {
		return err
	}
	refReport, _ := cmd.Flags().GetString("ref-report")
	if len(seeds) == 0 && refReport == "" {
		seedsFile := filepath.Join(dir, seedsFileName)
		if _, statErr := os.Stat(seedsFile); statErr == nil {
			fmt.Printf("Importing seeds from %s\n", seedsFile)
			if err := importSeedsFile(ctx, s, client, project.ID, seedsFile); err != nil {
				return err
			}
		}
	}

	engine := &snowball.Engine{
		Source:   client,
		Store:    s,
		Log:      s,
		Progress: os.Stdout,
	}
	refRounds, _ := cmd.Flags().GetInt("ref-rounds")
	if refReport != "" {
		engine.Bootstrap = &bootstrap.ReportSeeder{Path: refReport}
		engine.BootstrapRounds = refRounds
	} else if refRounds > 1 {
		return fmt.Errorf("--ref-rounds requires --ref-report")
	}

	metrics, err := engine.Run(ctx, project)
	if errors.Is(err, snowball.ErrNoSeeds) {
		return fmt.Errorf("no seed papers: add identifiers with `citation-snowball seeds add` or create %s", seedsFileName)
	}
	if err != nil {
		return err
	}

	// The engine persists iteration state as it goes; re-read for the
	// post-run steps.
	project, err = s.GetProject(ctx, project.ID)
	if err != nil {
		return err
	}
	total, err := s.CountPapers(ctx, project.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Run finished after iteration %d: %d papers in corpus (%d new last iteration)\n",
		project.CurrentIteration, total, metrics.NewPapers)

	if noDownload, _ := cmd.Flags().GetBool("no-download"); !noDownload {
		if err := downloadProject(ctx, s, project, dir, false); err != nil {
			return err
		}
	}
	if noExport, _ := cmd.Flags().GetBool("no-export"); !noExport {
		reportsDir := filepath.Join(dir, projectDirName, reportsDirName)
		path, err := exportProject(ctx, s, project, reportsDir, "yaml")
		if err != nil {
			return err
		}
		fmt.Printf("Exported results to %s\n", path)
	}
	return nil
}

// applyRunOverrides folds command-line flags into the project configuration.
// Overrides persist for subsequent runs.
func applyRunOverrides(cmd *cobra.Command, project *types.Project) error {
	if n, _ := cmd.Flags().GetInt("max-iterations"); n > 0 {
		project.Config.MaxIterations = n
	}
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		switch m := types.IterationMode(mode); m {
		case types.ModeAutomatic, types.ModeSemiAutomatic, types.ModeManual, types.ModeFixed:
			project.Config.IterationMode = m
		default:
			return fmt.Errorf("unknown iteration mode %q", mode)
		}
	}
	if sel, _ := cmd.Flags().GetString("selection"); sel != "" {
		switch st := types.SelectionStrategy(sel); st {
		case types.SelectTopK, types.SelectProvenance:
			project.Config.Selection = st
		default:
			return fmt.Errorf("unknown selection strategy %q", sel)
		}
	}
	if keywords, _ := cmd.Flags().GetStringSlice("keywords"); len(keywords) > 0 {
		project.Config.IncludeKeywords = keywords
	}
	return nil
}

// downloadProject fetches open-access PDFs for every paper in the project
// into <dir>/.snowball/downloads/.
func downloadProject(ctx context.Context, s *store.Store, project types.Project, dir string, retryFailed bool) error {
	papers, err := s.ListByProject(ctx, project.ID)
	if err != nil {
		return err
	}
	d := &download.Downloader{
		Client:      &http.Client{Timeout: openalexConfig().Timeout},
		Store:       s,
		Dir:         filepath.Join(dir, projectDirName, downloadsDirName),
		UserAgent:   defaultUserAgent,
		Delay:       defaultDownloadDelay,
		RetryFailed: retryFailed,
	}
	result, err := d.DownloadAll(ctx, papers, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("Downloads: %d fetched, %d skipped, %d failed\n",
		result.Downloaded, result.Skipped, result.Failed)
	return nil
}
