// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-snowball/internal/store"
	"github.com/pdiddy/citation-snowball/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export [directory]",
	Short: "Export project results to a report file",
	Long: `Export writes the project, its papers, and the iteration history to
a timestamped YAML or JSON report under <directory>/.snowball/reports/, or to
an explicit output path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "yaml", "report format (yaml, json)")
	exportCmd.Flags().StringP("output", "o", "", "output file (default under .snowball/reports/)")

	rootCmd.AddCommand(exportCmd)
}

// exportReport is the on-disk report shape.
type exportReport struct {
	Project    types.Project           `json:"project" yaml:"project"`
	Papers     []types.Paper           `json:"papers" yaml:"papers"`
	Iterations []store.IterationRecord `json:"iterations" yaml:"iterations"`
}

func runExport(cmd *cobra.Command, args []string) error {
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

	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown format %q (yaml, json)", format)
	}

	var path string
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		path, err = exportProjectTo(ctx, s, project, output, format)
	} else {
		path, err = exportProject(ctx, s, project, filepath.Join(dir, projectDirName, reportsDirName), format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported results to %s\n", path)
	return nil
}

// exportProject writes a timestamped report under reportsDir and returns
// its path.
func exportProject(ctx context.Context, s *store.Store, project types.Project, reportsDir, format string) (string, error) {
	name := fmt.Sprintf("%s-%s.%s", project.Name, time.Now().Format("20060102-150405"), format)
	return exportProjectTo(ctx, s, project, filepath.Join(reportsDir, name), format)
}

func exportProjectTo(ctx context.Context, s *store.Store, project types.Project, path, format string) (string, error) {
	papers, err := s.ListByProject(ctx, project.ID)
	if err != nil {
		return "", err
	}
	iterations, err := s.ListIterations(ctx, project.ID)
	if err != nil {
		return "", err
	}
	report := exportReport{
		Project:    project,
		Papers:     papers,
		Iterations: iterations,
	}

	var data []byte
	switch format {
	case "json":
		data, err = json.MarshalIndent(report, "", "  ")
	default:
		data, err = yaml.Marshal(report)
	}
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
