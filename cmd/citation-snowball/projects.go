// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects [directory]",
	Short: "List projects in a directory's database",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, args []string) error {
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

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects.")
		return nil
	}

	fmt.Printf("%-20s %-10s %-9s %s\n", "NAME", "ITERATION", "COMPLETE", "CREATED")
	for _, p := range projects {
		papers, err := s.CountPapers(ctx, p.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %-10d %-9t %s  (%d papers)\n",
			p.Name, p.CurrentIteration, p.IsComplete, p.CreatedAt.Format("2006-01-02"), papers)
	}
	return nil
}
