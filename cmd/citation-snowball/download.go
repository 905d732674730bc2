// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download [directory]",
	Short: "Download open-access PDFs for collected papers",
	Long: `Download fetches the open-access PDF for every paper that has one,
into <directory>/.snowball/downloads/. Papers already downloaded are skipped;
pass --retry-failed to re-attempt earlier failures.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().Bool("retry-failed", false, "re-attempt papers whose download failed")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
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

	retryFailed, _ := cmd.Flags().GetBool("retry-failed")
	return downloadProject(ctx, s, project, dir, retryFailed)
}
