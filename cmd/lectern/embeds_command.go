package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lectern/internal/config"
	"lectern/internal/sheets"
)

func newEmbedsCommand(ctx *commandContext) *cobra.Command {
	embedsCmd := &cobra.Command{
		Use:   "embeds",
		Short: "Spreadsheet embed utilities",
	}
	embedsCmd.AddCommand(newEmbedsPushCommand(ctx))
	return embedsCmd
}

func newEmbedsPushCommand(ctx *commandContext) *cobra.Command {
	var fromPath string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push embed codes from a JSON document into the spreadsheet",
		Long: "Reads {\"videos\":[{\"name\":...,\"embed_code\":...}]} from --from (or stdin)\n" +
			"and fills the embed column for matching rows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			videos, err := readEmbedDocument(fromPath)
			if err != nil {
				return err
			}
			if len(videos) == 0 {
				return fmt.Errorf("document contains no videos")
			}

			client, err := ctx.sheetsClient()
			if err != nil {
				return err
			}
			result, err := client.UpdateEmbeds(cmd.Context(), videos)
			if err != nil {
				return err
			}
			printEmbedResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromPath, "from", "", "JSON document with videos (defaults to stdin)")
	return cmd
}

func readEmbedDocument(path string) ([]sheets.Video, error) {
	var reader io.Reader = os.Stdin
	if path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return nil, err
		}
		file, err := os.Open(expanded)
		if err != nil {
			return nil, fmt.Errorf("open embed document: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var doc struct {
		Videos []sheets.Video `json:"videos"`
	}
	if err := json.NewDecoder(reader).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse embed document: %w", err)
	}
	for _, video := range doc.Videos {
		if video.Name == "" || video.EmbedCode == "" {
			return nil, fmt.Errorf("each video needs name and embed_code")
		}
	}
	return doc.Videos, nil
}
