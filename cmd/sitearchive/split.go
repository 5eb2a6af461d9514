package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/sitearchive/internal/config"
	"github.com/nao1215/sitearchive/internal/document"
	seclog "github.com/nao1215/sitearchive/internal/log"
	"github.com/nao1215/sitearchive/internal/model"
	"github.com/nao1215/sitearchive/internal/pipeline"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/spf13/cobra"
)

// NewSplitCmd creates the split command.
func NewSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <master.pdf>",
		Short: "Split an existing master document into chunks",
		Long: `Split cuts a master document into chunk documents of a fixed number of
pages, without crawling the site again. Chunks from an earlier split in the
same directory are replaced.

Examples:
  # Re-split with the default chunk size
  sitearchive split example.com/all_pages.pdf

  # Use chunks of 20 pages in a separate directory
  sitearchive split example.com/all_pages.pdf -c 20 --chunks_path /tmp/chunks

  # Reject a master document that does not conform to the PDF specification
  sitearchive split example.com/all_pages.pdf --strict`,
		Args: cobra.ExactArgs(1),
		RunE: runSplitCmd,
	}

	cmd.Flags().IntP("chunk_size", "c", config.DefaultChunkSize,
		"Number of pages per chunk")
	cmd.Flags().String("chunks_path", config.DefaultChunksPath,
		"Chunk directory, relative to the directory of the master document")
	cmd.Flags().Bool("strict", false,
		"Validate the master document strictly instead of tolerating common defects")

	return cmd
}

// runSplitCmd executes the split command.
func runSplitCmd(cmd *cobra.Command, args []string) error {
	chunkSize, err := cmd.Flags().GetInt("chunk_size")
	if err != nil {
		return err
	}
	if chunkSize < 1 {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidChunkSize)
	}
	chunksPath, err := cmd.Flags().GetString("chunks_path")
	if err != nil {
		return err
	}
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return err
	}

	masterPath := args[0]
	if !filepath.IsAbs(chunksPath) {
		chunksPath = filepath.Join(filepath.Dir(masterPath), chunksPath)
	}

	logger := seclog.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))

	archive := &model.Archive{MasterPath: masterPath}
	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewSplitStep(
		document.NewSplitter(
			document.WithSplitterLogger(logger),
			document.WithConfiguration(pdfConfiguration(strict)),
		),
		chunkSize,
		chunksPath,
	))

	if err := p.Execute(cmd.Context(), archive); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Split %s (%d pages) into %d chunks:\n", masterPath, archive.MasterPages, len(archive.Chunks))
	for _, chunk := range archive.Chunks {
		fmt.Fprintf(out, "  %s\n", chunk)
	}
	return nil
}

// pdfConfiguration returns the pdfcpu settings used to read a master
// document. Relaxed mode accepts the small defects many PDF writers leave.
func pdfConfiguration(strict bool) *pdfmodel.Configuration {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	if strict {
		conf.ValidationMode = pdfmodel.ValidationStrict
	}
	return conf
}
