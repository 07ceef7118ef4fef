package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/internal/port"
	"docrag/internal/usecase"
)

var (
	ingestStdin     bool
	ingestName      string
	ingestMediaType string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add content to the store",
	Long: `Chunk, embed and store text.

Examples:
  docrag ingest text "Refunds are issued within 14 days."
  echo "piped text" | docrag ingest text --stdin
  docrag ingest file policy.md --name "Refund policy"
  docrag ingest dir ./docs`,
}

var ingestTextCmd = &cobra.Command{
	Use:   "text [content]",
	Short: "Ingest raw text",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIngestText,
}

var ingestFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Ingest a text file, recording its name, type and size",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestFile,
}

var ingestDirCmd = &cobra.Command{
	Use:   "dir <path>",
	Short: "Ingest every file matching the configured patterns",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestDir,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestTextCmd, ingestFileCmd, ingestDirCmd)

	ingestTextCmd.Flags().BoolVar(&ingestStdin, "stdin", false, "read content from stdin")
	ingestFileCmd.Flags().StringVar(&ingestName, "name", "", "display name (default is the file name)")
	ingestFileCmd.Flags().StringVar(&ingestMediaType, "type", "", "media type (default is detected)")
}

func runIngestText(cmd *cobra.Command, args []string) error {
	var content string
	switch {
	case ingestStdin:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	case len(args) == 1:
		content = args[0]
	default:
		return fmt.Errorf("provide content as an argument or use --stdin")
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.ingestUseCase().Ingest(cmd.Context(), content, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
	return nil
}

func runIngestFile(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.ingestUseCase().IngestFile(cmd.Context(), usecase.FileRequest{
		Path:      args[0],
		Name:      ingestName,
		MediaType: ingestMediaType,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
	return nil
}

func runIngestDir(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning %s...\n", path)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	start := time.Now()
	result, err := a.ingestUseCase().IngestDir(cmd.Context(), path, func(f port.FileInfo, _ error) {
		bar.Describe(fmt.Sprintf("[cyan]Ingesting[reset] %s", filepath.Base(f.Path)))
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(out, "\nIngestion complete in %s:\n", formatDuration(time.Since(start)))
	fmt.Fprintf(out, "  Files ingested: %d\n", result.FilesIngested)
	fmt.Fprintf(out, "  Files failed:   %d\n", result.FilesFailed)
	fmt.Fprintf(out, "  Chunks created: %d\n", result.ChunksCreated)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n  - %s\n", strings.Join(result.Errors, "\n  - "))
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
