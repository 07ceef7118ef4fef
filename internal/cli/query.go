package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var (
	queryText          string
	queryLimit         int
	queryMinSimilarity float64
	queryJSON          bool
	queryInteractive   bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve the passages most similar to a query",
	Long: `Embed the query and return stored passages ranked by cosine similarity.
Only passages scoring strictly above the minimum similarity are returned.

Examples:
  docrag query -q "refund window"
  docrag query -q "refund window" -k 8 --min-similarity 0.7 --json
  docrag query --interactive`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "k", 0, "maximum results (default from config)")
	queryCmd.Flags().Float64Var(&queryMinSimilarity, "min-similarity", 0, "similarity threshold (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVarP(&queryInteractive, "interactive", "i", false, "read queries from stdin, one per line")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryText == "" && !queryInteractive {
		return fmt.Errorf("a query is required: use -q or --interactive")
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	opts := port.RetrieveOptions{
		Limit:         a.cfg.Retrieve.Limit,
		MinSimilarity: a.cfg.Retrieve.MinSimilarity,
	}
	if queryLimit > 0 {
		opts.Limit = queryLimit
	}
	if cmd.Flags().Changed("min-similarity") {
		opts.MinSimilarity = queryMinSimilarity
	}

	out := cmd.OutOrStdout()
	if !queryInteractive {
		return runOneQuery(cmd.Context(), out, a.retriever(false), queryText, opts)
	}

	retriever := a.retriever(true)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := runOneQuery(cmd.Context(), out, retriever, line, opts); err != nil {
			fmt.Fprintf(out, "Error: %s\n", domain.Message(err, "Error, please try again."))
		}
	}
	return scanner.Err()
}

func runOneQuery(ctx context.Context, out io.Writer, r port.Retriever, query string, opts port.RetrieveOptions) error {
	passages, err := r.Retrieve(ctx, query, opts)
	if err != nil {
		return err
	}
	if queryJSON {
		if passages == nil {
			passages = []domain.Passage{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(passages)
	}
	printPassages(out, query, passages)
	return nil
}

func printPassages(out io.Writer, query string, passages []domain.Passage) {
	if len(passages) == 0 {
		fmt.Fprintln(out, "No results found.")
		return
	}

	header := color.New(color.FgCyan, color.Bold)
	high := color.New(color.FgGreen)
	low := color.New(color.FgYellow)

	fmt.Fprintf(out, "Found %d results for: %s\n\n", len(passages), query)
	for i, p := range passages {
		score := low
		if p.Similarity >= 0.8 {
			score = high
		}
		header.Fprintf(out, "--- [%d] %s ", i+1, p.Source())
		score.Fprintf(out, "(similarity: %.3f)", p.Similarity)
		header.Fprintln(out, " ---")

		text := p.Text
		if runes := []rune(text); len(runes) > 500 {
			text = string(runes[:500]) + "..."
		}
		fmt.Fprintln(out, text)
		fmt.Fprintln(out)
	}
}
