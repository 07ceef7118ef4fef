package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"docrag/config"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/store"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "directory holding the .docrag data")
	query := flag.String("q", "", "query to test")
	limit := flag.Int("k", 10, "number of results")
	minSim := flag.Float64("min", 0, "similarity threshold")
	runs := flag.Int("runs", 20, "timed retrievals after the first")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir ./data -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Store contents and embedding model")
		fmt.Println("  2. Ranked passages with similarity ratings")
		fmt.Println("  3. Retrieval latency over repeated runs")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := embedding.FromConfig(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder not available: %v\n", err)
		os.Exit(1)
	}

	st, err := store.NewBoltStore(cfg.StoreDBPath(*dir), embedder.Dimension())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	stats, err := st.Count(ctx)
	if err != nil || stats.Chunks == 0 {
		fmt.Fprintln(os.Stderr, "No chunks stored - run 'docrag ingest' first")
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents: %d  Chunks: %d\n", stats.Documents, stats.Chunks)
	fmt.Printf("Model: %s (%s, %d dims)\n\n", embedder.ModelName(), cfg.Embedding.Provider, embedder.Dimension())

	fmt.Printf("Query: %q\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	retriever := usecase.NewRetrieveUseCase(st, embedder, nil)
	opts := port.RetrieveOptions{Limit: *limit, MinSimilarity: *minSim}

	passages, err := retriever.Retrieve(ctx, *query, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieval error: %v\n", err)
		os.Exit(1)
	}
	if len(passages) == 0 {
		fmt.Println("No passages above the threshold.")
		return
	}

	total := 0.0
	for i, p := range passages {
		preview := strings.ReplaceAll(p.Text, "\n", " ")
		if r := []rune(preview); len(r) > 150 {
			preview = string(r[:150]) + "..."
		}
		total += p.Similarity
		fmt.Printf("%d. [%s %.3f] %s\n", i+1, rating(p.Similarity), p.Similarity, p.Source())
		fmt.Printf("   %s\n\n", preview)
	}

	latencies := make([]time.Duration, 0, *runs)
	for i := 0; i < *runs; i++ {
		start := time.Now()
		if _, err := retriever.Retrieve(ctx, *query, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Retrieval error on run %d: %v\n", i+1, err)
			os.Exit(1)
		}
		latencies = append(latencies, time.Since(start))
	}

	avg := total / float64(len(passages))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avg)
	fmt.Printf("  Top-1 similarity:   %.3f\n", passages[0].Similarity)
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		fmt.Printf("LATENCY (%d runs, includes embedding call):\n", len(latencies))
		fmt.Printf("  p50: %s\n", latencies[len(latencies)/2])
		fmt.Printf("  p95: %s\n", latencies[len(latencies)*95/100])
	}
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.85:
		return "HIGH"
	case similarity > 0.75:
		return "GOOD"
	case similarity > 0.5:
		return "OK"
	default:
		return "LOW"
	}
}
