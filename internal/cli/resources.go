package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/usecase"
)

var (
	resourcesJSON bool
	clearConfirm  bool
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Inspect and manage stored documents",
}

var resourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested files, newest first",
	Args:  cobra.NoArgs,
	RunE:  runResourcesList,
}

var resourcesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document and all of its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runResourcesDelete,
}

var resourcesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document and chunk counts",
	Args:  cobra.NoArgs,
	RunE:  runResourcesStats,
}

var resourcesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document from the bolt store and re-stamp its schema",
	Args:  cobra.NoArgs,
	RunE:  runResourcesClear,
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
	resourcesCmd.AddCommand(resourcesListCmd, resourcesDeleteCmd, resourcesStatsCmd, resourcesClearCmd)
	resourcesListCmd.Flags().BoolVar(&resourcesJSON, "json", false, "output as JSON")
	resourcesClearCmd.Flags().BoolVar(&clearConfirm, "yes", false, "confirm deletion of all data")
}

type resourceRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

func toRows(docs []domain.Document) []resourceRow {
	rows := make([]resourceRow, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, resourceRow{
			ID:        d.ID,
			Name:      d.Provenance.Name,
			MediaType: d.Provenance.MediaType,
			Size:      d.Provenance.Size,
			CreatedAt: d.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func runResourcesList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.resourceUseCase().List(cmd.Context())
	if err != nil {
		return err
	}
	rows := toRows(docs)

	out := cmd.OutOrStdout()
	if resourcesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No files ingested yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE\tCREATED")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.MediaType, usecase.FormatSize(r.Size), r.CreatedAt)
	}
	return w.Flush()
}

func runResourcesDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	msg, err := a.resourceUseCase().Delete(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

func runResourcesStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.resourceUseCase().Stats(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Documents: %d\n", stats.Documents)
	fmt.Fprintf(out, "Chunks:    %d\n", stats.Chunks)
	fmt.Fprintf(out, "Store:     %s\n", a.cfg.Store.Driver)
	fmt.Fprintf(out, "Model:     %s (%d dims)\n", a.embedder.ModelName(), a.embedder.Dimension())
	return nil
}

// runResourcesClear opens the bolt file directly so it works even when
// the stored fingerprint no longer matches the configuration.
func runResourcesClear(cmd *cobra.Command, args []string) error {
	c := GetConfig()
	if c.Store.Driver != "bolt" {
		return fmt.Errorf("clear is only supported for the bolt store")
	}
	if !clearConfirm {
		return fmt.Errorf("this deletes every stored document; rerun with --yes to confirm")
	}

	st, err := store.NewBoltStore(c.StoreDBPath(GetRootDir()), 0)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Clear(); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	if err := st.Migrate(c); err != nil {
		return fmt.Errorf("failed to update schema info: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Store cleared.")
	return nil
}
