package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"codearch/internal/analysis"
	"codearch/internal/knowledge"
)

var (
	graphJSON   bool
	mermaid     bool
	impactLines string
	impactHops  int
	searchLimit int
)

func init() {
	graphCmd.Flags().BoolVar(&graphJSON, "json", false, "Print the call graph as JSON")
	graphCmd.Flags().BoolVar(&mermaid, "mermaid", false, "Print the call graph as a Mermaid flowchart")
	depsCmd.Flags().BoolVar(&mermaid, "mermaid", false, "Print the dependencies as a Mermaid flowchart")
	impactCmd.Flags().IntVar(&impactHops, "hops", 1, "Levels of callers and subclasses to follow")
	impactCmd.Flags().StringVar(&impactLines, "lines", "", "Comma separated changed line numbers (default: whole file)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of results (default from config)")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withService runs fn against the analysis service of the referenced repository.
func withService(cmd *cobra.Command, ref string, fn func(svc *analysis.Service, repoID string) error) error {
	store, err := initStore()
	if err != nil {
		return err
	}
	defer store.Close()

	repo, err := resolveRepository(cmd.Context(), store, ref)
	if err != nil {
		return err
	}
	return fn(analysis.NewService(store), repo.ID)
}

var graphCmd = &cobra.Command{
	Use:   "graph <repo-id|url>",
	Short: "Show the call graph of an analysed repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, args[0], func(svc *analysis.Service, repoID string) error {
			g, err := svc.CallGraph(cmd.Context(), repoID)
			if err != nil {
				return err
			}
			switch {
			case graphJSON:
				return printJSON(g)
			case mermaid:
				fmt.Print(g.Mermaid())
				return nil
			}

			names := make(map[string]string, len(g.Nodes))
			for _, n := range g.Nodes {
				names[n.ID] = n.Name
			}
			for _, e := range g.Edges {
				fmt.Printf("%s -> %s\n", names[e.Source], names[e.Target])
			}
			stats := g.Stats()
			fmt.Printf("📊 %d nodes, %d edges", stats.Nodes, stats.Edges)
			if stats.MostCalled != "" {
				fmt.Printf(", most called: %s (%d callers)", stats.MostCalled, stats.MaxInDegree)
			}
			fmt.Println()
			return nil
		})
	},
}

var depsCmd = &cobra.Command{
	Use:   "deps <repo-id|url>",
	Short: "Print the file dependency matrix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, args[0], func(svc *analysis.Service, repoID string) error {
			m, err := svc.DependencyMatrix(cmd.Context(), repoID)
			if err != nil {
				return err
			}
			if mermaid {
				fmt.Print(m.Mermaid())
				return nil
			}
			return printJSON(m)
		})
	},
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles <repo-id|url>",
	Short: "List import cycles between files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, args[0], func(svc *analysis.Service, repoID string) error {
			cycles, err := svc.Cycles(cmd.Context(), repoID)
			if err != nil {
				return err
			}
			if len(cycles) == 0 {
				fmt.Println("✅ No dependency cycles found.")
				return nil
			}
			fmt.Printf("🔄 Found %d cycle(s):\n", len(cycles))
			for _, c := range cycles {
				fmt.Printf("  -> %s\n", strings.Join(c, " -> "))
			}
			return nil
		})
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact <repo-id|url> <path>",
	Short: "Show the entities affected by a change to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := parseLines(impactLines)
		if err != nil {
			return err
		}
		return withService(cmd, args[0], func(svc *analysis.Service, repoID string) error {
			fmt.Println("🔍 Analyzing impact...")
			report, err := svc.Impact(cmd.Context(), repoID, args[1], lines, impactHops)
			if err != nil {
				return err
			}
			fmt.Printf("  -> %d entities directly affected\n", len(report.DirectlyAffected))
			for _, e := range report.DirectlyAffected {
				fmt.Printf("     %s %s (L%d-%d)\n", e.Kind, e.Name, e.StartLine, e.EndLine)
			}
			fmt.Printf("  -> %d entities indirectly affected (callers and subclasses)\n", len(report.IndirectlyAffected))
			for _, e := range report.IndirectlyAffected {
				fmt.Printf("     %s %s\n", e.Kind, e.Name)
			}
			return nil
		})
	},
}

func parseLines(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var lines []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid line number %q", part)
		}
		lines = append(lines, n)
	}
	return lines, nil
}

var searchCmd = &cobra.Command{
	Use:   "search <repo-id|url> <query>",
	Short: "Semantic search over the entities of an analysed repository",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := initStore()
		if err != nil {
			return err
		}
		defer store.Close()

		repo, err := resolveRepository(ctx, store, args[0])
		if err != nil {
			return err
		}
		embedder, err := newEmbedder(ctx)
		if err != nil {
			return err
		}
		searcher, err := knowledge.NewSearcher(embedder, store, cfg.Search.QueryCacheSize)
		if err != nil {
			return err
		}

		limit := searchLimit
		if limit <= 0 {
			limit = cfg.Search.ResultsLimit
		}
		query := strings.Join(args[1:], " ")
		results, err := searcher.Search(ctx, repo.ID, query, limit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No matches. Has the repository been analysed?")
			return nil
		}
		for i, r := range results {
			m := r.Metadata
			fmt.Printf("%d. %s %s  %s:%d-%d  (distance %.3f)\n", i+1, m.EntityKind, m.EntityName, m.FilePath, m.LineRange[0], m.LineRange[1], r.Distance)
		}
		return nil
	},
}
