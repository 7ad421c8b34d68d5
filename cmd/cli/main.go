package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gohypo/domain/ra"
	"gohypo/internal/bp"
	"gohypo/internal/config"
	"gohypo/internal/fit"
	"gohypo/internal/grammar"
	"gohypo/internal/ingest"
	"gohypo/internal/ipf"
	"gohypo/internal/neighbors"
	"gohypo/internal/search"
	"gohypo/internal/testfixtures"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "gohypo-cli",
		Short: "Reconstructability Analysis engine CLI: fit, search, and enumerate models over a synthetic dataset",
	}

	rootCmd.AddCommand(
		newFitCmd(cfg),
		newSearchCmd(cfg),
		newLatticeCmd(),
		newIngestCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// dataset resolves a --dataset flag value to its variable list, observed
// table, and sample size. Every subcommand shares this so flag handling
// doesn't drift between them.
func dataset(name string) (*ra.VariableList, *ra.ContingencyTable, float64, error) {
	switch name {
	case "chain":
		vl, table, n := testfixtures.ChainFixture()
		return vl, table, n, nil
	case "triangle":
		vl, table, n := testfixtures.TriangleFixture(1008, 99)
		return vl, table, n, nil
	default:
		return nil, nil, 0, fmt.Errorf("unknown --dataset %q (want chain or triangle)", name)
	}
}

// resolveDataset prefers an ingested CSV file over the built-in synthetic
// datasets whenever --file is set, so fit/search can run against either
// source through the same flags.
func resolveDataset(datasetName, varsSpec, filePath string) (*ra.VariableList, *ra.ContingencyTable, float64, error) {
	if filePath == "" {
		return dataset(datasetName)
	}
	specs, err := parseVarsSpec(varsSpec)
	if err != nil {
		return nil, nil, 0, err
	}
	rows, counts, err := readCountedCSV(filePath, len(specs))
	if err != nil {
		return nil, nil, 0, err
	}
	return ingest.Build(ingest.Dataset{Name: filePath, Variables: specs, Rows: rows, Counts: counts})
}

// parseVarsSpec parses a comma-separated "name:abbrev:cardinality[:dep]"
// list, the --vars counterpart to a CSV file's column layout (§6 "ingest
// boundary").
func parseVarsSpec(spec string) ([]ingest.VariableSpec, error) {
	if spec == "" {
		return nil, fmt.Errorf("--vars is required when --file is set (e.g. \"A:a:2,B:b:2,C:c:2:dep\")")
	}
	fields := strings.Split(spec, ",")
	specs := make([]ingest.VariableSpec, len(fields))
	for i, field := range fields {
		parts := strings.Split(strings.TrimSpace(field), ":")
		if len(parts) < 3 {
			return nil, fmt.Errorf("malformed --vars entry %q (want name:abbrev:cardinality[:dep])", field)
		}
		cardinality, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("malformed --vars entry %q: cardinality %q is not an integer", field, parts[2])
		}
		specs[i] = ingest.VariableSpec{
			Name:        parts[0],
			Abbrev:      parts[1],
			Cardinality: cardinality,
			IsDependent: len(parts) > 3 && parts[3] == "dep",
		}
	}
	return specs, nil
}

// readCountedCSV reads numVars integer-coded columns followed by one count
// column from a CSV file.
func readCountedCSV(path string, numVars int) ([][]int, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	rows := make([][]int, len(records))
	counts := make([]float64, len(records))
	for i, record := range records {
		if len(record) != numVars+1 {
			return nil, nil, fmt.Errorf("%s line %d: expected %d columns plus a count, got %d",
				path, i+1, numVars, len(record))
		}
		row := make([]int, numVars)
		for col := 0; col < numVars; col++ {
			v, err := strconv.Atoi(strings.TrimSpace(record[col]))
			if err != nil {
				return nil, nil, fmt.Errorf("%s line %d column %d: %w", path, i+1, col, err)
			}
			row[col] = v
		}
		count, err := strconv.ParseFloat(strings.TrimSpace(record[numVars]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: count column: %w", path, i+1, err)
		}
		rows[i] = row
		counts[i] = count
	}
	return rows, counts, nil
}

// fitConfigFrom builds a fit.Config from the engine-wide defaults, so the
// CLI shares the same IPF/BP tunables an embedding service would get from
// internal/config.Load (environment-overridable via IPF_*/BP_* variables).
func fitConfigFrom(cfg *config.Config) fit.Config {
	return fit.Config{
		IPF: ipf.Config{
			MaxIterations:         cfg.IPF.MaxIterations,
			ConvergenceThreshold:  cfg.IPF.ConvergenceThreshold,
			ProgressInterval:      cfg.IPF.ProgressInterval,
			RaiseOnNonConvergence: cfg.IPF.RaiseOnNonConvergence,
		},
		BP: bp.Config{
			Normalize: cfg.BP.Normalize,
			Strict:    cfg.BP.Strict,
		},
	}
}

func newFitCmd(cfg *config.Config) *cobra.Command {
	var datasetName, varsSpec, filePath string

	cmd := &cobra.Command{
		Use:   "fit [model-name]",
		Short: "Fit one model against a dataset and print its statistics",
		Long: `Fit a model, given in canonical notation (e.g. "AB:BC"), against the
chosen synthetic dataset (or an ingested CSV file) and print the resulting
FitResult as JSON.

Example: gohypo-cli fit "AB:BC" --dataset chain
Example: gohypo-cli fit "AB:BC" --file data.csv --vars "A:a:2,B:b:2,C:c:2"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vl, table, n, err := resolveDataset(datasetName, varsSpec, filePath)
			if err != nil {
				return err
			}
			model, err := grammar.ParseModel(vl, args[0])
			if err != nil {
				return fmt.Errorf("parsing model %q: %w", args[0], err)
			}

			coordinator := fit.NewCoordinator(vl, table, n, fitConfigFrom(cfg), ra.ProgressConfig{}, fit.Ascending)
			result, err := coordinator.Fit(model)
			if err != nil {
				return fmt.Errorf("fitting %q: %w", args[0], err)
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&datasetName, "dataset", "chain", "dataset to fit against: chain or triangle (ignored if --file is set)")
	cmd.Flags().StringVar(&filePath, "file", "", "CSV file of integer-coded rows plus a trailing count column, to fit against instead of a built-in dataset")
	cmd.Flags().StringVar(&varsSpec, "vars", "", "comma-separated name:abbrev:cardinality[:dep] column specs, required with --file")
	return cmd
}

func newSearchCmd(cfg *config.Config) *cobra.Command {
	var datasetName, varsSpec, filePath, filterName, directionName, statisticName string
	var beamWidth, maxLevels int
	var parallel bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Beam search the model lattice for the best-fitting models",
		Long: `Run beam search from the independence model (ascending) or the
saturated model (descending), ranking candidates by AIC, BIC, or DDF.

Example: gohypo-cli search --dataset triangle --filter loopless --statistic bic --beam-width 3 --max-levels 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			vl, table, n, err := resolveDataset(datasetName, varsSpec, filePath)
			if err != nil {
				return err
			}
			filter, err := parseFilter(filterName)
			if err != nil {
				return err
			}
			direction, err := parseDirection(directionName)
			if err != nil {
				return err
			}
			statistic, err := parseStatistic(statisticName)
			if err != nil {
				return err
			}

			dir := fit.Ascending
			start := ra.NewModel(singletons(vl)...)
			if direction == neighbors.Descending {
				dir = fit.Descending
				start = ra.NewModel(ra.NewRelation(allIndices(vl)...))
			}

			coordinator := fit.NewCoordinator(vl, table, n, fitConfigFrom(cfg), ra.ProgressConfig{}, dir)
			result, err := search.Run(vl, coordinator, start, search.Config{
				Filter:    filter,
				Direction: direction,
				Statistic: statistic,
				BeamWidth: beamWidth,
				MaxLevels: maxLevels,
				Parallel:  parallel,
			})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			type row struct {
				Name string  `json:"name"`
				AIC  float64 `json:"aic"`
				BIC  float64 `json:"bic"`
				DDF  int     `json:"delta_df"`
			}
			rows := make([]row, len(result.Candidates))
			for i, c := range result.Candidates {
				rows[i] = row{Name: c.Name, AIC: c.Result.AIC, BIC: c.Result.BIC, DDF: c.Result.DeltaDF}
			}
			return printJSON(struct {
				TotalEvaluated int   `json:"total_evaluated"`
				Candidates     []row `json:"candidates"`
			}{result.TotalEvaluated, rows})
		},
	}

	cmd.Flags().StringVar(&datasetName, "dataset", "triangle", "dataset to search over: chain or triangle (ignored if --file is set)")
	cmd.Flags().StringVar(&filePath, "file", "", "CSV file of integer-coded rows plus a trailing count column, to search over instead of a built-in dataset")
	cmd.Flags().StringVar(&varsSpec, "vars", "", "comma-separated name:abbrev:cardinality[:dep] column specs, required with --file")
	cmd.Flags().StringVar(&filterName, "filter", "loopless", "neighbor filter: loopless, full, disjoint, or chain")
	cmd.Flags().StringVar(&directionName, "direction", "ascending", "search direction: ascending or descending")
	cmd.Flags().StringVar(&statisticName, "statistic", "bic", "ranking statistic: aic, bic, or ddf")
	cmd.Flags().IntVar(&beamWidth, "beam-width", cfg.Search.BeamWidth, "number of candidates retained per level")
	cmd.Flags().IntVar(&maxLevels, "max-levels", cfg.Search.MaxLevels, "number of levels to expand")
	cmd.Flags().BoolVar(&parallel, "parallel", cfg.Search.Parallel, "expand each level's seeds concurrently")

	return cmd
}

func newLatticeCmd() *cobra.Command {
	var datasetName string

	cmd := &cobra.Command{
		Use:   "lattice",
		Short: "Enumerate the full chain lattice for a dataset's variables",
		Long: `Print every distinct chain model over a dataset's variables, in the
deterministic order neighbors.GenerateAllChains produces them.

Example: gohypo-cli lattice --dataset triangle`,
		RunE: func(cmd *cobra.Command, args []string) error {
			vl, _, _, err := dataset(datasetName)
			if err != nil {
				return err
			}
			chains := neighbors.GenerateAllChains(vl)
			names := make([]string, len(chains))
			for i, m := range chains {
				names[i] = m.PrintName(vl)
			}
			return printJSON(struct {
				Count  int      `json:"count"`
				Chains []string `json:"chains"`
			}{len(names), names})
		},
	}

	cmd.Flags().StringVar(&datasetName, "dataset", "triangle", "dataset whose variables to enumerate over: chain or triangle")
	return cmd
}

func newIngestCmd() *cobra.Command {
	var varsSpec, filePath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load a CSV file into a contingency table and report a summary",
		Long: `Parse a CSV file of integer-coded rows plus a trailing count column into
a contingency table, and print its variable layout, sample size, and
cell-value mean/standard deviation.

Example: gohypo-cli ingest --file data.csv --vars "A:a:2,B:b:2,C:c:2"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			vl, table, n, err := resolveDataset("", varsSpec, filePath)
			if err != nil {
				return err
			}
			mean, stdDev, err := testfixtures.DescribeCellValues(table)
			if err != nil {
				return fmt.Errorf("describing cell values: %w", err)
			}

			type variableRow struct {
				Name        string `json:"name"`
				Abbrev      string `json:"abbrev"`
				Cardinality int    `json:"cardinality"`
				IsDependent bool   `json:"is_dependent"`
			}
			vars := vl.Variables()
			varRows := make([]variableRow, len(vars))
			for i, v := range vars {
				varRows[i] = variableRow{Name: v.FullName, Abbrev: v.Abbrev, Cardinality: v.Cardinality, IsDependent: v.IsDependent}
			}

			return printJSON(struct {
				Variables  []variableRow `json:"variables"`
				N          float64       `json:"n"`
				CellCount  int           `json:"cell_count"`
				CellMean   float64       `json:"cell_mean"`
				CellStdDev float64       `json:"cell_std_dev"`
				StateSpace int64         `json:"state_space_size"`
			}{varRows, n, len(table.Tuples), mean, stdDev, vl.StateSpaceSize()})
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "CSV file of integer-coded rows plus a trailing count column")
	cmd.Flags().StringVar(&varsSpec, "vars", "", "comma-separated name:abbrev:cardinality[:dep] column specs")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("vars")
	return cmd
}

func parseFilter(s string) (neighbors.Filter, error) {
	switch s {
	case "loopless":
		return neighbors.Loopless, nil
	case "full":
		return neighbors.Full, nil
	case "disjoint":
		return neighbors.Disjoint, nil
	case "chain":
		return neighbors.Chain, nil
	default:
		return 0, fmt.Errorf("unknown --filter %q (want loopless, full, disjoint, or chain)", s)
	}
}

func parseDirection(s string) (neighbors.Direction, error) {
	switch s {
	case "ascending":
		return neighbors.Ascending, nil
	case "descending":
		return neighbors.Descending, nil
	default:
		return 0, fmt.Errorf("unknown --direction %q (want ascending or descending)", s)
	}
}

func parseStatistic(s string) (search.Statistic, error) {
	switch s {
	case "aic":
		return search.AIC, nil
	case "bic":
		return search.BIC, nil
	case "ddf":
		return search.DDF, nil
	default:
		return 0, fmt.Errorf("unknown --statistic %q (want aic, bic, or ddf)", s)
	}
}

func singletons(vl *ra.VariableList) []ra.Relation {
	out := make([]ra.Relation, vl.Len())
	for i := range out {
		out[i] = ra.NewRelation(i)
	}
	return out
}

func allIndices(vl *ra.VariableList) []int {
	out := make([]int, vl.Len())
	for i := range out {
		out[i] = i
	}
	return out
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
