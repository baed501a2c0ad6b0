package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"finhealth/internal/catalog"
	"finhealth/internal/engine"
	"finhealth/internal/model"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fhctl",
		Short: "Financial health catalog and scoring tool",
		Long: `fhctl works with catalog files offline.

Examples:
  fhctl init catalog.yaml                          # write the base questionnaire
  fhctl validate catalog.yaml                      # check a catalog before deploying it
  fhctl assemble -c catalog.yaml -p profile.json   # show the questions a respondent would get
  fhctl score -c catalog.yaml resp1.json resp2.json`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCmd(), newValidateCmd(), newAssembleCmd(), newScoreCmd())
	return rootCmd
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init <file>",
		Short: "Write the base questionnaire as a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := catalog.WriteFile(path, engine.DefaultCatalog()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.NewFileSource(args[0]).Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var catalogErr *engine.CatalogError
			if err := engine.ValidateCatalog(c); errors.As(err, &catalogErr) {
				for _, problem := range catalogErr.Problems {
					fmt.Fprintf(out, "  - %s\n", problem)
				}
				return fmt.Errorf("%s: %d problem(s)", args[0], len(catalogErr.Problems))
			} else if err != nil {
				return err
			}

			snap := engine.NewSnapshot(c)
			fmt.Fprintf(out, "%s: ok (version %s)\n", args[0], snap.Version())
			printStats(out, snap.Stats())
			return nil
		},
	}
}

func newAssembleCmd() *cobra.Command {
	var (
		catalogFile string
		profileFile string
		lang        string
		companyID   string
	)
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Print the question set a respondent would receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd, catalogFile)
			if err != nil {
				return err
			}

			var profile model.RespondentProfile
			if profileFile != "" {
				if err := readJSON(profileFile, &profile); err != nil {
					return err
				}
			}

			set, err := snap.Assemble(profile, model.Language(lang), companyID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), set)
		},
	}
	cmd.Flags().StringVarP(&catalogFile, "catalog", "c", "catalog.yaml", "Catalog file")
	cmd.Flags().StringVarP(&profileFile, "profile", "p", "", "Respondent profile JSON file")
	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "Language (en or ar)")
	cmd.Flags().StringVar(&companyID, "company", "", "Company id")
	return cmd
}

// scoreOutput is one line of `fhctl score` output
type scoreOutput struct {
	File  string                  `json:"file"`
	Score *model.ScoreCalculation `json:"score,omitempty"`
	Error string                  `json:"error,omitempty"`
}

func newScoreCmd() *cobra.Command {
	var catalogFile string
	cmd := &cobra.Command{
		Use:   "score <response.json>...",
		Short: "Score response files against a catalog",
		Long: `Each file holds a survey response with its profile, language and company.
Questions are assembled for that respondent and the answers scored against them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd, catalogFile)
			if err != nil {
				return err
			}

			outputs := make([]scoreOutput, len(args))
			var requests []engine.ScoreRequest
			var index []int
			for i, path := range args {
				outputs[i].File = path

				var resp model.SurveyResponse
				if err := readJSON(path, &resp); err != nil {
					outputs[i].Error = err.Error()
					continue
				}
				if resp.Language == "" {
					resp.Language = model.LanguageEnglish
				}
				set, err := snap.Assemble(resp.Profile, resp.Language, resp.CompanyID)
				if err != nil {
					outputs[i].Error = err.Error()
					continue
				}
				requests = append(requests, engine.ScoreRequest{Questions: set.Questions, Response: resp})
				index = append(index, i)
			}

			results, err := engine.NewScorer(nil).ScoreBatch(cmd.Context(), requests)
			if err != nil {
				return err
			}
			failed := 0
			for j, result := range results {
				i := index[j]
				if result.Err != nil {
					outputs[i].Error = result.Err.Error()
					continue
				}
				result.Score.ResponseID = requests[j].Response.ID
				result.Score.CatalogVersion = snap.Version()
				outputs[i].Score = result.Score
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, o := range outputs {
				if o.Error != "" {
					failed++
				}
				if err := enc.Encode(o); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d response(s) could not be scored", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&catalogFile, "catalog", "c", "catalog.yaml", "Catalog file")
	return cmd
}

func loadSnapshot(cmd *cobra.Command, path string) (*engine.Snapshot, error) {
	c, err := catalog.NewFileSource(path).Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	if err := engine.ValidateCatalog(c); err != nil {
		return nil, err
	}
	return engine.NewSnapshot(c), nil
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(w io.Writer, stats map[string]int) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-14s %d\n", k, stats[k])
	}
}
