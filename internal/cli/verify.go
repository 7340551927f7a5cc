package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chargingthefuture/linkproof/internal/engine"
	"github.com/chargingthefuture/linkproof/internal/model"
	"github.com/chargingthefuture/linkproof/internal/store"
)

var (
	verifyAnswer     string
	verifyAnswerFile string
)

// verifyCmd runs the verification pipeline once against an in-memory store
// and prints the resulting provenance records and scores.
var verifyCmd = &cobra.Command{
	Use:   "verify <url> [url...]",
	Short: "Verify cited links against an answer text",
	Long: `Fetch each URL, score its domain, measure similarity against the
answer text, and print the provenance records with the aggregate
verification score. Runs against a throwaway in-memory store; nothing is
persisted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		answerText := verifyAnswer
		if verifyAnswerFile != "" {
			data, err := os.ReadFile(verifyAnswerFile)
			if err != nil {
				return fmt.Errorf("read answer file: %w", err)
			}
			answerText = string(data)
		}
		if strings.TrimSpace(answerText) == "" {
			return fmt.Errorf("answer text is required: pass --answer or --answer-file")
		}

		st := store.NewMemory()
		defer func() { _ = st.Close() }()

		eng := engine.New(cfg, st)
		eng.Start()
		defer eng.Shutdown()

		ctx := cmd.Context()

		now := time.Now().UTC()
		item := &model.Item{ID: uuid.NewString(), Status: model.ItemOpen, UpdatedAt: now}
		if err := st.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("create item: %w", err)
		}

		answer := &model.Answer{
			ID:        uuid.NewString(),
			ItemID:    item.ID,
			UserID:    "cli",
			BodyText:  answerText,
			Links:     args,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := eng.SubmitAnswer(ctx, answer); err != nil {
			return fmt.Errorf("submit answer: %w", err)
		}
		eng.Wait()

		provenances, err := st.ProvenancesByAnswer(ctx, answer.ID)
		if err != nil {
			return fmt.Errorf("load provenances: %w", err)
		}
		scored, err := st.GetAnswer(ctx, answer.ID)
		if err != nil {
			return fmt.Errorf("load answer: %w", err)
		}

		report := struct {
			Links             []model.LinkProvenance `yaml:"links"`
			VerificationScore float64                `yaml:"verification_score"`
			RelevanceScore    float64                `yaml:"relevance_score"`
		}{
			Links:             provenances,
			VerificationScore: scored.VerificationScore,
			RelevanceScore:    scored.RelevanceScore,
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Print(string(out))

		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyAnswer, "answer", "a", "", "answer text the links are cited in")
	verifyCmd.Flags().StringVar(&verifyAnswerFile, "answer-file", "", "read the answer text from a file")
	rootCmd.AddCommand(verifyCmd)
}
