package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hongminglow/fraudpulse-be/internal/config"
	"github.com/hongminglow/fraudpulse-be/internal/features"
	"github.com/hongminglow/fraudpulse-be/internal/fraud"
	"github.com/hongminglow/fraudpulse-be/internal/models"
)

type scoreResult struct {
	PredictedClass int     `json:"predicted_class"`
	RiskScore      float64 `json:"risk_score"`
	Label          string  `json:"label"`
	ModelVersion   string  `json:"model_version"`
}

func scoreCmd() *cobra.Command {
	var (
		modelPath string
		step      int
		txType    string
		amount    float64
		oldOrig   float64
		newOrig   float64
		oldDest   float64
		newDest   float64
		nameOrig  string
		nameDest  string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one transaction against the model artifact",
		Long: `Run a single transaction through feature engineering and the model
without touching the database. Useful for checking an exported artifact.

Examples:
  fraudpulse score --type TRANSFER --amount 9999 --old-balance-orig 10000 --new-balance-orig 1
  fraudpulse score --model ./candidate.yaml --type PAYMENT --amount 12.5 --name-dest M123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pipe, path, err := loadPipeline(cfg, modelPath)
			if err != nil {
				return fmt.Errorf("load model %s: %w", path, err)
			}

			req := models.TransactionRequest{
				Step:           &step,
				Type:           models.TransactionType(txType),
				Amount:         &amount,
				OldBalanceOrg:  &oldOrig,
				NewBalanceOrig: &newOrig,
				OldBalanceDest: &oldDest,
				NewBalanceDest: &newDest,
				NameOrig:       nameOrig,
				NameDest:       nameDest,
			}
			vector, err := features.Engineer(req)
			if err != nil {
				return err
			}
			pred, err := pipe.Predict(vector)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(scoreResult{
				PredictedClass: pred.Class,
				RiskScore:      pred.RiskScore,
				Label:          fraud.Label(pred.Class),
				ModelVersion:   pipe.Version(),
			})
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "model artifact path (default: MODEL_PATH under APP_BASE_DIR)")
	cmd.Flags().IntVar(&step, "step", 1, "simulation hour (at least 1)")
	cmd.Flags().StringVarP(&txType, "type", "t", string(models.TypePayment), "transaction type")
	cmd.Flags().Float64VarP(&amount, "amount", "a", 0, "transaction amount")
	cmd.Flags().Float64Var(&oldOrig, "old-balance-orig", 0, "origin balance before the transaction")
	cmd.Flags().Float64Var(&newOrig, "new-balance-orig", 0, "origin balance after the transaction")
	cmd.Flags().Float64Var(&oldDest, "old-balance-dest", 0, "destination balance before the transaction")
	cmd.Flags().Float64Var(&newDest, "new-balance-dest", 0, "destination balance after the transaction")
	cmd.Flags().StringVar(&nameOrig, "name-orig", "", "origin account id")
	cmd.Flags().StringVar(&nameDest, "name-dest", "", "destination account id (M prefix marks a merchant)")

	return cmd
}
