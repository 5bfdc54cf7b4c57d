package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mailsweep/mailsweep/internal/batch"
	"github.com/mailsweep/mailsweep/internal/config"
	"github.com/mailsweep/mailsweep/internal/mail"
)

func newDeleteCommand(opts *RootOptions, cliCtx *CLIContext) *cobra.Command {
	var idsFile string
	var failOnPartial bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Bulk delete messages listed in a file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := readIDsFile(idsFile)
			if err != nil {
				return err
			}
			orch, err := buildOrchestrator(cliCtx)
			if err != nil {
				return err
			}

			res, err := orch.ExecuteBulkDelete(cmd.Context(), ids)
			if err != nil {
				return err
			}
			if perr := printResult(cmd, opts.Output, res); perr != nil {
				return perr
			}
			return batch.ValidateResult(res, failOnPartial)
		},
	}
	cmd.Flags().StringVar(&idsFile, "ids-file", "", "file with one message id per line")
	cmd.Flags().BoolVar(&failOnPartial, "fail-on-partial", false, "exit non-zero when only some messages failed")
	cmd.MarkFlagRequired("ids-file")
	return cmd
}

func newModifyCommand(opts *RootOptions, cliCtx *CLIContext) *cobra.Command {
	var idsFile string
	var addLabels, removeLabels []string
	var failOnPartial bool

	cmd := &cobra.Command{
		Use:   "modify",
		Short: "Bulk add or remove labels on messages listed in a file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(addLabels) == 0 && len(removeLabels) == 0 {
				return fmt.Errorf("at least one --add or --remove label is required")
			}
			ids, err := readIDsFile(idsFile)
			if err != nil {
				return err
			}
			orch, err := buildOrchestrator(cliCtx)
			if err != nil {
				return err
			}

			res, err := orch.ExecuteBulkModify(cmd.Context(), ids, batch.LabelModification{
				AddLabels:    addLabels,
				RemoveLabels: removeLabels,
			})
			if err != nil {
				return err
			}
			if perr := printResult(cmd, opts.Output, res); perr != nil {
				return perr
			}
			return batch.ValidateResult(res, failOnPartial)
		},
	}
	cmd.Flags().StringVar(&idsFile, "ids-file", "", "file with one message id per line")
	cmd.Flags().StringSliceVar(&addLabels, "add", nil, "label to add (repeatable)")
	cmd.Flags().StringSliceVar(&removeLabels, "remove", nil, "label to remove (repeatable)")
	cmd.Flags().BoolVar(&failOnPartial, "fail-on-partial", false, "exit non-zero when only some messages failed")
	cmd.MarkFlagRequired("ids-file")
	return cmd
}

func buildOrchestrator(cliCtx *CLIContext) (*batch.Orchestrator, error) {
	cfg := cliCtx.Config
	invoker, err := mail.NewHTTPInvoker(mail.Options{
		BaseURL: cfg.MailAPI.BaseURL,
		UserID:  cfg.MailAPI.UserID,
		Tokens:  mail.NewStaticTokenSource(cfg.MailAPI.Token),
		Timeout: cfg.MailAPI.Timeout,
		Logger:  cliCtx.Logger,
	})
	if err != nil {
		return nil, err
	}
	return batch.NewOrchestrator(invoker, orchestratorConfig(cfg), cliCtx.Logger), nil
}

func orchestratorConfig(cfg *config.Config) batch.Config {
	return batch.Config{
		DeleteChunkSize:   cfg.Batch.DeleteChunkSize,
		MinModifySize:     cfg.Batch.MinModifySize,
		MaxModifySize:     cfg.Batch.MaxModifySize,
		InitialModifySize: cfg.Batch.InitialModifySize,
		InterBatchDelay:   cfg.Batch.InterBatchDelay,
		MicroDelay:        cfg.Batch.MicroDelay,
		MaxRetryAttempts:  cfg.Batch.MaxRetryAttempts,
		InitialBackoff:    cfg.Batch.InitialBackoff,
		MaxBackoff:        cfg.Batch.MaxBackoff,
		BackoffMultiplier: cfg.Batch.BackoffMultiplier,
		FailureThreshold:  cfg.CircuitBreaker.FailureThreshold,
		CoolingOffPeriod:  cfg.CircuitBreaker.CoolingOffPeriod,
		MaxBreakerWait:    cfg.CircuitBreaker.MaxWait,
	}
}

// readIDsFile loads message ids, one per line. Blank lines and lines starting
// with # are skipped.
func readIDsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ids file: %w", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ids file: %w", err)
	}
	return ids, nil
}

type resultSummary struct {
	Operation        string            `json:"operation"`
	Total            int               `json:"total"`
	Succeeded        int               `json:"succeeded"`
	Failed           int               `json:"failed"`
	SuccessRate      float64           `json:"success_rate"`
	BatchesProcessed int               `json:"batches_processed"`
	BatchesRetried   int               `json:"batches_retried"`
	DurationMillis   int64             `json:"duration_millis"`
	FailedItems      map[string]string `json:"failed_items,omitempty"`
	RetryableIDs     []string          `json:"retryable_ids,omitempty"`
}

func printResult(cmd *cobra.Command, output string, res *batch.OperationResult) error {
	summary := resultSummary{
		Operation:        res.OperationType(),
		Total:            res.TotalOperations(),
		Succeeded:        res.SuccessCount(),
		Failed:           res.FailureCount(),
		SuccessRate:      res.SuccessRate(),
		BatchesProcessed: res.BatchesProcessed(),
		BatchesRetried:   res.BatchesRetried(),
		DurationMillis:   res.DurationMillis(),
		FailedItems:      res.FailedOperations(),
		RetryableIDs:     batch.RetryableFailures(res),
	}

	if output == "json" {
		raw, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Operation:\t%s\n", summary.Operation)
	fmt.Fprintf(w, "Total:\t%d\n", summary.Total)
	fmt.Fprintf(w, "Succeeded:\t%d\n", summary.Succeeded)
	fmt.Fprintf(w, "Failed:\t%d\n", summary.Failed)
	fmt.Fprintf(w, "Success rate:\t%.1f%%\n", summary.SuccessRate)
	fmt.Fprintf(w, "Batches:\t%d (%d retried)\n", summary.BatchesProcessed, summary.BatchesRetried)
	fmt.Fprintf(w, "Duration:\t%dms\n", summary.DurationMillis)
	if len(summary.FailedItems) > 0 {
		fmt.Fprintf(w, "Failed items:\n")
		for id, reason := range summary.FailedItems {
			fmt.Fprintf(w, "\t%s\t%s\n", id, reason)
		}
	}
	if len(summary.RetryableIDs) > 0 {
		fmt.Fprintf(w, "Retryable:\t%s\n", strings.Join(summary.RetryableIDs, ", "))
	}
	return w.Flush()
}
