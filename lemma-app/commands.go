package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lemma-network/lemma/x/registry"
	"github.com/lemma-network/lemma/x/submission"
)

var (
	challengesCmd = &cobra.Command{
		Use:   "challenges",
		Short: "Synchronize and list challenges from the ledger",
		Args:  cobra.NoArgs,
		RunE:  runChallenges,
	}

	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Publish a new challenge with a bounty",
		Args:  cobra.NoArgs,
		RunE:  runCreate,
	}

	submitCmd = &cobra.Command{
		Use:   "submit <challenge-id>",
		Short: "Prove a solution and claim the challenge bounty",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubmit,
	}

	claimCmd = &cobra.Command{
		Use:   "claim <challenge-id>",
		Short: "Claim the bounty for a solution already recorded on the ledger",
		Args:  cobra.ExactArgs(1),
		RunE:  runClaim,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}
)

func initCommandFlags() {
	challengesCmd.Flags().StringP("output", "o", "text", "output format (text, yaml, json)")

	createCmd.Flags().String("name", "", "challenge name")
	createCmd.Flags().String("theorem", "", "theorem statement")
	createCmd.Flags().String("theorem-file", "", "read the theorem statement from a file")
	createCmd.Flags().String("bounty-wei", "", "bounty in wei")
	createCmd.Flags().Duration("expires-in", 7*24*time.Hour, "time until the challenge expires")

	submitCmd.Flags().String("solution", "", "solution text")
	submitCmd.Flags().String("solution-file", "", "read the solution from a file")

	claimCmd.Flags().String("solution", "", "solution text recorded on the ledger")
	claimCmd.Flags().String("solution-file", "", "read the solution from a file")
}

// challengeRow is the printable form of a registry entry.
type challengeRow struct {
	ID         uint64 `json:"id"         yaml:"id"`
	Name       string `json:"name"       yaml:"name"`
	Creator    string `json:"creator"    yaml:"creator"`
	BountyWei  string `json:"bounty_wei" yaml:"bounty_wei"`
	Expiration string `json:"expiration" yaml:"expiration"`
	Theorem    string `json:"theorem"    yaml:"theorem"`
}

func rowsFromEntries(entries []registry.Entry) []challengeRow {
	rows := make([]challengeRow, len(entries))
	for i, e := range entries {
		rows[i] = challengeRow{
			ID:        e.ID,
			Name:      e.Challenge.Name,
			Creator:   e.Challenge.Creator.Hex(),
			BountyWei: bigOrZero(e.Challenge.Bounty),
			Theorem:   e.Challenge.Theorem,
		}
		if e.Challenge.Expiration != nil && e.Challenge.Expiration.IsInt64() {
			rows[i].Expiration = time.Unix(e.Challenge.Expiration.Int64(), 0).UTC().Format(time.RFC3339)
		}
	}
	return rows
}

func bigOrZero(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func writeChallenges(w io.Writer, format string, entries []registry.Entry) error {
	rows := rowsFromEntries(entries)
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "text", "":
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "no challenges")
			return err
		}
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "#%d  %s  bounty=%s wei  expires=%s  creator=%s\n    %s\n",
				r.ID, r.Name, r.BountyWei, r.Expiration, r.Creator, r.Theorem); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func runChallenges(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("output")

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := newServices(cmd.Context(), cfg, log.Logger)
	if err != nil {
		return err
	}
	defer svc.close()

	if err := svc.registry.Synchronize(cmd.Context()); err != nil {
		return err
	}
	return writeChallenges(cmd.OutOrStdout(), format, svc.registry.All())
}

func runCreate(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	name, _ := flags.GetString("name")
	theorem, _ := flags.GetString("theorem")
	theoremFile, _ := flags.GetString("theorem-file")
	bountyRaw, _ := flags.GetString("bounty-wei")
	expiresIn, _ := flags.GetDuration("expires-in")

	theorem, err := textOrFile(theorem, theoremFile, "theorem")
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("--name is required")
	}
	bounty, ok := new(big.Int).SetString(strings.TrimSpace(bountyRaw), 10)
	if !ok || bounty.Sign() <= 0 {
		return fmt.Errorf("--bounty-wei must be a positive integer, got %q", bountyRaw)
	}
	if expiresIn <= 0 {
		return errors.New("--expires-in must be positive")
	}
	expiration := big.NewInt(time.Now().Add(expiresIn).Unix())

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := newServices(cmd.Context(), cfg, log.Logger)
	if err != nil {
		return err
	}
	defer svc.close()

	signer, err := svc.requireSigner()
	if err != nil {
		return err
	}

	rcpt, err := svc.ledger.CreateChallenge(cmd.Context(), signer, strings.TrimSpace(name), theorem, expiration, bounty)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "challenge created: tx=%s block=%d expiration=%s\n",
		rcpt.TxHash.Hex(), rcpt.BlockNumber, expiration)
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	return runPipeline(cmd, args, func(svc *services) pipelineFunc { return svc.orchestrator.Submit })
}

func runClaim(cmd *cobra.Command, args []string) error {
	return runPipeline(cmd, args, func(svc *services) pipelineFunc { return svc.orchestrator.Claim })
}

type pipelineFunc func(ctx context.Context, req submission.Request, obs submission.Observer) error

func runPipeline(cmd *cobra.Command, args []string, pick func(*services) pipelineFunc) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("challenge id must be an unsigned integer: %w", err)
	}
	flags := cmd.Flags()
	solution, _ := flags.GetString("solution")
	solutionFile, _ := flags.GetString("solution-file")
	solution, err = textOrFile(solution, solutionFile, "solution")
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := newServices(cmd.Context(), cfg, log.Logger)
	if err != nil {
		return err
	}
	defer svc.close()

	signer, err := svc.requireSigner()
	if err != nil {
		return err
	}
	if err := svc.registry.Synchronize(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	err = pick(svc)(cmd.Context(), submission.Request{
		ChallengeID: new(big.Int).SetUint64(id),
		Solution:    solution,
		Signer:      signer,
	}, progressPrinter(out))
	if hint := recoveryHint(id, solutionFile, err); hint != "" {
		fmt.Fprintln(out, hint)
	}
	return err
}

// recoveryHint tells the user how to finish a submission whose solution
// made it onto the ledger but whose claim did not.
func recoveryHint(id uint64, solutionFile string, err error) string {
	pe, ok := submission.AsPipelineError(err)
	if !ok || !pe.SolutionRecorded {
		return ""
	}
	src := "--solution <solution>"
	if solutionFile != "" {
		src = "--solution-file " + solutionFile
	}
	return fmt.Sprintf("solution is recorded on the ledger; claim the bounty with: lemma claim %d %s", id, src)
}

// progressPrinter prints each transition of a submission as one line.
func progressPrinter(w io.Writer) submission.Observer {
	return submission.ObserverFunc(func(p submission.Progress) {
		switch p.Terminal {
		case submission.TerminalCompleted:
			fmt.Fprintf(w, "[%s] completed: submit_tx=%s claim_tx=%s\n", p.Step, p.SubmitTx.Hex(), p.ClaimTx.Hex())
		case submission.TerminalFailed:
			fmt.Fprintf(w, "[%s] failed: %v\n", p.Step, p.Err)
		default:
			fmt.Fprintf(w, "[%s]\n", p.Step)
		}
	})
}

func textOrFile(text, path, what string) (string, error) {
	switch {
	case text != "" && path != "":
		return "", fmt.Errorf("set either --%s or --%s-file, not both", what, what)
	case path != "":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s file: %w", what, err)
		}
		text = string(raw)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("--%s or --%s-file is required", what, what)
	}
	return text, nil
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return err
	}
	return enc.Close()
}
