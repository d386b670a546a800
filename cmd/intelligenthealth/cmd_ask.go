package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ItsMeCK/IntelligentHealth/pkg/qa"
)

var askFlags struct {
	caseID string
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question over a case's uploaded reports",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	f := askCmd.Flags()
	f.StringVar(&askFlags.caseID, "case", "", "Case ID (required)")

	_ = askCmd.MarkFlagRequired("case")
}

func runAsk(cmd *cobra.Command, args []string) error {
	env, err := setupEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	question := strings.Join(args, " ")

	answerer := qa.NewAnswerer(env.client, env.store)
	answer, err := answerer.Answer(cmd.Context(), askFlags.caseID, question)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
