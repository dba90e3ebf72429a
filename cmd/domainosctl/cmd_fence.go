package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quiet-coder-io/domainos/internal/fence"
)

var fenceCmd = &cobra.Command{
	Use:   "fence",
	Short: "parse LLM-emitted fence blocks out of a reply (spec §4.I)",
}

var fenceParseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "parse kb-update, decision, and advisory blocks out of a text file and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runFenceParse,
}

func init() {
	fenceCmd.AddCommand(fenceParseCmd)
}

type fenceParseResult struct {
	KBUpdates          []fence.KBUpdateProposal  `json:"kb_updates"`
	KBUpdateRejections []fence.KBUpdateRejection `json:"kb_update_rejections"`
	Decisions          []fence.Decision          `json:"decisions"`
	Advisories         []fence.AdvisoryBlock     `json:"advisories"`
	AdvisoryRejections []fence.AdvisoryRejection `json:"advisory_rejections"`
}

func runFenceParse(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	text := string(content)

	kbUpdates, kbRejections := fence.ParseKBUpdateBlocks(text)
	decisions := fence.ParseDecisionBlocks(text)
	advisories, advisoryRejections := fence.ParseAdvisoryBlocks(text)

	result := fenceParseResult{
		KBUpdates:          kbUpdates,
		KBUpdateRejections: kbRejections,
		Decisions:          decisions,
		Advisories:         advisories,
		AdvisoryRejections: advisoryRejections,
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal fence parse result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
