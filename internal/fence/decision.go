package fence

import (
	"regexp"
	"strings"
)

var decisionBlockRe = regexp.MustCompile(`(?s)` + "```" + `decision\n(.*?)` + "```")

// Decision is a parsed decision block. Enum fields that fail validation are
// left empty (spec: "invalid enum values yield null rather than rejecting
// the whole block").
type Decision struct {
	DecisionID         string
	DecisionText       string
	Confidence         string
	Horizon            string
	ReversibilityClass string
	Category           string
	LinkedFiles        []string
}

var (
	validConfidence  = map[string]bool{"high": true, "medium": true, "low": true}
	validHorizon     = map[string]bool{"immediate": true, "near_term": true, "strategic": true}
	validReversibility = map[string]bool{"reversible": true, "irreversible": true}
	validCategory    = map[string]bool{"strategic": true, "tactical": true, "operational": true}
)

// ParseDecisionBlocks scans text for decision fenced blocks. Blocks missing
// decision_id or decision are silently skipped.
func ParseDecisionBlocks(text string) []Decision {
	var out []Decision
	for _, m := range decisionBlockRe.FindAllStringSubmatch(text, -1) {
		fields := parseHeaderLines(m[1])
		id := fields["decision_id"]
		decisionText := fields["decision"]
		if id == "" || decisionText == "" {
			continue
		}

		d := Decision{DecisionID: id, DecisionText: decisionText}
		if validConfidence[fields["confidence"]] {
			d.Confidence = fields["confidence"]
		}
		if validHorizon[fields["horizon"]] {
			d.Horizon = fields["horizon"]
		}
		if validReversibility[fields["reversibility_class"]] {
			d.ReversibilityClass = fields["reversibility_class"]
		}
		if validCategory[fields["category"]] {
			d.Category = fields["category"]
		}
		if raw := fields["linked_files"]; raw != "" {
			for _, f := range strings.Split(raw, ",") {
				f = strings.TrimSpace(f)
				if f != "" {
					d.LinkedFiles = append(d.LinkedFiles, f)
				}
			}
		}
		out = append(out, d)
	}
	return out
}
