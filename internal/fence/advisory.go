package fence

import (
	"encoding/json"
	"regexp"

	"github.com/quiet-coder-io/domainos/internal/types"
)

var advisoryBlockRe = regexp.MustCompile(`(?s)` + "```" + `advisory-([a-z_]+)\n(.*?)` + "```")

// AdvisoryBlock is a parsed advisory-<type> block; Payload is left as raw
// JSON since its shape is type-dependent (brainstorm/risk_assessment/
// scenario/strategic_review) and validated by the repository layer.
type AdvisoryBlock struct {
	Type        string
	Persist     types.AdvisoryPersist
	Title       string
	Fingerprint string
	Payload     json.RawMessage
}

type advisoryEnvelope struct {
	SchemaVersion int             `json:"schemaVersion"`
	Persist       string          `json:"persist"`
	Title         string          `json:"title"`
	Fingerprint   string          `json:"fingerprint,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// AdvisoryRejection records a block that failed schema validation.
type AdvisoryRejection struct {
	Type   string
	Reason string
}

// ParseAdvisoryBlocks scans text for advisory-<type> fenced JSON blocks.
func ParseAdvisoryBlocks(text string) ([]AdvisoryBlock, []AdvisoryRejection) {
	var blocks []AdvisoryBlock
	var rejections []AdvisoryRejection

	for _, m := range advisoryBlockRe.FindAllStringSubmatch(text, -1) {
		typ := m[1]
		var env advisoryEnvelope
		if err := json.Unmarshal([]byte(m[2]), &env); err != nil {
			rejections = append(rejections, AdvisoryRejection{Type: typ, Reason: "INVALID_JSON"})
			continue
		}
		if env.SchemaVersion != 1 {
			rejections = append(rejections, AdvisoryRejection{Type: typ, Reason: "UNSUPPORTED_SCHEMA_VERSION"})
			continue
		}
		if len(env.Title) < 4 || len(env.Title) > 120 {
			rejections = append(rejections, AdvisoryRejection{Type: typ, Reason: "INVALID_TITLE"})
			continue
		}
		persist := types.AdvisoryPersist(env.Persist)
		if persist == "" {
			persist = types.AdvisoryPersistNo
		}
		if persist != types.AdvisoryPersistNo && persist != types.AdvisoryPersistYes && persist != types.AdvisoryPersistArchive {
			rejections = append(rejections, AdvisoryRejection{Type: typ, Reason: "INVALID_PERSIST"})
			continue
		}
		blocks = append(blocks, AdvisoryBlock{Type: typ, Persist: persist, Title: env.Title, Fingerprint: env.Fingerprint, Payload: env.Payload})
	}
	return blocks, rejections
}
