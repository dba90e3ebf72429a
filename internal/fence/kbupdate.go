// Package fence parses structured proposal blocks out of LLM response text:
// kb-update, decision, and advisory-<type> fenced code blocks (spec §4.I).
package fence

import (
	"hash/fnv"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/quiet-coder-io/domainos/internal/kb"
	"github.com/quiet-coder-io/domainos/internal/types"
)

var kbUpdateBlockRe = regexp.MustCompile(`(?s)` + "```" + `kb-update\n(.*?)` + "```")

const separator = "\n---\n"

// KBUpdateProposal is an accepted kb-update block.
type KBUpdateProposal struct {
	File      string
	Action    types.FenceAction
	Tier      types.Tier
	Mode      types.FenceMode
	Basis     types.FenceBasis
	Reasoning string
	Content   string
	Confirm   string
}

// KBUpdateRejection is a kb-update block that failed validation.
type KBUpdateRejection struct {
	ID              string
	File            string
	Action          string
	Reasoning       string
	RejectionReason string
	SuggestedFix    string
	Tier            string
	Mode            string
	RawExcerpt      string
}

// ParseKBUpdateBlocks scans LLM response text for kb-update fenced blocks
// and returns the accepted proposals and explicit rejections. Blocks with
// no file: header at all are silently ignored, matching the teacher's
// "not even an attempt" behavior for malformed/empty blocks.
func ParseKBUpdateBlocks(text string) ([]KBUpdateProposal, []KBUpdateRejection) {
	var proposals []KBUpdateProposal
	var rejections []KBUpdateRejection

	for _, m := range kbUpdateBlockRe.FindAllStringSubmatch(text, -1) {
		block := m[1]
		p, r, ok := parseOneKBUpdate(block)
		if r != nil {
			rejections = append(rejections, *r)
			continue
		}
		if ok {
			proposals = append(proposals, *p)
		}
	}
	return proposals, rejections
}

func parseHeaderLines(header string) map[string]string {
	fields := map[string]string{}
	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		fields[key] = val
	}
	return fields
}

func rawExcerpt(block string) string {
	s := block
	if len(s) > 200 {
		s = s[:200]
	}
	var b strings.Builder
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func rejectionID(file, action, reason, tier, mode string) string {
	h := fnv.New32a()
	h.Write([]byte(file + "|" + action + "|" + reason + "|" + tier + "|" + mode))
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

func parseOneKBUpdate(block string) (*KBUpdateProposal, *KBUpdateRejection, bool) {
	sepIdx := strings.Index(block, separator)

	var header, body string
	hasSeparator := sepIdx >= 0
	if hasSeparator {
		header = block[:sepIdx]
		body = block[sepIdx+len(separator):]
	} else {
		header = block
		body = ""
	}

	fields := parseHeaderLines(header)
	file := fields["file"]

	if !hasSeparator {
		if file == "" {
			return nil, nil, false
		}
		return nil, reject(file, fields["action"], "", "", "", "MISSING_FIELDS", "", block), false
	}

	if file == "" {
		return nil, nil, false
	}

	action := fields["action"]
	reasoning := fields["reasoning"]
	if action == "" || reasoning == "" {
		return nil, reject(file, action, reasoning, "", "", "MISSING_FIELDS", "", block), false
	}

	if action != string(types.ActionCreate) && action != string(types.ActionUpdate) && action != string(types.ActionDelete) {
		return nil, reject(file, action, reasoning, "", "", "invalidAction('"+action+"')", "", block), false
	}

	if reason := pathTraversalReason(file); reason != "" {
		return nil, reject(file, action, reasoning, "", "", reason, "Use a path relative to the domain's kb root, with no \"..\" segments.", block), false
	}

	tier := types.Tier(fields["tier"])
	if !validTier(tier) {
		tier = kb.ClassifyTier(file)
	}
	mode := types.FenceMode(fields["mode"])
	if mode == "" {
		mode = types.ModeFull
	}
	basis := types.FenceBasis(fields["basis"])
	if basis == "" {
		basis = types.BasisPrimary
	}

	if tier == types.TierStructural && mode != types.ModePatch {
		return nil, reject(file, action, reasoning, string(tier), string(mode), "STRUCTURAL_REQUIRES_PATCH", "Change mode to patch.", block), false
	}
	if tier == types.TierStatus && mode == types.ModePatch {
		return nil, reject(file, action, reasoning, string(tier), string(mode), "STATUS_NO_PATCH", "Change mode to full or append for status-tier files.", block), false
	}

	confirm := fields["confirm"]
	if action == string(types.ActionDelete) {
		want := "DELETE " + file
		if confirm != want {
			return nil, reject(file, action, reasoning, string(tier), string(mode), "DELETE_NEEDS_CONFIRM", "Add: confirm: DELETE "+file, block), false
		}
	}

	return &KBUpdateProposal{
		File:      file,
		Action:    types.FenceAction(action),
		Tier:      tier,
		Mode:      mode,
		Basis:     basis,
		Reasoning: reasoning,
		Content:   strings.TrimRight(body, " \t\n\r"),
		Confirm:   confirm,
	}, nil, true
}

func reject(file, action, reasoning, tier, mode, reason, suggestedFix, block string) *KBUpdateRejection {
	return &KBUpdateRejection{
		ID:              rejectionID(file, action, reason, tier, mode),
		File:            file,
		Action:          action,
		Reasoning:       reasoning,
		RejectionReason: reason,
		SuggestedFix:    suggestedFix,
		Tier:            tier,
		Mode:            mode,
		RawExcerpt:      rawExcerpt(block),
	}
}

func validTier(t types.Tier) bool {
	switch t {
	case types.TierStructural, types.TierStatus, types.TierIntelligence, types.TierGeneral:
		return true
	default:
		return false
	}
}

// pathTraversalReason returns a non-empty rejection reason if file is an
// unsafe relative path, matching both POSIX and Windows absolute-path
// conventions regardless of host OS.
const pathTraversalRejection = "File path rejected: path traversal."

func pathTraversalReason(file string) string {
	if strings.ContainsRune(file, 0) {
		return pathTraversalRejection
	}
	normalized := path.Clean(strings.ReplaceAll(file, "\\", "/"))
	if normalized == ".." || strings.HasPrefix(normalized, "../") || strings.Contains(normalized, "/../") {
		return pathTraversalRejection
	}
	if strings.HasPrefix(normalized, "/") {
		return pathTraversalRejection
	}
	if len(file) >= 2 && file[1] == ':' {
		return pathTraversalRejection // Windows drive-letter absolute path, e.g. C:\
	}
	if strings.HasPrefix(file, "\\\\") {
		return pathTraversalRejection // UNC path
	}
	return ""
}
