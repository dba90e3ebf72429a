package fence

import "testing"

func block(body string) string {
	return "```kb-update\n" + body + "```"
}

func TestParseKBUpdateAcceptsValidFullUpdate(t *testing.T) {
	text := block("file: domains/alpha/notes.md\naction: update\nreasoning: refresh notes\n---\nNew content here.\n")
	proposals, rejections := ParseKBUpdateBlocks(text)
	if len(rejections) != 0 {
		t.Fatalf("expected no rejections, got %+v", rejections)
	}
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	if proposals[0].Content != "New content here." {
		t.Fatalf("content = %q", proposals[0].Content)
	}
}

func TestParseKBUpdateNoFileHeaderIsIgnored(t *testing.T) {
	text := block("action: update\nreasoning: x\n---\nbody\n")
	proposals, rejections := ParseKBUpdateBlocks(text)
	if len(proposals) != 0 || len(rejections) != 0 {
		t.Fatalf("expected block with no file: to be silently ignored, got proposals=%+v rejections=%+v", proposals, rejections)
	}
}

func TestParseKBUpdateMissingFieldsRejected(t *testing.T) {
	text := block("file: domains/alpha/notes.md\n---\nbody\n")
	_, rejections := ParseKBUpdateBlocks(text)
	if len(rejections) != 1 || rejections[0].RejectionReason != "MISSING_FIELDS" {
		t.Fatalf("expected MISSING_FIELDS rejection, got %+v", rejections)
	}
}

func TestParseKBUpdateInvalidAction(t *testing.T) {
	text := block("file: domains/alpha/notes.md\naction: nuke\nreasoning: x\n---\nbody\n")
	_, rejections := ParseKBUpdateBlocks(text)
	if len(rejections) != 1 || rejections[0].RejectionReason != "invalidAction('nuke')" {
		t.Fatalf("expected invalidAction rejection, got %+v", rejections)
	}
}

// TestParseKBUpdatePathTraversalRejected reproduces spec scenario S2.
func TestParseKBUpdatePathTraversalRejected(t *testing.T) {
	cases := []string{
		"../../etc/passwd",
		"/etc/passwd",
		"domains/../../etc/passwd",
		"..",
		"C:\\Windows\\System32\\config",
	}
	for _, f := range cases {
		text := block("file: " + f + "\naction: update\nreasoning: x\n---\nbody\n")
		_, rejections := ParseKBUpdateBlocks(text)
		if len(rejections) != 1 || rejections[0].RejectionReason != "File path rejected: path traversal." {
			t.Fatalf("file %q: expected path traversal rejection, got %+v", f, rejections)
		}
		if rejections[0].SuggestedFix == "" {
			t.Fatalf("file %q: expected a non-empty suggestedFix", f)
		}
	}
}

// TestParseKBUpdateStructuralRequiresPatch reproduces spec scenario S3.
func TestParseKBUpdateStructuralRequiresPatch(t *testing.T) {
	text := block("file: README.md\naction: update\nreasoning: x\ntier: structural\nmode: full\n---\nbody\n")
	_, rejections := ParseKBUpdateBlocks(text)
	if len(rejections) != 1 || rejections[0].RejectionReason != "STRUCTURAL_REQUIRES_PATCH" {
		t.Fatalf("expected STRUCTURAL_REQUIRES_PATCH, got %+v", rejections)
	}
	if rejections[0].SuggestedFix != "Change mode to patch." {
		t.Fatalf("suggested fix = %q", rejections[0].SuggestedFix)
	}
}

func TestParseKBUpdateStatusNoPatch(t *testing.T) {
	text := block("file: STATUS.md\naction: update\nreasoning: x\ntier: status\nmode: patch\n---\nbody\n")
	_, rejections := ParseKBUpdateBlocks(text)
	if len(rejections) != 1 || rejections[0].RejectionReason != "STATUS_NO_PATCH" {
		t.Fatalf("expected STATUS_NO_PATCH, got %+v", rejections)
	}
}

func TestParseKBUpdateDeleteRequiresConfirm(t *testing.T) {
	text := block("file: domains/alpha/old.md\naction: delete\nreasoning: obsolete\n---\n")
	_, rejections := ParseKBUpdateBlocks(text)
	if len(rejections) != 1 || rejections[0].RejectionReason != "DELETE_NEEDS_CONFIRM" {
		t.Fatalf("expected DELETE_NEEDS_CONFIRM, got %+v", rejections)
	}
}

func TestParseKBUpdateDeleteWithConfirmAccepted(t *testing.T) {
	text := block("file: domains/alpha/old.md\naction: delete\nreasoning: obsolete\nconfirm: DELETE domains/alpha/old.md\n---\n")
	proposals, rejections := ParseKBUpdateBlocks(text)
	if len(rejections) != 0 || len(proposals) != 1 {
		t.Fatalf("expected accepted delete, got proposals=%+v rejections=%+v", proposals, rejections)
	}
}

func TestParseKBUpdateRawExcerptSanitizesControlChars(t *testing.T) {
	text := block("file: x.md\naction: update\n---\nbody\x01here\n")
	_, rejections := ParseKBUpdateBlocks(text)
	if len(rejections) != 1 {
		t.Fatalf("expected 1 rejection, got %+v", rejections)
	}
	for _, r := range rejections[0].RawExcerpt {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			t.Fatalf("raw excerpt still contains control char: %q", rejections[0].RawExcerpt)
		}
	}
}
