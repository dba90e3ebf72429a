package promptbudget

import "testing"

func TestEstimateTokensCeiling(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 4: 1, 5: 2, 400: 100, 401: 101}
	for chars, want := range cases {
		if got := EstimateTokens(chars); got != want {
			t.Errorf("EstimateTokens(%d) = %d, want %d", chars, got, want)
		}
	}
}

func TestEstimateChatTokensSumsWithOverhead(t *testing.T) {
	msgs := []Message{{Content: "1234"}, {Content: "12345678"}}
	// (1+4) + (2+4) = 11
	if got := EstimateChatTokens(msgs); got != 11 {
		t.Fatalf("got %d, want 11", got)
	}
}

func TestClampBounds(t *testing.T) {
	if got := Clamp(5, 10, 20); got != 10 {
		t.Fatalf("got %d, want 10", got)
	}
	if got := Clamp(25, 10, 20); got != 20 {
		t.Fatalf("got %d, want 20", got)
	}
	if got := Clamp(15, 10, 20); got != 15 {
		t.Fatalf("got %d, want 15", got)
	}
}

func TestSystemBudgetClampsToProfileBounds(t *testing.T) {
	got := SystemBudget(OllamaFast, 1_000_000) // history far exceeds context
	if got != OllamaFast.MinSystemBudget {
		t.Fatalf("got %d, want min %d", got, OllamaFast.MinSystemBudget)
	}

	got2 := SystemBudget(CloudFull, 0)
	if got2 != CloudFull.MaxSystemBudget {
		t.Fatalf("got %d, want max %d", got2, CloudFull.MaxSystemBudget)
	}
}
