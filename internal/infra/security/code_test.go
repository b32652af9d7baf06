package security

import "testing"

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(VerificationCodeLength)
	if err != nil {
		t.Fatalf("GenerateNumericCode failed: %v", err)
	}
	if len(code) != VerificationCodeLength {
		t.Errorf("code length = %d, want %d", len(code), VerificationCodeLength)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Errorf("code %q contains non-digit %q", code, c)
		}
	}
}

func TestGenerateNumericCode_RejectsNonPositiveLength(t *testing.T) {
	if _, err := GenerateNumericCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := GenerateNumericCode(-1); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	first, err := GenerateRandomPassword()
	if err != nil {
		t.Fatalf("GenerateRandomPassword failed: %v", err)
	}
	if len(first) != 24 {
		t.Errorf("password length = %d, want 24", len(first))
	}

	second, err := GenerateRandomPassword()
	if err != nil {
		t.Fatalf("GenerateRandomPassword failed: %v", err)
	}
	if first == second {
		t.Error("two generated passwords are identical")
	}
}
