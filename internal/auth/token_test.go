package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	prev := userHomeDirFn
	userHomeDirFn = func() (string, error) { return home, nil }
	t.Cleanup(func() { userHomeDirFn = prev })
	return home
}

func TestGetTokenPrefersEnv(t *testing.T) {
	withHome(t)
	if err := SetToken("from-file", nil); err != nil {
		t.Fatal(err)
	}
	ti, err := GetToken("Bearer from-env")
	if err != nil {
		t.Fatal(err)
	}
	if ti.Token != "from-env" || ti.Source != SourceEnv {
		t.Fatalf("got %+v", ti)
	}
}

func TestSetGetDeleteToken(t *testing.T) {
	home := withHome(t)

	ti, err := GetToken("")
	if err != nil || ti != nil {
		t.Fatalf("expected no token, got %+v, %v", ti, err)
	}

	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := SetToken("  bearer abc123 ", &exp); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(home, ".todomvc", "credentials.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("credentials mode = %v", info.Mode().Perm())
	}

	ti, err = GetToken("")
	if err != nil {
		t.Fatal(err)
	}
	if ti.Token != "abc123" || ti.Source != SourceFile || ti.ExpiresAt == nil || !ti.ExpiresAt.Equal(exp) {
		t.Fatalf("got %+v", ti)
	}
	if ti.Expired(time.Now()) || !ti.Expired(exp.Add(time.Second)) {
		t.Fatal("expiry check is wrong")
	}

	if err := DeleteToken(); err != nil {
		t.Fatal(err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if ti, _ := GetToken(""); ti != nil {
		t.Fatalf("token still present: %+v", ti)
	}
}

func TestSetTokenRejectsEmpty(t *testing.T) {
	withHome(t)
	if err := SetToken("Bearer   ", nil); err == nil {
		t.Fatal("empty token should be rejected")
	}
}

func TestGetTokenCorruptFile(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, ".todomvc")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "credentials.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := GetToken(""); err == nil {
		t.Fatal("expected parse error")
	}
}
