package firebase

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestInitFirebaseMissingCredentials(t *testing.T) {
	if _, err := InitFirebase(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}

	_, err := InitFirebase(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want not exist", err)
	}
}
