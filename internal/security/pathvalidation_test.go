package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	if err := os.MkdirAll(safeDir, 0755); err != nil {
		t.Fatalf("Failed to create safe directory: %v", err)
	}
	if err := os.MkdirAll(unsafeDir, 0755); err != nil {
		t.Fatalf("Failed to create unsafe directory: %v", err)
	}

	// A symlink inside the safe directory pointing outside it.
	symlinkPath := filepath.Join(safeDir, "evil-symlink")
	if err := os.Symlink(unsafeDir, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		safeDir   string
		wantError bool
	}{
		{
			name:     "file directly inside",
			filePath: filepath.Join(safeDir, "plot.png"),
			safeDir:  safeDir,
		},
		{
			name:     "file in subdirectory",
			filePath: filepath.Join(safeDir, "sub", "plot.png"),
			safeDir:  safeDir,
		},
		{
			name:      "dotdot escape",
			filePath:  filepath.Join(safeDir, "..", "unsafe", "plot.png"),
			safeDir:   safeDir,
			wantError: true,
		},
		{
			name:      "sibling directory",
			filePath:  filepath.Join(unsafeDir, "plot.png"),
			safeDir:   safeDir,
			wantError: true,
		},
		{
			name:      "escape through symlink",
			filePath:  filepath.Join(symlinkPath, "plot.png"),
			safeDir:   safeDir,
			wantError: true,
		},
		{
			name:      "safe directory itself via dotdot",
			filePath:  filepath.Join(safeDir, "sub", "..", "..", "plot.png"),
			safeDir:   safeDir,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, tt.safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q, %q) error = %v, wantError %v",
					tt.filePath, tt.safeDir, err, tt.wantError)
			}
		})
	}
}

func TestValidatePathWithinMissingDirectory(t *testing.T) {
	// Output directories are created lazily, so validation must work before
	// the directory exists.
	missing := filepath.Join(t.TempDir(), "plots")

	if err := ValidatePathWithinDirectory(filepath.Join(missing, "out.png"), missing); err != nil {
		t.Errorf("expected inside path to validate against missing dir, got %v", err)
	}
	if err := ValidatePathWithinDirectory(filepath.Join(missing, "..", "out.png"), missing); err == nil {
		t.Error("expected escape from missing dir to be rejected")
	}
}
