package prompts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureFiles_CreatesAllFourDefaults(t *testing.T) {
	home := t.TempDir()
	paths, err := EnsureFiles(home)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []string{paths.AutoCompact, paths.ScratchWrite, paths.Judgment, paths.JudgmentContext} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
}

func TestEnsureFiles_DoesNotOverwriteExisting(t *testing.T) {
	home := t.TempDir()
	if _, err := EnsureFiles(home); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	custom := "custom body\n"
	path := filepath.Join(Dir(home), autoCompactFile)
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatalf("writing custom prompt: %v", err)
	}

	if _, err := EnsureFiles(home); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if string(got) != custom {
		t.Errorf("expected operator edit to survive, got %q", got)
	}
}

func TestReadOrDefault_FallsBackWhenHomeUnwritable(t *testing.T) {
	// A regular file standing where a parent directory should be makes the
	// catalog directory impossible to create.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing blocker: %v", err)
	}
	got := ReadOrDefault(filepath.Join(blocker, "home"), Judgment)
	if got != defaultJudgmentPrompt {
		t.Errorf("expected fallback to the baked-in default")
	}
}

func TestReadOrDefault_StripsFrontmatter(t *testing.T) {
	home := t.TempDir()
	if _, err := EnsureFiles(home); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(Dir(home), judgmentFile)
	withFrontmatter := "---\ntitle: judgment\n---\nbody text\n"
	if err := os.WriteFile(path, []byte(withFrontmatter), 0o644); err != nil {
		t.Fatalf("writing: %v", err)
	}

	got := ReadOrDefault(home, Judgment)
	if got != "body text\n" {
		t.Errorf("expected frontmatter stripped, got %q", got)
	}
}

func TestExpandPlaceholders_ReplacesLiteralKeys(t *testing.T) {
	template := "tier={tier} percent={percentRemaining} list={boundariesJson}"
	got := ExpandPlaceholders(template, map[string]string{
		"tier":             "ready",
		"percentRemaining": "42",
		"boundariesJson":   `["commit"]`,
	})
	want := `tier=ready percent=42 list=["commit"]`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandPlaceholders_UnmatchedPlaceholderLeftAsIs(t *testing.T) {
	got := ExpandPlaceholders("tier={tier} other={missing}", map[string]string{"tier": "early"})
	if got != "tier=early other={missing}" {
		t.Errorf("expected unmatched placeholder to survive verbatim, got %q", got)
	}
}

func TestResolvePath_AbsoluteIsUsedDirectly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.md")
	if err := os.WriteFile(path, []byte("abs body"), 0o644); err != nil {
		t.Fatalf("writing: %v", err)
	}
	got, err := ResolvePath(t.TempDir(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Errorf("got %q, want %q", got, path)
	}
}

func TestResolvePath_RelativeFallsBackFromCatalogToCwd(t *testing.T) {
	home := t.TempDir()
	if _, err := EnsureFiles(home); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	catalogOverride := filepath.Join(Dir(home), "custom.md")
	if err := os.WriteFile(catalogOverride, []byte("catalog body"), 0o644); err != nil {
		t.Fatalf("writing: %v", err)
	}

	got, err := ResolvePath(home, "custom.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != catalogOverride {
		t.Errorf("expected catalog-relative resolution, got %q", got)
	}

	cwd := t.TempDir()
	t.Chdir(cwd)
	cwdOnly := filepath.Join(cwd, "cwd-only.md")
	if err := os.WriteFile(cwdOnly, []byte("cwd body"), 0o644); err != nil {
		t.Fatalf("writing: %v", err)
	}
	got, err = ResolvePath(home, "cwd-only.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != cwdOnly {
		t.Errorf("expected working-directory fallback, got %q", got)
	}
}

func TestResolvePath_MissingEverywhereErrors(t *testing.T) {
	if _, err := ResolvePath(t.TempDir(), "does-not-exist.md"); err == nil {
		t.Fatal("expected an error when the override can't be found anywhere")
	}
}

func TestReadPath_StripsFrontmatter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.md")
	withFrontmatter := "---\ntitle: override\n---\ncustom body\n"
	if err := os.WriteFile(path, []byte(withFrontmatter), 0o644); err != nil {
		t.Fatalf("writing: %v", err)
	}
	got, err := ReadPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "custom body\n" {
		t.Errorf("expected frontmatter stripped, got %q", got)
	}
}
