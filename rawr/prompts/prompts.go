// Package prompts manages the auto-compaction arbiter's on-disk prompt
// catalog: four editable templates seeded from baked-in defaults the first
// time a cosmos home directory is used, read back on every judgment request,
// and expanded with literal {key} substitution before being sent to a model.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"autocompact/rawr/rlog"
)

// Kind identifies one of the four prompt slots.
type Kind int

const (
	AutoCompact Kind = iota
	ScratchWrite
	Judgment
	JudgmentContext
)

const (
	dirName             = "auto-compact"
	autoCompactFile     = "auto-compact.md"
	scratchWriteFile    = "scratch-write.md"
	judgmentFile        = "judgment.md"
	judgmentContextFile = "judgment-context.md"
)

func fileName(kind Kind) string {
	switch kind {
	case AutoCompact:
		return autoCompactFile
	case ScratchWrite:
		return scratchWriteFile
	case Judgment:
		return judgmentFile
	case JudgmentContext:
		return judgmentContextFile
	default:
		return autoCompactFile
	}
}

func defaultBody(kind Kind) string {
	switch kind {
	case AutoCompact:
		return defaultAutoCompactPrompt
	case ScratchWrite:
		return defaultScratchWritePrompt
	case Judgment:
		return defaultJudgmentPrompt
	case JudgmentContext:
		return defaultJudgmentContextPrompt
	default:
		return defaultAutoCompactPrompt
	}
}

// Dir returns the prompt directory under cosmosHome.
func Dir(cosmosHome string) string {
	return filepath.Join(cosmosHome, dirName)
}

// Paths is the set of resolved on-disk paths for all four prompt files.
type Paths struct {
	AutoCompact     string
	ScratchWrite    string
	Judgment        string
	JudgmentContext string
}

// EnsureFiles creates the prompt directory and writes any missing prompt
// file with its baked-in default. Existing files are left untouched — an
// operator's edits are never overwritten.
func EnsureFiles(cosmosHome string) (Paths, error) {
	dir := Dir(cosmosHome)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("rawr prompts: creating %s: %w", dir, err)
	}

	paths := Paths{
		AutoCompact:     filepath.Join(dir, autoCompactFile),
		ScratchWrite:    filepath.Join(dir, scratchWriteFile),
		Judgment:        filepath.Join(dir, judgmentFile),
		JudgmentContext: filepath.Join(dir, judgmentContextFile),
	}

	for kind, path := range map[Kind]string{
		AutoCompact:     paths.AutoCompact,
		ScratchWrite:    paths.ScratchWrite,
		Judgment:        paths.Judgment,
		JudgmentContext: paths.JudgmentContext,
	} {
		if err := writeDefaultIfMissing(path, defaultBody(kind)); err != nil {
			return Paths{}, err
		}
	}
	return paths, nil
}

func writeDefaultIfMissing(path, contents string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("rawr prompts: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("rawr prompts: writing %s: %w", path, err)
	}
	return nil
}

// ReadOrDefault ensures the catalog exists under cosmosHome and returns
// kind's current contents with YAML frontmatter stripped. Any I/O failure —
// the directory can't be created, the file can't be read — falls back to
// kind's baked-in default rather than surfacing an error, so a damaged
// prompt file never blocks compaction.
func ReadOrDefault(cosmosHome string, kind Kind) string {
	paths, err := EnsureFiles(cosmosHome)
	if err != nil {
		rlog.Warnf("failed to ensure rawr prompt directory: %v", err)
		return defaultBody(kind)
	}

	var path string
	switch kind {
	case AutoCompact:
		path = paths.AutoCompact
	case ScratchWrite:
		path = paths.ScratchWrite
	case Judgment:
		path = paths.Judgment
	case JudgmentContext:
		path = paths.JudgmentContext
	default:
		path = paths.AutoCompact
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		rlog.Warnf("failed to read rawr prompt %s: %v", path, err)
		return defaultBody(kind)
	}
	return stripFrontmatter(string(contents))
}

// stripFrontmatter removes a leading "---\n...\n---\n" YAML block, if
// present. Only triggers when the file begins with the fence; a template
// that happens to contain "---" further down is left alone.
func stripFrontmatter(contents string) string {
	const fence = "---\n"
	if !strings.HasPrefix(contents, fence) {
		return contents
	}
	rest := contents[len(fence):]
	end := strings.Index(rest, "\n---\n")
	if end == -1 {
		return contents
	}
	return rest[end+len("\n---\n"):]
}

// ResolvePath resolves an operator-supplied judgment prompt override
// (decision_prompt_path) to a readable file: an absolute path is used as
// given; otherwise it is tried relative to the prompt catalog directory
// first, then relative to the current working directory. Returns an error
// if none of the candidates exist.
func ResolvePath(cosmosHome, override string) (string, error) {
	if filepath.IsAbs(override) {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("rawr prompts: prompt override %s: %w", override, err)
		}
		return override, nil
	}

	catalogPath := filepath.Join(Dir(cosmosHome), override)
	if _, err := os.Stat(catalogPath); err == nil {
		return catalogPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("rawr prompts: resolving cwd for prompt override %s: %w", override, err)
	}
	cwdPath := filepath.Join(cwd, override)
	if _, err := os.Stat(cwdPath); err == nil {
		return cwdPath, nil
	}

	return "", fmt.Errorf("rawr prompts: prompt override %s not found under the catalog or the working directory", override)
}

// ReadPath reads the file at path and strips YAML frontmatter the same way
// ReadOrDefault does, for callers that resolved an override with
// ResolvePath rather than reading a catalog slot by Kind.
func ReadPath(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("rawr prompts: reading %s: %w", path, err)
	}
	return stripFrontmatter(string(contents)), nil
}

// ExpandPlaceholders replaces every literal {key} occurrence in template
// with its value. Substitution is a single literal left-to-right pass, not a
// regex — values are inserted verbatim and are never themselves re-scanned
// for further placeholders.
func ExpandPlaceholders(template string, values map[string]string) string {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open == -1 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end == -1 {
			break
		}
		if value, ok := values[rest[open+1:open+end]]; ok {
			b.WriteString(rest[:open])
			b.WriteString(value)
			rest = rest[open+end+1:]
			continue
		}
		b.WriteString(rest[:open+1])
		rest = rest[open+1:]
	}
	b.WriteString(rest)
	return b.String()
}
