package sync

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/vaultsync/vaultsync/internal/utils"
	"github.com/vaultsync/vaultsync/internal/vault"
)

// IgnoreFileName is the optional user ignore file at the vault root.
const IgnoreFileName = ".vaultsyncignore"

var defaultIgnoreLines = []string{
	// vaultsync
	vault.MetadataDir + "/",
	IgnoreFileName,
	// version control
	".git/",
	".hg/",
	".svn/",
	// editors
	".obsidian/",
	".vscode/",
	".idea/",
	// general excludes
	".trash/",
	"node_modules/",
	"*.tmp",
	"*.swp",
	// OS-specific
	".DS_Store",
	"Thumbs.db",
}

// IgnoreList decides which vault-relative paths are administrative and must
// never be synced or watched.
type IgnoreList struct {
	baseDir string
	ignore  *gitignore.GitIgnore
}

func NewIgnoreList(baseDir string) *IgnoreList {
	return &IgnoreList{baseDir: baseDir}
}

// Load compiles the fixed administrative rules plus any user rules from the
// vault's ignore file.
func (s *IgnoreList) Load() {
	ignoreLines := defaultIgnoreLines

	ignorePath := filepath.Join(s.baseDir, IgnoreFileName)
	if utils.FileExists(ignorePath) {
		file, err := os.Open(ignorePath)
		if err != nil {
			slog.Warn("failed to open ignore file", "path", ignorePath, "error", err)
		} else {
			defer file.Close()

			rules := 0
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				if line := scanner.Text(); line != "" {
					ignoreLines = append(ignoreLines, line)
					rules++
				}
			}
			slog.Debug("loaded ignore file", "path", ignorePath, "rules", rules)
		}
	}

	s.ignore = gitignore.CompileIgnoreLines(ignoreLines...)
}

// ShouldIgnore reports whether the vault-relative path matches any rule.
func (s *IgnoreList) ShouldIgnore(relPath string) bool {
	if s.ignore == nil {
		s.Load()
	}
	return s.ignore.MatchesPath(relPath)
}
