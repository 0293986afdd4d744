package venv

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"pykit/internal/textutil"
)

// ComputeIdentity derives the deterministic environment name for a script and
// its enclosing project. The same (script, project) pair always maps to the
// same name on every operating system; distinct pairs are kept apart by a
// short content hash so two similarly named scripts never share an environment.
func ComputeIdentity(callerPath, projectRoot string) string {
	callerPath = filepath.Clean(strings.TrimSpace(callerPath))
	projectRoot = filepath.Clean(strings.TrimSpace(projectRoot))
	if projectRoot == "." || projectRoot == "" {
		projectRoot = filepath.Dir(callerPath)
	}

	project := textutil.SanitizeToken(filepath.Base(projectRoot))
	base := filepath.Base(callerPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	script := textutil.SanitizeToken(stem)

	rel, err := filepath.Rel(projectRoot, callerPath)
	if err != nil {
		rel = base
	}
	seed := strings.ToLower(project + "\x00" + filepath.ToSlash(rel))
	sum := sha256.Sum256([]byte(seed))

	return fmt.Sprintf("%s-%s-%s", project, script, hex.EncodeToString(sum[:4]))
}
