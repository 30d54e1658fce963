package xcodeproj

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"dreampipe/internal/logging"
)

const (
	phaseName = "Convert 3D Models"

	// Anchors in the pbxproj text format. The phase reference goes into
	// the target's buildPhases list right after Resources; the phase
	// definition goes before the Resources section.
	buildPhasesAnchor = "/* Resources */,"
	sectionAnchor     = "/* Begin PBXResourcesBuildPhase section */"
)

// phaseScript is the shell script installed as the build phase. It runs
// tools/convert.sh when present and is a no-op otherwise.
const phaseScript = `#!/bin/bash
# 3D model conversion build phase

set -euo pipefail

PROJECT_DIR="$PROJECT_DIR"
TOOLS_DIR="$PROJECT_DIR/tools"

echo "Starting 3D model conversion..."

if [[ -x "$TOOLS_DIR/convert.sh" ]]; then
    echo "Running conversion script..."
    "$TOOLS_DIR/convert.sh"
else
    echo "convert.sh not found, skipping"
fi

echo "Build phase completed"
`

var (
	// ErrProjectNotFound indicates the project.pbxproj file is missing
	ErrProjectNotFound = errors.New("project.pbxproj not found")

	// ErrAnchorNotFound indicates the expected insertion point is absent
	// from the project file; the descriptor is left untouched.
	ErrAnchorNotFound = errors.New("insertion anchor not found")
)

// Patcher idempotently inserts the conversion build phase into an Xcode
// project descriptor
type Patcher struct {
	log logging.Logger
}

// NewPatcher creates a project patcher
func NewPatcher(log logging.Logger) *Patcher {
	return &Patcher{log: log}
}

// AddConvertPhase injects the "Convert 3D Models" run-script build phase
// into the .xcodeproj at projectPath. Returns false without touching the
// file when the phase is already present. The original descriptor is
// backed up next to itself before any mutation.
func (p *Patcher) AddConvertPhase(projectPath string) (bool, error) {
	projectFile := filepath.Join(projectPath, "project.pbxproj")

	data, err := os.ReadFile(projectFile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("%w: %s", ErrProjectNotFound, projectFile)
		}
		return false, fmt.Errorf("failed to read project file: %w", err)
	}
	content := string(data)

	p.log.Logf("Patching project file: %s", projectFile)

	// Idempotency: one run-script phase is all we ever install
	if strings.Contains(content, "PBXShellScriptBuildPhase") {
		p.log.Logf("Project already contains a run script build phase")
		return false, nil
	}

	phaseID := newPhaseID()

	patched, err := insertPhaseReference(content, phaseID)
	if err != nil {
		return false, err
	}

	patched, err = insertPhaseSection(patched, phaseID)
	if err != nil {
		return false, err
	}

	// Back up the original before mutating
	backupFile := projectFile + ".backup"
	if err := os.WriteFile(backupFile, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write backup: %w", err)
	}
	p.log.Logf("Backed up original to: %s", backupFile)

	if err := os.WriteFile(projectFile, []byte(patched), 0644); err != nil {
		return false, fmt.Errorf("failed to write project file: %w", err)
	}

	p.log.Logf("Added '%s' build phase", phaseName)
	return true, nil
}

// insertPhaseReference adds the phase ID to the target's buildPhases
// list, directly after the Resources entry
func insertPhaseReference(content, phaseID string) (string, error) {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines)+1)
	inserted := false

	for _, line := range lines {
		out = append(out, line)
		if !inserted && strings.HasSuffix(strings.TrimRight(line, " "), buildPhasesAnchor) {
			out = append(out, fmt.Sprintf("\t\t\t%s /* %s */,", phaseID, phaseName))
			inserted = true
		}
	}

	if !inserted {
		return "", fmt.Errorf("%w: no Resources entry in buildPhases", ErrAnchorNotFound)
	}

	return strings.Join(out, "\n"), nil
}

// insertPhaseSection adds the PBXShellScriptBuildPhase definition before
// the Resources build phase section
func insertPhaseSection(content, phaseID string) (string, error) {
	if !strings.Contains(content, sectionAnchor) {
		return "", fmt.Errorf("%w: no PBXResourcesBuildPhase section", ErrAnchorNotFound)
	}

	// The pbxproj format stores the script as a quoted string literal;
	// JSON string encoding produces the required escaping
	scriptLiteral, err := json.Marshal(phaseScript)
	if err != nil {
		return "", fmt.Errorf("failed to encode phase script: %w", err)
	}

	section := fmt.Sprintf(`
/* Begin PBXShellScriptBuildPhase section */
		%[1]s /* %[2]s */ = {
			isa = PBXShellScriptBuildPhase;
			buildActionMask = 2147483647;
			files = (
			);
			inputFileListPaths = (
			);
			inputPaths = (
			);
			outputFileListPaths = (
			);
			outputPaths = (
			);
			runOnlyForDeploymentPostprocessing = 0;
			shellPath = /bin/bash;
			shellScript = %[3]s;
		};
/* End PBXShellScriptBuildPhase section */

`, phaseID, phaseName, scriptLiteral)

	return strings.Replace(content, sectionAnchor, section+sectionAnchor, 1), nil
}

// newPhaseID generates a pbxproj-style 24-character uppercase hex object ID
func newPhaseID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return id[:24]
}
