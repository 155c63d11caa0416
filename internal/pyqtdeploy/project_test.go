package pyqtdeploy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleProject = `<?xml version="1.0" encoding="UTF-8"?>
<Project version="0">
    <Application script="app.py">
        <PyQtModule name="QtCore"/>
        <PyQtModule name="QtWidgets"/>
    </Application>
    <Python targetincludedir="" targetlibrary="" targetversion="3.6" ssl="1">
        <StdlibModule name="ssl"/>
        <StdlibModule name="zipfile"/>
    </Python>
</Project>
`

func writeProject(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.pdy")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unable to write project: %v", err)
	}
	return path
}

func TestLoadProject(t *testing.T) {
	project, err := LoadProject(writeProject(t, sampleProject))
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if project.ApplicationScript != "app.py" {
		t.Fatalf("unexpected script: %q", project.ApplicationScript)
	}
	if !project.PythonSSL {
		t.Fatalf("ssl flag not loaded")
	}
	if project.PythonTargetVersion != "3.6" {
		t.Fatalf("unexpected version: %q", project.PythonTargetVersion)
	}
	if len(project.PyQtModules) != 2 || project.PyQtModules[0] != "QtCore" {
		t.Fatalf("PyQt modules not loaded: %v", project.PyQtModules)
	}
	if len(project.StandardLibrary) != 2 || project.StandardLibrary[1] != "zipfile" {
		t.Fatalf("stdlib selection not loaded: %v", project.StandardLibrary)
	}
}

func TestLoadProjectDefaultVersion(t *testing.T) {
	content := strings.Replace(sampleProject, ` targetversion="3.6"`, "", 1)

	project, err := LoadProject(writeProject(t, content))
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if project.PythonTargetVersion != "3.6" {
		t.Fatalf("missing version must default to 3.6, got %q", project.PythonTargetVersion)
	}
}

func TestLoadProjectUnsupportedVersion(t *testing.T) {
	content := strings.Replace(sampleProject, `<Project version="0">`, `<Project version="99">`, 1)

	_, err := LoadProject(writeProject(t, content))
	if err == nil {
		t.Fatalf("expected an error for a future format version")
	}
	if !strings.Contains(err.Error(), "version 99") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadProjectInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"not xml":     "bang",
		"no version":  `<Project><Application script=""/><Python/></Project>`,
		"no app":      `<Project version="0"><Python/></Project>`,
		"no python":   `<Project version="0"><Application script=""/></Project>`,
		"unnamed mod": `<Project version="0"><Application script=""><PyQtModule/></Application><Python/></Project>`,
	} {
		if _, err := LoadProject(writeProject(t, content)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestProjectSaveRoundTrip(t *testing.T) {
	project, err := LoadProject(writeProject(t, sampleProject))
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	saved := filepath.Join(t.TempDir(), "saved.pdy")
	if err := project.SaveAs(saved); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}

	reloaded, err := LoadProject(saved)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if reloaded.ApplicationScript != project.ApplicationScript ||
		reloaded.PythonSSL != project.PythonSSL ||
		len(reloaded.StandardLibrary) != len(project.StandardLibrary) {
		t.Fatalf("round trip lost data: %+v vs %+v", reloaded, project)
	}
	if reloaded.Name != "saved.pdy" {
		t.Fatalf("project name not updated on save: %q", reloaded.Name)
	}
}
