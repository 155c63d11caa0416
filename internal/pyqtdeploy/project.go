package pyqtdeploy

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// The current project file format version.
const projectVersion = 0

// Project is the data model behind a project file. The interactive
// editing surface produces it; the resolver only reads it.
type Project struct {
	Name string

	ApplicationScript      string
	PyQtModules            []string
	PythonTargetVersion    string
	PythonSSL              bool
	PythonTargetIncludeDir string
	PythonTargetLibrary    string

	// StandardLibrary holds the explicitly selected standard library
	// module names.
	StandardLibrary []string

	absFilename string
}

// The on-disk representation.

type xmlPyQtModule struct {
	Name string `xml:"name,attr"`
}

type xmlStdlibModule struct {
	Name string `xml:"name,attr"`
}

type xmlApplication struct {
	Script      string          `xml:"script,attr"`
	PyQtModules []xmlPyQtModule `xml:"PyQtModule"`
}

type xmlPython struct {
	TargetIncludeDir string            `xml:"targetincludedir,attr"`
	TargetLibrary    string            `xml:"targetlibrary,attr"`
	TargetVersion    string            `xml:"targetversion,attr"`
	SSL              string            `xml:"ssl,attr"`
	StdlibModules    []xmlStdlibModule `xml:"StdlibModule"`
}

type xmlProject struct {
	XMLName     xml.Name        `xml:"Project"`
	Version     string          `xml:"version,attr"`
	Application *xmlApplication `xml:"Application"`
	Python      *xmlPython      `xml:"Python"`
}

// LoadProject returns a new project loaded from the given file.
func LoadProject(filename string) (*Project, error) {
	absFilename, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(absFilename)
	if err != nil {
		return nil, fmt.Errorf("there was an error reading the project file: %w", err)
	}

	var doc xmlProject
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("the project file is invalid: %w", err)
	}

	if doc.Version == "" {
		return nil, fmt.Errorf("the project file is invalid: missing 'version'")
	}
	docVersion, err := strconv.Atoi(doc.Version)
	if err != nil {
		return nil, fmt.Errorf("the project file is invalid: invalid 'version'")
	}
	if docVersion != projectVersion {
		return nil, fmt.Errorf("the project's format is version %d but only version %d is supported", docVersion, projectVersion)
	}

	if doc.Application == nil {
		return nil, fmt.Errorf("the project file is invalid: missing 'Application' tag")
	}
	if doc.Python == nil {
		return nil, fmt.Errorf("the project file is invalid: missing 'Python' tag")
	}

	project := &Project{
		Name:                   filepath.Base(absFilename),
		ApplicationScript:      doc.Application.Script,
		PythonTargetIncludeDir: doc.Python.TargetIncludeDir,
		PythonTargetLibrary:    doc.Python.TargetLibrary,
		PythonTargetVersion:    doc.Python.TargetVersion,
		PythonSSL:              doc.Python.SSL == "1",
		absFilename:            absFilename,
	}

	if project.PythonTargetVersion == "" {
		project.PythonTargetVersion = "3.6"
	}

	for _, m := range doc.Application.PyQtModules {
		if m.Name == "" {
			return nil, fmt.Errorf("the project file is invalid: missing 'name'")
		}
		project.PyQtModules = append(project.PyQtModules, m.Name)
	}

	for _, m := range doc.Python.StdlibModules {
		if m.Name == "" {
			return nil, fmt.Errorf("the project file is invalid: missing 'name'")
		}
		project.StandardLibrary = append(project.StandardLibrary, m.Name)
	}

	return project, nil
}

// Save writes the project back to the file it was loaded from.
func (p *Project) Save() error {
	return p.SaveAs(p.absFilename)
}

// SaveAs writes the project to the given file and makes the file the
// destination of subsequent saves.
func (p *Project) SaveAs(filename string) error {
	absFilename, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	ssl := "0"
	if p.PythonSSL {
		ssl = "1"
	}

	doc := xmlProject{
		Version: strconv.Itoa(projectVersion),
		Application: &xmlApplication{
			Script: p.ApplicationScript,
		},
		Python: &xmlPython{
			TargetIncludeDir: p.PythonTargetIncludeDir,
			TargetLibrary:    p.PythonTargetLibrary,
			TargetVersion:    p.PythonTargetVersion,
			SSL:              ssl,
		},
	}

	for _, m := range p.PyQtModules {
		doc.Application.PyQtModules = append(doc.Application.PyQtModules, xmlPyQtModule{Name: m})
	}
	for _, m := range p.StandardLibrary {
		doc.Python.StdlibModules = append(doc.Python.StdlibModules, xmlStdlibModule{Name: m})
	}

	data, err := xml.MarshalIndent(&doc, "", "    ")
	if err != nil {
		return fmt.Errorf("there was an error writing the project file: %w", err)
	}
	data = append([]byte(xml.Header), data...)

	if err := os.WriteFile(absFilename, data, 0o644); err != nil {
		return fmt.Errorf("there was an error writing the project file: %w", err)
	}

	// Only do this after the project has been successfully saved.
	p.absFilename = absFilename
	p.Name = filepath.Base(absFilename)

	return nil
}
