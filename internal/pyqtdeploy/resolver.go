package pyqtdeploy

import "sort"

// depState tracks the requirement status of one module during a single
// resolution run.
type depState struct {
	explicit bool
	implicit bool

	// visited is the per-run visit marker. It memoises dependency
	// propagation so a module reached through several paths (or a
	// cycle) is expanded exactly once per run. This is deliberately not
	// cycle detection: a dependency cycle converges silently instead of
	// being reported.
	visited bool
}

// ResolveStdlib computes the transitive closure of standard library
// modules needed for a selection, honouring SSL constraints.
//
// The returned module map holds every required module with the value
// reporting whether the requirement is explicit (named in the
// selection) rather than implicit (core module or reached through a
// dependency edge). The library map holds the external libraries the
// required modules link against.
//
// A module whose SSL constraint does not match sslEnabled is excluded
// entirely: it is never marked explicit or implicit and propagation
// stops at it, no matter how it was reached. An explicitly selected
// module whose dependency is excluded this way stays in the result
// itself; the dependency is silently dropped.
//
// When includeHidden is set, the hidden (packaging time) dependencies
// of every required module are added as implicit requirements, without
// overriding an explicit flag and without propagating further.
func ResolveStdlib(table map[string]*ModuleDescriptor, selected map[string]bool, sslEnabled bool, includeHidden bool) (map[string]bool, map[string]bool) {
	states := make(map[string]*depState, len(table))

	sslOK := func(m *ModuleDescriptor) bool {
		return m.SSL == nil || *m.SSL == sslEnabled
	}

	state := func(name string) *depState {
		st, ok := states[name]
		if !ok {
			st = &depState{}
			states[name] = st
		}
		return st
	}

	var require func(m *ModuleDescriptor, explicit bool)
	require = func(m *ModuleDescriptor, explicit bool) {
		st := state(m.Name)
		if explicit {
			st.explicit = true
		} else {
			st.implicit = true
		}

		if st.visited {
			return
		}
		st.visited = true

		for _, dep := range m.Deps {
			d, ok := table[dep]
			if !ok || !sslOK(d) {
				continue
			}
			require(d, false)
		}
	}

	// Seed from the core modules and the selection, in sorted order so
	// repeated runs over the same inputs behave identically.
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := table[name]
		if !sslOK(m) {
			continue
		}
		if m.Core {
			require(m, false)
		}
		if selected[name] {
			require(m, true)
		}
	}

	modules := make(map[string]bool)
	for name, st := range states {
		if st.explicit || st.implicit {
			modules[name] = st.explicit
		}
	}

	if includeHidden {
		included := make([]string, 0, len(modules))
		for name := range modules {
			included = append(included, name)
		}
		sort.Strings(included)

		for _, name := range included {
			for _, hidden := range table[name].HiddenDeps {
				d, ok := table[hidden]
				if !ok || !sslOK(d) {
					continue
				}
				if _, present := modules[hidden]; !present {
					modules[hidden] = false
				}
			}
		}
	}

	libraries := make(map[string]bool)
	for name := range modules {
		if lib := table[name].Lib; lib != "" {
			libraries[lib] = true
		}
	}

	return modules, libraries
}

// StdlibRequirements resolves the module and external library
// requirements for a project's explicit selection and SSL setting.
func StdlibRequirements(project *Project, includeHidden bool) (map[string]bool, map[string]bool, error) {
	table, err := MetadataForVersion(project.PythonTargetVersion)
	if err != nil {
		return nil, nil, err
	}

	selected := make(map[string]bool, len(project.StandardLibrary))
	for _, name := range project.StandardLibrary {
		selected[name] = true
	}

	modules, libraries := ResolveStdlib(table, selected, project.PythonSSL, includeHidden)
	return modules, libraries, nil
}
