package pyqtdeploy

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ModuleDescriptor describes a single standard library module: whether
// the interpreter always needs it, its SSL constraint, the modules it
// drags in when selected and the external library it links against.
// Descriptors are built once per metadata table and never mutated.
type ModuleDescriptor struct {
	Name string

	// Core modules are needed by the interpreter itself and are always
	// an implicit requirement.
	Core bool

	// SSL is nil when the module is wanted for any SSL configuration,
	// true when it only applies to SSL-enabled builds and false when it
	// only applies to SSL-disabled builds (e.g. the fallback hash
	// implementations).
	SSL *bool

	// Deps are propagated through the dependency graph.
	Deps []string

	// HiddenDeps are needed at packaging time but are not part of the
	// dependency propagation graph.
	HiddenDeps []string

	// Lib is the well known identifier of the external library the
	// module links against, if any.
	Lib string
}

var (
	sslTrue  = true
	sslFalse = false
)

func mod(name string, deps ...string) *ModuleDescriptor {
	return &ModuleDescriptor{Name: name, Deps: deps}
}

func coreMod(name string, deps ...string) *ModuleDescriptor {
	return &ModuleDescriptor{Name: name, Core: true, Deps: deps}
}

func libMod(name, lib string, deps ...string) *ModuleDescriptor {
	return &ModuleDescriptor{Name: name, Lib: lib, Deps: deps}
}

func sslMod(name string, ssl bool, lib string, deps ...string) *ModuleDescriptor {
	v := &sslFalse
	if ssl {
		v = &sslTrue
	}
	return &ModuleDescriptor{Name: name, SSL: v, Lib: lib, Deps: deps}
}

func (m *ModuleDescriptor) withHidden(deps ...string) *ModuleDescriptor {
	m.HiddenDeps = deps
	return m
}

// baseMetadata returns the table shared by every supported feature
// version. Callers get a fresh table each time; version specific
// adjustments are applied on top of it.
func baseMetadata() map[string]*ModuleDescriptor {
	modules := []*ModuleDescriptor{
		// Modules the interpreter imports during start-up.
		coreMod("_collections_abc"),
		coreMod("_sitebuiltins"),
		coreMod("_weakrefset"),
		coreMod("abc"),
		coreMod("codecs"),
		coreMod("collections"),
		coreMod("copyreg"),
		coreMod("encodings", "codecs"),
		coreMod("enum"),
		coreMod("functools", "types", "weakref"),
		coreMod("genericpath", "stat"),
		coreMod("heapq"),
		coreMod("io"),
		coreMod("keyword"),
		coreMod("linecache", "tokenize"),
		coreMod("operator"),
		coreMod("os", "errno", "stat").withHidden("posixpath", "ntpath"),
		coreMod("posixpath", "genericpath"),
		mod("ntpath", "genericpath", "string"),
		coreMod("re", "sre_compile", "sre_constants", "sre_parse"),
		coreMod("reprlib"),
		coreMod("site"),
		coreMod("sre_compile", "sre_constants", "sre_parse"),
		coreMod("sre_constants"),
		coreMod("sre_parse", "sre_constants"),
		coreMod("stat"),
		coreMod("sysconfig"),
		coreMod("token"),
		coreMod("tokenize", "token"),
		coreMod("traceback", "linecache"),
		coreMod("types"),
		coreMod("warnings"),
		coreMod("weakref", "_weakrefset"),

		// The rest of the standard library.
		mod("argparse", "copy", "gettext", "textwrap"),
		mod("asyncio", "concurrent", "selectors", "socket", "threading").withHidden("ssl"),
		mod("atexit"),
		mod("base64", "binascii", "struct"),
		mod("binascii"),
		mod("bisect"),
		libMod("bz2", "bz2", "_compression", "threading"),
		mod("calendar", "datetime", "locale"),
		mod("cmath", "math"),
		mod("concurrent", "threading"),
		mod("configparser", "collections"),
		mod("contextlib", "collections"),
		mod("copy", "weakref"),
		mod("csv", "io"),
		mod("ctypes", "struct"),
		libMod("curses", "curses", "_curses"),
		libMod("_curses", "curses"),
		libMod("_curses_panel", "panel", "_curses"),
		mod("datetime", "math", "time").withHidden("_strptime"),
		libMod("dbm", "", "struct", "io").withHidden("_dbm", "_gdbm"),
		libMod("_dbm", "dbm"),
		libMod("_gdbm", "gdbm"),
		mod("decimal", "numbers"),
		mod("difflib", "heapq"),
		mod("email", "base64", "datetime", "quopri", "uu"),
		mod("errno"),
		mod("fnmatch", "posixpath"),
		mod("fractions", "decimal", "numbers"),
		mod("ftplib", "socket").withHidden("ssl"),
		mod("getpass", "io", "os"),
		mod("gettext", "copy", "struct"),
		mod("glob", "fnmatch"),
		mod("gzip", "_compression", "struct", "zlib"),

		// hashlib prefers the OpenSSL implementations and only falls
		// back to the bundled ones when there is no SSL support.
		mod("hashlib", "_hashlib", "_md5", "_sha1", "_sha256", "_sha512"),
		sslMod("_hashlib", true, "ssl"),
		sslMod("_md5", false, ""),
		sslMod("_sha1", false, ""),
		sslMod("_sha256", false, ""),
		sslMod("_sha512", false, ""),

		mod("hmac", "hashlib", "warnings"),
		mod("html", "re"),
		mod("http", "email", "socket").withHidden("ssl"),
		mod("imaplib", "datetime", "socket", "subprocess").withHidden("ssl"),
		mod("ipaddress"),
		mod("json", "codecs"),
		mod("locale", "encodings"),
		mod("logging", "string", "threading", "traceback"),
		libMod("lzma", "lzma", "_compression"),
		mod("math"),
		mod("mimetypes", "posixpath", "urllib"),
		mod("multiprocessing", "pickle", "queue", "socket", "threading"),
		mod("numbers"),
		mod("pickle", "copyreg", "struct").withHidden("pprint"),
		mod("pprint", "io"),
		mod("quopri", "binascii"),
		mod("queue", "heapq", "threading"),
		mod("random", "hashlib", "types"),
		libMod("readline", "readline"),
		mod("select"),
		mod("selectors", "select"),
		mod("shlex", "collections"),
		mod("shutil", "collections", "fnmatch").withHidden("bz2", "lzma", "zlib"),
		mod("signal"),
		mod("smtplib", "base64", "copy", "datetime", "email", "hmac", "socket").withHidden("ssl"),
		mod("socket", "selectors"),
		mod("socketserver", "socket", "threading", "traceback"),
		libMod("sqlite3", "sqlite3", "datetime"),
		sslMod("ssl", true, "", "_ssl", "base64", "calendar", "socket"),
		sslMod("_ssl", true, "ssl"),
		mod("string"),
		mod("struct"),
		mod("subprocess", "select", "selectors", "signal", "threading"),
		mod("tarfile", "copy", "struct").withHidden("bz2", "gzip", "lzma"),
		mod("tempfile", "random", "shutil"),
		mod("textwrap", "re"),
		mod("threading", "traceback"),
		mod("time"),
		mod("unittest", "difflib", "logging", "pprint"),
		mod("urllib", "base64", "email", "http", "socket").withHidden("ssl"),
		mod("uu", "binascii"),
		mod("uuid").withHidden("ctypes"),
		mod("xml").withHidden("urllib"),
		mod("zipfile", "binascii", "shutil", "struct", "threading").withHidden("bz2", "lzma", "zlib"),
		libMod("zlib", "zlib"),

		// _compression is the shared base for the compression modules.
		mod("_compression", "io"),
		mod("_strptime", "calendar", "datetime", "locale"),
	}

	table := make(map[string]*ModuleDescriptor, len(modules))
	for _, m := range modules {
		table[m.Name] = m
	}
	return table
}

// metadataForMinor builds the table for a 3.x feature version.
func metadataForMinor(minor int) map[string]*ModuleDescriptor {
	table := baseMetadata()

	if minor >= 6 {
		for _, m := range []*ModuleDescriptor{
			sslMod("_blake2", false, ""),
			sslMod("_sha3", false, ""),
			mod("secrets", "base64", "hmac", "random"),
		} {
			table[m.Name] = m
		}
		table["hashlib"] = mod("hashlib", "_hashlib", "_md5", "_sha1", "_sha256", "_sha512", "_blake2", "_sha3")
	}

	if minor >= 7 {
		for _, m := range []*ModuleDescriptor{
			mod("contextvars"),
			mod("dataclasses", "copy", "re"),
		} {
			table[m.Name] = m
		}
	}

	return table
}

// MetadataForVersion returns the module metadata table for a target
// Python feature version. Only the major.minor part is significant.
func MetadataForVersion(version string) (map[string]*ModuleDescriptor, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("invalid Python version '%s': %w", version, err)
	}

	supported, err := semver.NewConstraint(">= 3.5.0, < 3.8.0")
	if err != nil {
		return nil, err
	}
	if v.Major() != 3 || !supported.Check(v) {
		return nil, fmt.Errorf("unsupported Python version v%d.%d", v.Major(), v.Minor())
	}

	return metadataForMinor(int(v.Minor())), nil
}

// ExternalLibrary describes an external C library the standard library
// may link against and the qmake fragments needed to do so.
type ExternalLibrary struct {
	Name     string // the well known internal identifier
	UserName string // the name as presented to the user
	Defines  string // DEFINES to add to the .pro file

	// libs maps a target platform to the LIBS fragment; the "" key is
	// the default.
	libs map[string]string
}

// GetLibs returns the target specific LIBS fragment.
func (e *ExternalLibrary) GetLibs(target *Target) string {
	libs, ok := e.libs[target.Platform]
	if !ok {
		libs = e.libs[""]
	}
	return "-L$SYSROOT/lib " + libs
}

// The meta-data for each external library that might be needed by the
// Python standard library.
var externalLibraries = []*ExternalLibrary{
	{Name: "ssl", UserName: "SSL encryption", libs: map[string]string{
		"win": "-lssleay32 -llibeay32",
		"":    "-lssl -lcrypto",
	}},
	{Name: "bz2", UserName: "bz2 compression", libs: map[string]string{"": "-lbz2"}},
	{Name: "lzma", UserName: "LZMA compression", libs: map[string]string{"": "-llzma"}},
	{Name: "dbm", UserName: "dbm database", libs: map[string]string{"": "-lndbm"}},
	{Name: "gdbm", UserName: "gdbm database", libs: map[string]string{"": "-lgdbm"}},
	{Name: "sqlite3", UserName: "SQLite database", libs: map[string]string{"": "-lsqlite3"}},
	{Name: "readline", UserName: "readline", libs: map[string]string{"": "-lreadline -ltermcap"}},
	{Name: "curses", UserName: "Curses", libs: map[string]string{"": "-lcurses -ltermcap"}},
	{Name: "panel", UserName: "Curses panel", libs: map[string]string{"": "-lpanel -lcurses"}},
	{Name: "zlib", UserName: "zlib compression", libs: map[string]string{"": "-lz"}},
}

// ExternalLibraryMetadata returns the descriptor for a well known
// library identifier.
func ExternalLibraryMetadata(name string) *ExternalLibrary {
	for _, e := range externalLibraries {
		if e.Name == name {
			return e
		}
	}
	return nil
}
