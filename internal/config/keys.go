package config

import (
	"fmt"
	"strings"
)

// Key names a single configuration setting.
type Key string

// Platform descriptors used for test selection.
const (
	TestOS  Key = "TEST_OS_STRING"
	TestHW  Key = "TEST_HW_STRING"
	TestJVM Key = "TEST_JVM_STRING"
)

// Test-control and target hosts.
const (
	StafLocalHostname  Key = "STAF_LOCAL_HOSTNAME"
	StafRemoteHostname Key = "STAF_REMOTE_HOSTNAME"
)

// Scratch space, install tree and package under test.
const (
	TempDir           Key = "TMPDIR"
	PasswordFile      Key = "PSWDFILE"
	InstallDir        Key = "OPENDSDIR"
	PackageName       Key = "OPENDSNAME"
	ZipName           Key = "ZIPNAME"
	ZipPath           Key = "ZIPPATH"
	TestsRoot         Key = "TESTS_ROOT"
	TestsDir          Key = "TESTS_DIR"
	TestsSharedDir    Key = "TESTS_SHARED_DIR"
	TestsFunctionsDir Key = "TESTS_FUNCTIONS_DIR"
	TestsDataDir      Key = "TESTS_DATA_DIR"
	TestsJavaDir      Key = "TESTS_JAVA_DIR"
)

// Connection parameters of the directory instance under test.
const (
	InstanceDN       Key = "DIRECTORY_INSTANCE_DN"
	InstancePassword Key = "DIRECTORY_INSTANCE_PSWD"
	InstanceDir      Key = "DIRECTORY_INSTANCE_DIR"
	InstanceHost     Key = "DIRECTORY_INSTANCE_HOST"
	InstancePort     Key = "DIRECTORY_INSTANCE_PORT"
	InstanceSSLPort  Key = "DIRECTORY_INSTANCE_SSL_PORT"
	InstanceSuffix   Key = "DIRECTORY_INSTANCE_SFX"
	InstanceBackend  Key = "DIRECTORY_INSTANCE_BE"
)

// Tooling, logs and post-run reporting.
const (
	JavaHome   Key = "JAVA_HOME"
	LogsRoot   Key = "LOGS_ROOT"
	LogsURI    Key = "LOGS_URI"
	SendMail   Key = "SEND_MAIL_AFTER_TEST_RUN"
	SendMailTo Key = "SEND_MAIL_TO"
	ConfigTool Key = "DSCONFIG"
)

// entry declares one row of the table. Literal rows carry a default value;
// derived rows carry a single-verb format applied to the value of source.
type entry struct {
	key     Key
	literal string
	source  Key
	format  string
}

func (e entry) derived() bool {
	return e.source != ""
}

// catalog is ordered so that every source precedes the rows derived from it.
var catalog = []entry{
	{key: TestOS, literal: "Linux"},
	{key: TestHW, literal: "i386"},
	{key: TestJVM, literal: "1.6.0_01(32 bits)"},
	{key: StafLocalHostname, literal: "localhost"},
	{key: StafRemoteHostname, literal: "localhost"},
	{key: TempDir, literal: "/path/to/opends/tests/functional-run/tmp"},
	{key: PasswordFile, source: TempDir, format: "%s/password"},
	{key: InstallDir, literal: "/path/to/opends"},
	{key: PackageName, literal: "OpenDS-0.9.0"},
	{key: ZipName, literal: "OpenDS-0.9.0.zip"},
	{key: ZipPath, literal: "/path/to/opends/build/package"},
	{key: TestsRoot, source: InstallDir, format: "%s/tests"},
	{key: TestsDir, source: TestsRoot, format: "%s/functional-tests"},
	{key: TestsSharedDir, source: TestsDir, format: "%s/shared"},
	{key: TestsFunctionsDir, source: TestsSharedDir, format: "%s/functions"},
	{key: TestsDataDir, source: TestsSharedDir, format: "%s/data"},
	{key: TestsJavaDir, source: TestsSharedDir, format: "%s/java"},
	{key: InstanceDN, literal: "cn=myself"},
	{key: InstancePassword, literal: "password"},
	{key: InstanceDir, source: TempDir, format: "%s"},
	{key: InstanceHost, literal: "localhost"},
	{key: InstancePort, literal: "1389"},
	{key: InstanceSSLPort, literal: "1636"},
	{key: InstanceSuffix, literal: "dc=com"},
	{key: InstanceBackend, literal: "userRoot"},
	{key: JavaHome, literal: "/path/to/java/6/jdk1.6.0_01/jre"},
	{key: LogsRoot, source: TempDir, format: "%s"},
	{key: LogsURI, literal: ""},
	{key: SendMail, literal: "false"},
	{key: SendMailTo, literal: ""},
	{key: ConfigTool, literal: "dsconfig"},
}

var catalogIndex = make(map[Key]int, len(catalog))

func init() {
	for i, e := range catalog {
		if _, dup := catalogIndex[e.key]; dup {
			panic(fmt.Sprintf("config: duplicate key %s", e.key))
		}
		if e.derived() {
			if _, ok := catalogIndex[e.source]; !ok {
				panic(fmt.Sprintf("config: %s derives from %s which is not declared before it", e.key, e.source))
			}
			if strings.Count(e.format, "%s") != 1 || strings.Contains(fmt.Sprintf(e.format, ""), "%!") {
				panic(fmt.Sprintf("config: malformed template %q for %s", e.format, e.key))
			}
		}
		catalogIndex[e.key] = i
	}
}

// Keys returns every known key in declaration order.
func Keys() []Key {
	keys := make([]Key, len(catalog))
	for i, e := range catalog {
		keys[i] = e.key
	}
	return keys
}

// ParseKey resolves a key name. Matching is case-insensitive.
func ParseKey(name string) (Key, error) {
	key := Key(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := catalogIndex[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return key, nil
}

// Known reports whether k is part of the table.
func (k Key) Known() bool {
	_, ok := catalogIndex[k]
	return ok
}

// Derived reports whether k is computed from another key.
func (k Key) Derived() bool {
	i, ok := catalogIndex[k]
	return ok && catalog[i].derived()
}

// Source returns the key k is derived from.
func (k Key) Source() (Key, bool) {
	i, ok := catalogIndex[k]
	if !ok || !catalog[i].derived() {
		return "", false
	}
	return catalog[i].source, true
}

// Template returns the format applied to k's source, for derived keys.
func (k Key) Template() (string, bool) {
	i, ok := catalogIndex[k]
	if !ok || !catalog[i].derived() {
		return "", false
	}
	return catalog[i].format, true
}

// Default returns the built-in literal for k, or "" for derived and unknown keys.
func (k Key) Default() string {
	i, ok := catalogIndex[k]
	if !ok {
		return ""
	}
	return catalog[i].literal
}

// EnvVar is the environment variable that overrides k.
func (k Key) EnvVar() string {
	return EnvPrefix + string(k)
}

func (k Key) String() string {
	return string(k)
}
