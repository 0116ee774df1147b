// Package config loads the project configuration file and hands each package its own section.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
	"gopkg.in/yaml.v3"
)

var (
	sectionsMu sync.RWMutex
	sections   = map[string]json.RawMessage{}
	loadedPath string
)

/*
InitializeConfig reads the configuration file at configPath and keeps its top
level sections in memory. Sections are later decoded by LoadSection into the
Config struct of the package that owns them.

Both JSON and YAML files are accepted (decided by extension). A missing file
is not fatal: every package falls back to its defaults.
*/
func InitializeConfig(configPath string) {
	e := loadFile(configPath)
	if e != nil {
		tl.Log(tl.Warning, palette.YellowBold, "Config file '%s' %s, using %s: '%s'", configPath, "could not be loaded", "defaults", e)
		return
	}
	tl.Log(tl.Info, palette.Green, "Loaded config file '%s' with '%d' sections", configPath, len(sections))
}

func loadFile(configPath string) (e *xerr.Error) {
	fileBytes, readErr := os.ReadFile(configPath)
	if readErr != nil {
		return xerr.NewError(readErr, "read config file", configPath)
	}

	parsed, e := parseSections(configPath, fileBytes)
	if e != nil {
		return e
	}

	sectionsMu.Lock()
	sections = parsed
	loadedPath = configPath
	sectionsMu.Unlock()
	return nil
}

/*
parseSections turns the file into section name -> raw JSON. YAML documents are
re-encoded as JSON so every package only needs json struct tags.
*/
func parseSections(configPath string, fileBytes []byte) (parsed map[string]json.RawMessage, e *xerr.Error) {
	parsed = map[string]json.RawMessage{}

	ext := strings.ToLower(filepath.Ext(configPath))
	if ext == ".yaml" || ext == ".yml" {
		var document map[string]any
		yamlErr := yaml.Unmarshal(fileBytes, &document)
		if yamlErr != nil {
			return parsed, xerr.NewError(yamlErr, "parse YAML config", configPath)
		}
		for name, value := range document {
			encoded, marshalErr := json.Marshal(value)
			if marshalErr != nil {
				return parsed, xerr.NewError(marshalErr, "re-encode YAML section as JSON", name)
			}
			parsed[name] = encoded
		}
		return parsed, nil
	}

	jsonErr := json.Unmarshal(fileBytes, &parsed)
	if jsonErr != nil {
		return parsed, xerr.NewError(jsonErr, "parse JSON config", configPath)
	}
	return parsed, nil
}

/*
LoadSection decodes the named section into a new T.

Returns nil when the section is absent, which package InitializeConfig
functions treat as "keep defaults".
*/
func LoadSection[T any](name string) *T {
	sectionsMu.RLock()
	raw, found := sections[name]
	sectionsMu.RUnlock()
	if !found {
		return nil
	}

	var section T
	err := json.Unmarshal(raw, &section)
	if err != nil {
		tl.Log(tl.Warning, palette.YellowBold, "Section '%s' in '%s' is %s: '%s'", name, loadedPath, "invalid", err)
		return nil
	}
	return &section
}

// CheckIfEnvVarsPresent warns about every environment variable that is not set.
func CheckIfEnvVarsPresent(names ...string) (missing []string) {
	for _, name := range names {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
			tl.Log(tl.Warning, palette.Yellow, "Environment variable '%s' is %s", name, "not set")
		}
	}
	return missing
}

/*
GetPackageName returns the name of the package that called it, e.g.
"echo-middleware" for condo-plates/src/pkg/echo-middleware.InitializeConfig.
*/
func GetPackageName() string {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return "unknown"
	}
	return packageNameFromFunc(runtime.FuncForPC(pc).Name())
}

func packageNameFromFunc(funcName string) string {
	lastSlash := strings.LastIndex(funcName, "/")
	rest := funcName[lastSlash+1:]
	dot := strings.Index(rest, ".")
	if dot < 0 {
		return rest
	}
	return rest[:dot]
}

// reset is used by tests.
func reset() {
	sectionsMu.Lock()
	sections = map[string]json.RawMessage{}
	loadedPath = ""
	sectionsMu.Unlock()
}
