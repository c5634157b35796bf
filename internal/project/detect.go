// Package project detects what a repository is: its name and primary
// language, read from the manifest files at its root.
package project

import (
	"bufio"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"hammy/internal/grammar"
	"hammy/internal/paths"
)

// Info stores detected project information.
type Info struct {
	Name         string           `json:"name"`
	Language     grammar.Language `json:"language,omitempty"`
	ManifestPath string           `json:"manifest_path,omitempty"`
	DetectedAt   time.Time        `json:"detected_at"`
}

// manifests are checked in priority order.
var manifests = []struct {
	path string
	lang grammar.Language
}{
	{"go.mod", grammar.Go},
	{"package.json", grammar.TypeScript}, // refined by detectJSorTS
	{"composer.json", grammar.PHP},
	{"pyproject.toml", grammar.Python},
	{"requirements.txt", grammar.Python},
	{"setup.py", grammar.Python},
}

// Detect reads the manifests under root.
func Detect(root string) Info {
	info := Info{Name: DetectName(root), DetectedAt: time.Now()}
	if lang, manifest, ok := DetectLanguage(root); ok {
		info.Language = lang
		info.ManifestPath = manifest
	}
	return info
}

// DetectLanguage detects the primary language of a project from manifest
// files. It returns the language, the manifest path and whether detection
// succeeded.
func DetectLanguage(root string) (grammar.Language, string, bool) {
	for _, m := range manifests {
		if _, err := os.Stat(filepath.Join(root, m.path)); err == nil {
			lang := m.lang
			if m.path == "package.json" {
				lang = detectJSorTS(root)
			}
			return lang, m.path, true
		}
	}
	return "", "", false
}

// detectJSorTS checks if a project is TypeScript or JavaScript.
func detectJSorTS(root string) grammar.Language {
	if _, err := os.Stat(filepath.Join(root, "tsconfig.json")); err == nil {
		return grammar.TypeScript
	}
	if hasFileWithExt(root, ".ts") || hasFileWithExt(filepath.Join(root, "src"), ".ts") {
		return grammar.TypeScript
	}
	return grammar.JavaScript
}

func hasFileWithExt(dir, ext string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ext {
			return true
		}
	}
	return false
}

// DetectName returns the project name from the first manifest that
// declares one: the go.mod module, package.json or composer.json "name",
// or pyproject.toml [project] / [tool.poetry] name. Otherwise it is the
// root directory's base name.
func DetectName(root string) string {
	for _, detect := range []func(string) string{
		goModName,
		packageJSONName,
		composerName,
		pyprojectName,
	} {
		if name := detect(root); name != "" {
			return name
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(root)
	}
	return filepath.Base(abs)
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

func goModName(root string) string {
	f, err := os.Open(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		mod, ok := strings.CutPrefix(line, "module ")
		if !ok {
			continue
		}
		mod = strings.Trim(strings.TrimSpace(mod), `"`)
		base := path.Base(mod)
		if majorVersion.MatchString(base) && path.Dir(mod) != "." {
			base = path.Base(path.Dir(mod))
		}
		return base
	}
	return ""
}

func jsonName(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		return ""
	}
	var m struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(data, &m) != nil {
		return ""
	}
	return m.Name
}

// packageJSONName drops an npm scope: "@acme/shop" is "shop".
func packageJSONName(root string) string {
	name := jsonName(filepath.Join(root, "package.json"))
	if strings.HasPrefix(name, "@") {
		if _, rest, ok := strings.Cut(name, "/"); ok {
			return rest
		}
	}
	return name
}

// composerName drops the vendor: "acme/shop" is "shop".
func composerName(root string) string {
	name := jsonName(filepath.Join(root, "composer.json"))
	if _, rest, ok := strings.Cut(name, "/"); ok {
		return rest
	}
	return name
}

func pyprojectName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return ""
	}
	var doc struct {
		Project struct {
			Name string `toml:"name"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name string `toml:"name"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return ""
	}
	if doc.Project.Name != "" {
		return doc.Project.Name
	}
	return doc.Tool.Poetry.Name
}

// SaveInfo saves project information to .hammy/project.json.
func SaveInfo(root string, info *Info) error {
	dir, err := paths.EnsureDataDir(root)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "project.json"), data, 0644)
}

// LoadInfo loads project information from .hammy/project.json.
func LoadInfo(root string) (*Info, error) {
	data, err := os.ReadFile(filepath.Join(paths.DataDir(root), "project.json"))
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// LanguageDisplayName returns a human-readable name for the language.
func LanguageDisplayName(lang grammar.Language) string {
	switch lang {
	case grammar.Go:
		return "Go"
	case grammar.TypeScript:
		return "TypeScript"
	case grammar.JavaScript:
		return "JavaScript"
	case grammar.Python:
		return "Python"
	case grammar.PHP:
		return "PHP"
	default:
		return "Unknown"
	}
}
