package templates

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
	"jordanella.com/battlefarm-go/internal/cv"
)

// Catalog names the control loop depends on
const (
	InBattle    = "is-in-battle"
	MarketMenu  = "market-menu-button"
	CloseBattle = "close-battle-button"
	AreYouStuck = "are-you-stuck-button"
	StartBattle = "start-battle-button"
)

// Required lists every template the control loop looks up
var Required = []string{InBattle, MarketMenu, CloseBattle, AreYouStuck, StartBattle}

// AssetNotFoundError means a named template cannot be resolved or loaded.
// It indicates a broken deployment, not a transient condition.
type AssetNotFoundError struct {
	Name string
	Path string
	Err  error
}

func (e *AssetNotFoundError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("template asset %q is not in the catalog", e.Name)
	}
	return fmt.Sprintf("template asset %q (%s) cannot be loaded: %v", e.Name, e.Path, e.Err)
}

func (e *AssetNotFoundError) Unwrap() error {
	return e.Err
}

// TemplateRegistry is the fixed asset catalog: logical name to image file
type TemplateRegistry struct {
	mu         sync.RWMutex
	templates  map[string]cv.Template
	basePath   string // Base path for template image files
	imageCache *ImageCache
}

// TemplateDefinition represents a template in the YAML file
type TemplateDefinition struct {
	Name      string     `yaml:"name"`
	Path      string     `yaml:"path"`
	Threshold float64    `yaml:"threshold,omitempty"`
	Region    *RegionDef `yaml:"region,omitempty"`
	Scale     float64    `yaml:"scale,omitempty"`
	Preload   bool       `yaml:"preload,omitempty"` // Load image at startup
}

// RegionDef represents a region in the YAML file
type RegionDef struct {
	X1 int `yaml:"x1"`
	Y1 int `yaml:"y1"`
	X2 int `yaml:"x2"`
	Y2 int `yaml:"y2"`
}

// TemplateFile represents the structure of a template YAML file
type TemplateFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// NewTemplateRegistry creates a new template registry
// basePath is the root directory where template image files are stored
func NewTemplateRegistry(basePath string) *TemplateRegistry {
	return &TemplateRegistry{
		templates:  make(map[string]cv.Template),
		basePath:   basePath,
		imageCache: NewImageCache(),
	}
}

// RegisterDefaults registers every required template as <name>.png under the base path
func (tr *TemplateRegistry) RegisterDefaults() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	for _, name := range Required {
		if _, ok := tr.templates[name]; ok {
			continue
		}
		tr.templates[name] = cv.Template{
			Name: name,
			Path: filepath.Join(tr.basePath, name+".png"),
		}
	}
}

// LoadFromFile loads templates from a YAML file. Entries replace templates
// already registered under the same name.
func (tr *TemplateRegistry) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read template file %s: %w", filePath, err)
	}

	var templateFile TemplateFile
	if err := yaml.Unmarshal(data, &templateFile); err != nil {
		return fmt.Errorf("failed to unmarshal template YAML: %w", err)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	for i, def := range templateFile.Templates {
		if def.Name == "" {
			return fmt.Errorf("template %d: name cannot be empty", i+1)
		}
		if def.Path == "" {
			return fmt.Errorf("template %d (%s): path cannot be empty", i+1, def.Name)
		}
		if def.Threshold < 0 || def.Threshold > 1 {
			return fmt.Errorf("template %d (%s): threshold %.2f outside [0,1]", i+1, def.Name, def.Threshold)
		}
		if def.Scale < 0 || def.Scale > 1 {
			return fmt.Errorf("template %d (%s): scale %.2f outside (0,1]", i+1, def.Name, def.Scale)
		}

		template := cv.Template{Name: def.Name, Path: filepath.Join(tr.basePath, def.Path)}.
			WithThreshold(def.Threshold).
			WithScale(def.Scale)
		if r := def.Region; r != nil {
			template = template.InRegion(r.X1, r.Y1, r.X2, r.Y2)
		}

		tr.templates[def.Name] = template
		tr.imageCache.Forget(def.Name)
		if def.Preload {
			tr.imageCache.MarkPreload(def.Name)
		}
	}

	return nil
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (cv.Template, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	template, ok := tr.templates[name]
	return template, ok
}

// Register adds a template to the registry programmatically
func (tr *TemplateRegistry) Register(template cv.Template) error {
	if template.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.templates[template.Name] = template
	tr.imageCache.Forget(template.Name)
	return nil
}

// Has checks if a template exists in the registry
func (tr *TemplateRegistry) Has(name string) bool {
	_, ok := tr.Get(name)
	return ok
}

// List returns all template names in the registry, sorted
func (tr *TemplateRegistry) List() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveAssetPath maps a logical template name to its image file
func (tr *TemplateRegistry) ResolveAssetPath(name string) (string, error) {
	template, ok := tr.Get(name)
	if !ok {
		return "", &AssetNotFoundError{Name: name}
	}
	return template.Path, nil
}

// Load returns the decoded template image, reading it from disk once
func (tr *TemplateRegistry) Load(name string) (*image.RGBA, cv.Template, error) {
	template, ok := tr.Get(name)
	if !ok {
		return nil, cv.Template{}, &AssetNotFoundError{Name: name}
	}

	img, err := tr.imageCache.Get(template)
	if err != nil {
		return nil, cv.Template{}, &AssetNotFoundError{Name: name, Path: template.Path, Err: err}
	}
	return img, template, nil
}

// Validate loads every required template so a broken deployment fails at startup
func (tr *TemplateRegistry) Validate() error {
	for _, name := range Required {
		if _, _, err := tr.Load(name); err != nil {
			return err
		}
	}
	return nil
}

// PreloadAll loads all templates marked for preloading
func (tr *TemplateRegistry) PreloadAll() error {
	for _, name := range tr.imageCache.Preloads() {
		if _, _, err := tr.Load(name); err != nil {
			return err
		}
	}
	return nil
}

// CacheStats returns image cache statistics
func (tr *TemplateRegistry) CacheStats() CacheStats {
	return tr.imageCache.Stats()
}
