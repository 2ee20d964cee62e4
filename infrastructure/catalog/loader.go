// Package catalog loads calculation template definitions from YAML
// files into a template repository. It backs single-process deployments
// and test fixtures where no authoring service exists.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fieldcalc/calc-engine/internal/domain"
)

// Package-level validator instance for template file validation.
var validate = validator.New()

// templateFile is the on-disk shape of a template definition.
type templateFile struct {
	ID               string                       `yaml:"id" validate:"required"`
	Name             string                       `yaml:"name" validate:"required"`
	Description      string                       `yaml:"description"`
	Category         string                       `yaml:"category"`
	TargetProfession string                       `yaml:"target_profession"`
	NECReference     string                       `yaml:"nec_reference"`
	Parameters       []domain.ParameterDefinition `yaml:"parameters" validate:"dive"`
	FormulaKind      string                       `yaml:"formula_kind" validate:"required"`
	FormulaConfig    map[string]any               `yaml:"formula_config"`
	IsActive         *bool                        `yaml:"is_active"`
	IsVerified       bool                         `yaml:"is_verified"`
	IsFeatured       bool                         `yaml:"is_featured"`
	Version          int                          `yaml:"version"`
	Tags             []string                     `yaml:"tags"`
	CreatedAt        time.Time                    `yaml:"created_at"`
}

// Seeder receives loaded templates. Both the in-memory store and the
// postgres repository satisfy it through small adapters.
type Seeder interface {
	Put(template domain.CalculationTemplate)
}

// LoadFromDir loads every *.yaml/*.yml template definition in dir and
// its immediate subdirectories. Files that fail to parse or validate
// are logged and skipped; the remaining templates are returned.
func LoadFromDir(dir string) ([]domain.CalculationTemplate, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)

		subMatches, err := filepath.Glob(filepath.Join(dir, "*", pattern))
		if err != nil {
			continue
		}
		files = append(files, subMatches...)
	}

	templates := make([]domain.CalculationTemplate, 0, len(files))
	for _, file := range files {
		template, err := LoadFromFile(file)
		if err != nil {
			slog.Warn("failed to load template", "file", file, "error", err)
			continue
		}
		templates = append(templates, *template)
	}

	slog.Info("templates loaded", "count", len(templates), "total_files", len(files))
	return templates, nil
}

// LoadFromFile loads a single template definition from a YAML file.
func LoadFromFile(path string) (*domain.CalculationTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validate.Struct(tf); err != nil {
		return nil, fmt.Errorf("template validation failed: %w", err)
	}

	active := true
	if tf.IsActive != nil {
		active = *tf.IsActive
	}
	version := tf.Version
	if version == 0 {
		version = 1
	}
	createdAt := tf.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &domain.CalculationTemplate{
		ID:               tf.ID,
		Name:             tf.Name,
		Description:      tf.Description,
		Category:         tf.Category,
		TargetProfession: tf.TargetProfession,
		NECReference:     tf.NECReference,
		Parameters:       tf.Parameters,
		FormulaKind:      tf.FormulaKind,
		FormulaConfig:    tf.FormulaConfig,
		IsActive:         active,
		IsVerified:       tf.IsVerified,
		IsFeatured:       tf.IsFeatured,
		Version:          version,
		Tags:             tf.Tags,
		CreatedAt:        createdAt,
	}, nil
}

// Seed loads templates from dir and stores each one through the seeder.
func Seed(dir string, seeder Seeder) error {
	templates, err := LoadFromDir(dir)
	if err != nil {
		return err
	}
	for _, t := range templates {
		seeder.Put(t)
	}
	return nil
}
