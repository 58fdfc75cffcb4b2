package patterns

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vantaai/trustserv/internal"
	"gopkg.in/yaml.v3"
)

// fileFormat - The YAML layout of a patterns file. Any omitted table keeps its built-in default; a table present
// but empty disables that category.
type fileFormat struct {
	NSFWKeywords  *[]string        `yaml:"nsfw_keywords"`
	ToxicKeywords *[]string        `yaml:"toxic_keywords"`
	Domains       *[]string        `yaml:"suspicious_domains"`
	Extensions    *[]fileExtension `yaml:"file_extensions"`
	Brands        *[]string        `yaml:"spoof_brands"`
	ContextWords  *[]string        `yaml:"brand_context_words"`
}

type fileExtension struct {
	Suffix   string `yaml:"suffix"`
	Severity string `yaml:"severity"`
}

// LoadFile - Reads tables from a YAML file. An empty path returns the defaults.
func LoadFile(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tables, err := Load(f)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to load patterns from '%s'", path), err)
	}
	return tables, nil
}

// Load - Reads tables from YAML, layering them over the defaults.
func Load(r io.Reader) (*Tables, error) {
	parsed := &fileFormat{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(parsed); err != nil && !errors.Is(err, io.EOF) { // EOF means an empty file
		return nil, err
	}

	tables := Default()
	if parsed.NSFWKeywords != nil {
		tables.NSFW = NewKeywordSet("nsfw", *parsed.NSFWKeywords...)
	}
	if parsed.ToxicKeywords != nil {
		tables.Toxic = NewKeywordSet("toxic", *parsed.ToxicKeywords...)
	}
	if parsed.Domains != nil {
		domains, err := NewRegexSet("domains", *parsed.Domains...)
		if err != nil {
			return nil, err
		}
		tables.Domains = domains
	}
	if parsed.Extensions != nil {
		extensions := make([]Extension, 0, len(*parsed.Extensions))
		for _, ext := range *parsed.Extensions {
			severity, err := ParseSeverity(ext.Severity)
			if err != nil {
				return nil, errors.Join(fmt.Errorf("invalid extension '%s'", ext.Suffix), err)
			}
			extensions = append(extensions, Extension{Suffix: ext.Suffix, Severity: severity})
		}
		tables.Extensions = NewExtensionSet("extensions", extensions...)
	}
	if parsed.Brands != nil || parsed.ContextWords != nil {
		brands := internal.DereferenceOr(parsed.Brands, tables.Brands.Brands())
		contextWords := internal.DereferenceOr(parsed.ContextWords, tables.Brands.ContextWords())
		tables.Brands = NewBrandSet("brands", brands, contextWords)
	}
	return tables, nil
}
