// Package yaml loads catalog profiles from YAML files.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/catalogqa"
	"gopkg.in/yaml.v3"
)

type sourceFile struct {
	Name            string   `yaml:"name"`
	RootURL         string   `yaml:"root_url"`
	BaseURL         string   `yaml:"base_url"`
	ListingSelector string   `yaml:"listing_selector"`
	ContentSelector string   `yaml:"content_selector"`
	Department      linkFile `yaml:"department"`
	Refusal         string   `yaml:"refusal,omitempty"`
}

type linkFile struct {
	URL  string `yaml:"url"`
	Text string `yaml:"text"`
}

// DefaultSource returns the University of Delaware CIS graduate catalog.
func DefaultSource() *catalogqa.Source {
	return &catalogqa.Source{
		Name:            "UD CIS Graduate Catalog",
		RootURL:         "https://catalog.udel.edu/content.php?catoid=93&navoid=30534",
		BaseURL:         "https://catalog.udel.edu/",
		ListingSelector: "#data_p_11725",
		ContentSelector: ".block_content",
		Department: catalogqa.CatalogLink{
			URL:  "https://catalog.udel.edu/preview_entity.php?catoid=93&ent_oid=11725&returnto=30534",
			Text: "Department of Computer and Information Sciences",
		},
		Refusal: "Please keep your questions focused on the UD CIS graduate program.",
	}
}

// LoadSource reads a catalog profile from path.
// An empty path returns DefaultSource.
func LoadSource(path string) (*catalogqa.Source, error) {
	if path == "" {
		return DefaultSource(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, catalogqa.Errorf(catalogqa.ENOTFOUND, "catalog profile not found: %s", path)
	} else if err != nil {
		return nil, fmt.Errorf("reading catalog profile: %w", err)
	}
	return ParseSource(data)
}

// ParseSource decodes and validates a catalog profile.
// Unknown fields are rejected.
func ParseSource(data []byte) (*catalogqa.Source, error) {
	var f sourceFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, catalogqa.Errorf(catalogqa.EINVALID, "catalog profile is empty")
		}
		return nil, catalogqa.Errorf(catalogqa.EINVALID, "parsing catalog profile: %v", err)
	}

	src := &catalogqa.Source{
		Name:            f.Name,
		RootURL:         f.RootURL,
		BaseURL:         f.BaseURL,
		ListingSelector: f.ListingSelector,
		ContentSelector: f.ContentSelector,
		Department:      catalogqa.CatalogLink{URL: f.Department.URL, Text: f.Department.Text},
		Refusal:         f.Refusal,
	}
	if src.Refusal == "" {
		src.Refusal = catalogqa.DefaultRefusal
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return src, nil
}

// MarshalSource encodes a catalog profile in the format ParseSource reads.
func MarshalSource(src *catalogqa.Source) ([]byte, error) {
	f := sourceFile{
		Name:            src.Name,
		RootURL:         src.RootURL,
		BaseURL:         src.BaseURL,
		ListingSelector: src.ListingSelector,
		ContentSelector: src.ContentSelector,
		Department:      linkFile{URL: src.Department.URL, Text: src.Department.Text},
		Refusal:         src.Refusal,
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encoding catalog profile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding catalog profile: %w", err)
	}
	return buf.Bytes(), nil
}
