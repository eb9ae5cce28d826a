// Package descriptor loads the YAML resource catalog descriptor, grounded
// on engine/core/loader.go's os.ReadFile + yaml.Unmarshal + wrapped-error
// style (spec §6).
package descriptor

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rentabot/rentabot/internal/apperrors"
	"github.com/rentabot/rentabot/internal/catalog"
	"github.com/rentabot/rentabot/internal/tagmatch"
)

// entry mirrors one resource record in the descriptor file. MaxLockDuration
// is expressed in seconds, per spec §3.
type entry struct {
	Description     string `yaml:"description"`
	Endpoint        string `yaml:"endpoint"`
	Tags            string `yaml:"tags"`
	MaxLockDuration int    `yaml:"max_lock_duration"`
}

// Load reads and parses the descriptor file at path, returning resources
// numbered 1..N in file order (spec §6). An empty document is a startup
// failure (apperrors.ResourceDescriptorIsEmpty).
func Load(path string) ([]catalog.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource descriptor %s: %w", path, err)
	}

	names, entries, err := decodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode resource descriptor %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, apperrors.New(
			apperrors.ResourceDescriptorIsEmpty,
			fmt.Sprintf("resource descriptor %s is empty", path),
			apperrors.Details("path", path),
		)
	}

	resources := make([]catalog.Resource, 0, len(names))
	for i, name := range names {
		e := entries[name]
		maxLock := catalog.DefaultMaxLockDuration
		if e.MaxLockDuration > 0 {
			maxLock = time.Duration(e.MaxLockDuration) * time.Second
		}
		resources = append(resources, catalog.Resource{
			ID:              i + 1,
			Name:            name,
			Description:     e.Description,
			Endpoint:        e.Endpoint,
			TagsRaw:         e.Tags,
			Tags:            tagmatch.Parse(e.Tags),
			MaxLockDuration: maxLock,
			LockDetails:     "Resource available",
		})
	}
	return resources, nil
}

// decodeOrdered decodes the top-level YAML mapping while preserving key
// order, since spec §6 requires resources to be numbered 1..N in file
// order and a plain map[string]T loses that order in Go.
func decodeOrdered(data []byte) ([]string, map[string]entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("expected a mapping at the document root")
	}

	names := make([]string, 0, len(root.Content)/2)
	entries := make(map[string]entry, len(root.Content)/2)
	for i := 0; i < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]

		var e entry
		if err := valNode.Decode(&e); err != nil {
			return nil, nil, fmt.Errorf("resource %q: %w", keyNode.Value, err)
		}
		names = append(names, keyNode.Value)
		entries[keyNode.Value] = e
	}
	return names, entries, nil
}
