// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// resolvedView is the TOML shape printed by "pyzbuild config show".
type resolvedView struct {
	Project struct {
		Name           string   `toml:"name"`
		NormalizedName string   `toml:"normalized-name"`
		Version        string   `toml:"version"`
		Dependencies   []string `toml:"dependencies"`
	} `toml:"project"`
	Target struct {
		Main               string            `toml:"main"`
		Interpreter        string            `toml:"interpreter"`
		Compressed         bool              `toml:"compressed"`
		Reproducible       bool              `toml:"reproducible"`
		BundleDependencies bool              `toml:"bundle-dependencies"`
		Include            []string          `toml:"include"`
		Exclude            []string          `toml:"exclude"`
		Packages           []string          `toml:"packages"`
		OnlyInclude        []string          `toml:"only-include"`
		Directory          string            `toml:"directory"`
		Installer          string            `toml:"installer"`
		SourceDateEpoch    int64             `toml:"source-date-epoch"`
		ForceInclude       map[string]string `toml:"force-include"`
	} `toml:"pyz"`
}

// MarshalTOML renders the resolved configuration as TOML.
func (c *BuildConfig) MarshalTOML() ([]byte, error) {
	var view resolvedView
	view.Project.Name = c.Name
	view.Project.NormalizedName = c.NormalizedName
	view.Project.Version = c.Version
	view.Project.Dependencies = nonNil(c.Dependencies)

	t := &view.Target
	t.Main = c.Main.String()
	t.Interpreter = c.Interpreter.String()
	t.Compressed = c.Compressed
	t.Reproducible = c.Reproducible
	t.BundleDependencies = c.BundleDependencies
	t.Include = nonNil(c.Include)
	t.Exclude = nonNil(c.Exclude)
	t.Packages = nonNil(c.Packages)
	t.OnlyInclude = nonNil(c.OnlyInclude)
	t.Directory = c.OutputDir
	t.Installer = c.Installer.String()
	t.SourceDateEpoch = c.SourceDateEpoch
	t.ForceInclude = c.ForceInclude

	out, err := toml.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to render configuration: %w", err)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
