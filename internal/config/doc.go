// SPDX-License-Identifier: MPL-2.0

// Package config resolves the build configuration of a Python project.
//
// Settings are read from the project's pyproject.toml: metadata from the
// [project] table, project-wide options from [tool.hatch.build] and
// target-specific options from [tool.hatch.build.targets.pyz]. Each table is
// validated against an embedded CUE schema (config_schema.cue) before Viper
// layers them with defaults and PYZBUILD_* environment overrides. The result
// is a BuildConfig that is read-only for the rest of the build.
package config
