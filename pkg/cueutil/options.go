// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize bounds configuration files read from disk (5 MiB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	// Option configures DecodeValue and ValidateValue.
	Option func(*options)

	options struct {
		filename string
		concrete bool
	}
)

func defaultOptions() options {
	return options{
		filename: "<input>",
	}
}

// WithFilename sets the source name used as the prefix of error messages.
func WithFilename(name string) Option {
	return func(o *options) {
		if name != "" {
			o.filename = name
		}
	}
}

// WithConcrete requires every field of the unified value to be concrete.
func WithConcrete(concrete bool) Option {
	return func(o *options) {
		o.concrete = concrete
	}
}
