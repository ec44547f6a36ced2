// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gitlab.com/tozd/go/errors"
)

var validate = validator.New()

// 🔍 Validate checks struct tags first, then the rules tags cannot express
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if cfg.Engine != nil && cfg.Engine.ProgressInterval != "" {
		d, err := time.ParseDuration(cfg.Engine.ProgressInterval)
		if err != nil {
			return errors.Errorf("engine.progress_interval: %w", err)
		}
		if d < 0 {
			return errors.Errorf("engine.progress_interval: must not be negative")
		}
	}

	sources := make(map[string]bool, len(cfg.Sources))
	for i, s := range cfg.Sources {
		if sources[s.Name] {
			return errors.Errorf("sources[%d]: duplicate source name %q", i, s.Name)
		}
		sources[s.Name] = true
	}

	jobs := make(map[string]bool, len(cfg.Jobs))
	for i, j := range cfg.Jobs {
		if jobs[j.Name] {
			return errors.Errorf("jobs[%d]: duplicate job name %q", i, j.Name)
		}
		jobs[j.Name] = true

		if !sources[j.From] {
			return errors.Errorf("jobs[%d]: from references unknown source %q", i, j.From)
		}

		switch j.Action {
		case "copy", "move":
			if j.To == "" {
				return errors.Errorf("jobs[%d]: %s needs a to source", i, j.Action)
			}
			if len(j.Paths) == 0 {
				return errors.Errorf("jobs[%d]: %s needs at least one path", i, j.Action)
			}
		case "delete", "mkdir":
			if len(j.Paths) == 0 {
				return errors.Errorf("jobs[%d]: %s needs at least one path", i, j.Action)
			}
		}

		if j.To != "" && !sources[j.To] {
			return errors.Errorf("jobs[%d]: to references unknown source %q", i, j.To)
		}
	}

	return nil
}

// formatValidationError keeps the first failing field so messages stay short
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return errors.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return errors.Errorf("validating: %w", err)
}
