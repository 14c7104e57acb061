package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// SourcesFile is the YAML overlay layout:
//
//	sources:
//	  jumpit:
//	    total_items: 320
//	    delay: 1s
type SourcesFile struct {
	Sources map[string]SourceConfig `yaml:"sources"`
}

// OverlaySources applies non-zero fields from the YAML file at path onto cfg.
// A missing file is not an error.
func OverlaySources(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var sf SourcesFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return err
	}

	for name, o := range sf.Sources {
		dst := cfg.Source(name)
		if dst == nil {
			continue
		}
		mergeSource(dst, o)
	}
	return nil
}

func mergeSource(dst *SourceConfig, o SourceConfig) {
	if o.ListURL != "" {
		dst.ListURL = o.ListURL
	}
	if o.DetailURL != "" {
		dst.DetailURL = o.DetailURL
	}
	if o.PageSize > 0 {
		dst.PageSize = o.PageSize
	}
	if o.TotalItems > 0 {
		dst.TotalItems = o.TotalItems
	}
	if o.Delay > 0 {
		dst.Delay = o.Delay
	}
	if o.Jitter > 0 {
		dst.Jitter = o.Jitter
	}
	if o.Output != "" {
		dst.Output = o.Output
	}
	if o.UserAgent != "" {
		dst.UserAgent = o.UserAgent
	}
}
