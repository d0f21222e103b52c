// Framework build/runtime configuration: output packaging, strict mode, minifier and the
// image optimizer's remote pattern allowlist
package appconfig

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/function61/gokit/encoding/jsonfile"
	"github.com/function61/remoteimage/pkg/remotepattern"
	"gopkg.in/yaml.v3"
)

type OutputMode string

const (
	OutputDefault    OutputMode = ""
	OutputStandalone OutputMode = "standalone"
	OutputExport     OutputMode = "export"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// The packaging, strict mode and minifier settings are passed through to the framework as-is.
type Config struct {
	Output          OutputMode `json:"output,omitempty" yaml:"output,omitempty"`
	ReactStrictMode bool       `json:"reactStrictMode" yaml:"reactStrictMode"`
	SwcMinify       bool       `json:"swcMinify" yaml:"swcMinify"`
	Images          Images     `json:"images" yaml:"images"`
}

type Images struct {
	RemotePatterns []remotepattern.AllowRule `json:"remotePatterns" yaml:"remotePatterns"`
}

// Default is the configuration the project ships with
func Default() *Config {
	return &Config{
		Output:          OutputStandalone,
		ReactStrictMode: true,
		SwcMinify:       true,
		Images: Images{
			RemotePatterns: []remotepattern.AllowRule{
				{
					Scheme:     "https",
					Host:       "extrai.ia",
					Port:       "",
					PathPrefix: "/dashboard/**",
				},
			},
		},
	}
}

// Load reads config from path, choosing the decoder by file extension. The result is validated.
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	conf, err := Parse(file, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return conf, nil
}

// Parse decodes and validates. Unknown fields are rejected, in JSON also keys that differ from
// a known field only by case, so that typos in rule field names can't silently widen or
// narrow the allowlist.
func Parse(source io.Reader, format Format) (*Config, error) {
	conf := &Config{}

	switch format {
	case FormatJSON:
		content, err := io.ReadAll(source)
		if err != nil {
			return nil, err
		}

		if err := jsonfile.UnmarshalDisallowUnknownFields(bytes.NewReader(content), conf); err != nil {
			return nil, err
		}

		if err := checkJsonKeyCase(content); err != nil {
			return nil, err
		}
	case FormatYAML:
		decoder := yaml.NewDecoder(source)
		decoder.KnownFields(true)

		if err := decoder.Decode(conf); err != nil {
			if err == io.EOF { // empty document
				break
			}
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *Config) Write(destination io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return jsonfile.Marshal(destination, c)
	case FormatYAML:
		encoder := yaml.NewEncoder(destination)
		encoder.SetIndent(2)

		if err := encoder.Encode(c); err != nil {
			return err
		}

		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func (c *Config) Validate() error {
	switch c.Output {
	case OutputDefault, OutputStandalone, OutputExport:
	default:
		return fmt.Errorf("output: unsupported mode '%s'", c.Output)
	}

	if _, err := c.RemotePatterns(); err != nil {
		return fmt.Errorf("images: %w", err)
	}

	return nil
}

// RemotePatterns compiles the allowlist. Call once at startup and share the result.
func (c *Config) RemotePatterns() (*remotepattern.Set, error) {
	return remotepattern.NewSet(c.Images.RemotePatterns)
}

func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported config file extension '%s' (want .json, .yaml or .yml)", ext)
	}
}

func ParseFormat(format string) (Format, error) {
	switch Format(format) {
	case FormatJSON, FormatYAML:
		return Format(format), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}
