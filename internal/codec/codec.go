package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"reportengine/internal/scenario"
)

const (
	FormatVersion  = "1"
	artifactPrefix = "report-engine_"
	nameLayout     = "20060102_150405"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

type Meta struct {
	ExportedAt    time.Time `json:"exported_at" yaml:"exported_at" toml:"exported_at"`
	AppVersion    string    `json:"app_version" yaml:"app_version" toml:"app_version"`
	FormatVersion string    `json:"format_version,omitempty" yaml:"format_version,omitempty" toml:"format_version,omitempty"`
}

type Envelope struct {
	Meta         Meta              `json:"meta" yaml:"meta" toml:"meta"`
	ScenarioData scenario.Scenario `json:"scenario_data" yaml:"scenario_data" toml:"scenario_data"`
}

type Artifact struct {
	Name        string
	ContentType string
	Body        []byte
}

// FormatError reports an import payload that cannot be parsed or has
// neither the envelope nor the bare scenario shape.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid scenario file format: %s: %v", e.Reason, e.Err)
	}
	return "invalid scenario file format: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported scenario file extension %q", filepath.Ext(path))
	}
}

func ArtifactName(now time.Time, format Format) string {
	return artifactPrefix + now.Format(nameLayout) + "." + string(format)
}

func Wrap(s scenario.Scenario, now time.Time, appVersion string) Envelope {
	data := s.Clone()
	data.Normalize()
	return Envelope{
		Meta: Meta{
			ExportedAt:    now.UTC().Truncate(time.Second),
			AppVersion:    appVersion,
			FormatVersion: FormatVersion,
		},
		ScenarioData: data,
	}
}

// Export wraps s in the versioned envelope and returns it as a JSON artifact.
func Export(s scenario.Scenario, now time.Time, appVersion string) (Artifact, error) {
	return ExportFormat(s, now, appVersion, FormatJSON)
}

func ExportFormat(s scenario.Scenario, now time.Time, appVersion string, format Format) (Artifact, error) {
	body, err := Encode(Wrap(s, now, appVersion), format)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Name:        ArtifactName(now, format),
		ContentType: contentType(format),
		Body:        body,
	}, nil
}

func Encode(env Envelope, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		body, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding scenario json: %w", err)
		}
		return append(body, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(env); err != nil {
			return nil, fmt.Errorf("encoding scenario yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding scenario yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOML:
		body, err := toml.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("encoding scenario toml: %w", err)
		}
		return body, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func contentType(format Format) string {
	switch format {
	case FormatYAML:
		return "application/yaml"
	case FormatTOML:
		return "application/toml"
	default:
		return "application/json"
	}
}
