package metafile

import (
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// metadataSchema describes the expected shape of the metadata file: an
// array of metadata objects, with the value field explicitly absent.
const metadataSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "category", "createdAt", "updatedAt"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "title": {"type": "string", "minLength": 1},
      "category": {
        "type": "string",
        "enum": ["password", "api_key", "token", "certificate", "note"]
      },
      "notes": {"type": "string"},
      "createdAt": {"type": "string"},
      "updatedAt": {"type": "string"}
    },
    "additionalProperties": false
  }
}`

// Verify validates the on-disk file against the metadata schema and
// returns human-readable findings. It never mutates the file. A missing
// file yields no findings; it is created on first save. Because the
// schema forbids unknown properties, a sensitive value accidentally
// written to disk is reported as a finding.
func (s *Store) Verify() []string {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return []string{fmt.Sprintf("cannot read %s: %v", s.Path(), err)}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(metadataSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return []string{fmt.Sprintf("%s is not valid JSON: %v", s.Path(), err)}
	}

	if result.Valid() {
		return nil
	}

	findings := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		findings = append(findings, desc.String())
	}
	return findings
}
