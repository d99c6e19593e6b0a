package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"kabs/internal"
	"kabs/internal/util"
)

// labelsSchema is the shape of a structured BOM as the label extraction
// service returns it.
const labelsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["rawCode"],
    "properties": {
      "rawCode": {"type": "string"},
      "type": {"type": "string"},
      "description": {"type": "string"},
      "quantity": {"type": "number"}
    }
  }
}`

var (
	labelsSchemaOnce     sync.Once
	labelsSchemaCompiled *jsonschema.Schema
	labelsSchemaErr      error
)

func compiledLabelsSchema() (*jsonschema.Schema, error) {
	labelsSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("labels.json", strings.NewReader(labelsSchema)); err != nil {
			labelsSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		labelsSchemaCompiled, labelsSchemaErr = compiler.Compile("labels.json")
	})
	return labelsSchemaCompiled, labelsSchemaErr
}

type jsonLabel struct {
	RawCode     string   `json:"rawCode"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity"`
}

// parseJSONLabels validates and reads a [{rawCode,type,description,quantity}]
// document. Quantities are rounded and clamped to at least one.
func parseJSONLabels(content []byte) ([]internal.LabelRecord, error) {
	schema, err := compiledLabelsSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("labels do not match schema: %w", err)
	}

	var items []jsonLabel
	if err := json.NewDecoder(bytes.NewReader(content)).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}

	out := make([]internal.LabelRecord, 0, len(items))
	for i, it := range items {
		code := strings.TrimSpace(it.RawCode)
		if code == "" {
			continue
		}
		parsed := util.ParsedQty{}
		if it.Quantity != nil {
			n := int(math.Round(*it.Quantity))
			parsed.Qty = &n
		}
		rec := newRecord(internal.SourceJSON, i+1, code, code, it.Description, parsed)
		rec.Type = strings.TrimSpace(it.Type)
		out = append(out, rec)
	}
	return out, nil
}
