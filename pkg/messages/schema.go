package messages

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const envelopeSchemaURL = "envelope.schema.json"

//go:embed envelope.schema.json
var envelopeSchemaData []byte

var (
	envelopeSchemaOnce sync.Once
	envelopeSchema     *jsonschema.Schema
	envelopeSchemaErr  error
)

func compiledEnvelopeSchema() (*jsonschema.Schema, error) {
	envelopeSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(envelopeSchemaURL, bytes.NewReader(envelopeSchemaData)); err != nil {
			envelopeSchemaErr = fmt.Errorf("failed to add envelope schema: %v", err)
			return
		}
		envelopeSchema, envelopeSchemaErr = compiler.Compile(envelopeSchemaURL)
	})
	return envelopeSchema, envelopeSchemaErr
}

// ValidateEnvelope checks raw JSON against the envelope schema.
func ValidateEnvelope(data []byte) error {
	schema, err := compiledEnvelopeSchema()
	if err != nil {
		return fmt.Errorf("failed to compile envelope schema: %v", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("failed to unmarshal envelope: %v", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("envelope does not match schema: %v", err)
	}
	return nil
}
