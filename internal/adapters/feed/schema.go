package feed

import "github.com/invopop/jsonschema"

// RecordSchema は JSON フィードの要素の JSON Schema を返します。
// フィード全体は RecordSchema の配列です。CSV の列名も同じフィールド名を使います。
func RecordSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	return reflector.Reflect(&JSONRecord{})
}
