package schema

type SchemaColumn struct {
	Name string    `json:"name" mapstructure:"name"`
	Type FieldType `json:"type" mapstructure:"type"`
}

type Schema struct {
	Name    string         `json:"name"`
	Columns []SchemaColumn `json:"columns"`
}

// ColumnIndex returns -1 when the column is not part of the schema.
func (s Schema) ColumnIndex(name string) int {
	for idx, it := range s.Columns {
		if it.Name == name {
			return idx
		}
	}
	return -1
}

func (s Schema) Column(name string) (SchemaColumn, bool) {
	idx := s.ColumnIndex(name)
	if idx < 0 {
		return SchemaColumn{}, false
	}
	return s.Columns[idx], true
}

func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for idx, it := range s.Columns {
		names[idx] = it.Name
	}
	return names
}
