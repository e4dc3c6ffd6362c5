package reporting

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Metadata is an insertion-ordered list of label/value pairs written above a dataset.
type Metadata = orderedmap.OrderedMap[string, string]

func NewMetadata() *Metadata {
	return orderedmap.New[string, string]()
}

type Dataset struct {
	Metadata *Metadata
	Data     []map[string]any
}

// datasetSeparator leaves two blank lines between datasets.
const datasetSeparator = "\n\n\n"

func metadataToCsv(m *Metadata) string {
	if m == nil || m.Len() == 0 {
		return ""
	}
	rows := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		rows = append(rows, joinRow([]string{EscapeCsvValue(pair.Key), EscapeCsvValue(pair.Value)}))
	}
	return strings.Join(rows, "\n")
}

// CombineDatasetsToCsv writes each dataset as its metadata rows, a blank line
// and its header/data block. Datasets are separated by two blank lines.
func CombineDatasetsToCsv(datasets []*Dataset, headers []CsvHeader) string {
	parts := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		body := ConvertToCsv(ds.Data, headers)
		meta := metadataToCsv(ds.Metadata)
		if meta == "" {
			parts = append(parts, body)
			continue
		}
		parts = append(parts, meta+"\n\n"+body)
	}
	return strings.Join(parts, datasetSeparator)
}
