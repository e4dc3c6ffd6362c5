package reporting

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func Test_ConvertToCsv(t *testing.T) {
	t.Run("Should return an empty string without headers", func(t *testing.T) {
		assert.Equal(t, "", ConvertToCsv([]map[string]any{{"name": "a"}}, nil))
	})
	t.Run("Should render only the header row for empty data", func(t *testing.T) {
		assert.Equal(t, `"name"`, ConvertToCsv(nil, []CsvHeader{{Id: "name", Label: "name"}}))
	})
	t.Run("Should quote every field and use labels", func(t *testing.T) {
		out := ConvertToCsv(
			[]map[string]any{
				{"id": 1, "amount": decimal.RequireFromString("1.5")},
				{"id": 2},
			},
			[]CsvHeader{{Id: "id", Label: "ID"}, {Id: "amount", Label: "Amount"}},
		)
		assert.Equal(t, "\"ID\",\"Amount\"\n\"1\",\"1.5\"\n\"2\",\"\"", out)
		assert.False(t, strings.HasSuffix(out, "\n"))
	})
	t.Run("Should double embedded quotes", func(t *testing.T) {
		assert.Equal(t, `"say ""hi"""`, EscapeCsvValue(`say "hi"`))
	})
	t.Run("Should neutralize formula prefixes", func(t *testing.T) {
		for _, v := range []string{"=1+1", "+1", "@SUM(A1)", "|cmd"} {
			assert.Equal(t, `"'`+v+`"`, EscapeCsvValue(v))
		}
		assert.Equal(t, `"-1"`, EscapeCsvValue("-1"))
	})
	t.Run("Should render nil as an empty quoted field", func(t *testing.T) {
		var s *string
		assert.Equal(t, `""`, EscapeCsvValue(nil))
		assert.Equal(t, `""`, EscapeCsvValue(s))
	})
	t.Run("Should round trip through a standard csv reader", func(t *testing.T) {
		values := []string{"plain", "with,comma", "with \"quotes\"", "multi\nline", "", "  spaced  "}
		data := make([]map[string]any, 0, len(values))
		for _, v := range values {
			data = append(data, map[string]any{"value": v})
		}
		out := ConvertToCsv(data, []CsvHeader{{Id: "value", Label: "value"}})

		records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		assert.Nil(t, err)
		assert.Len(t, records, len(values)+1)
		for i, v := range values {
			assert.Equal(t, v, records[i+1][0])
		}
	})
}

func Test_CombineDatasetsToCsv(t *testing.T) {
	headers := []CsvHeader{{Id: "a", Label: "A"}}

	t.Run("Should write metadata, a blank line and the data block", func(t *testing.T) {
		meta := NewMetadata()
		meta.Set("Account ID", "abc")
		meta.Set("Balance(ICP)", "10")

		out := CombineDatasetsToCsv([]*Dataset{{Metadata: meta, Data: []map[string]any{{"a": "1"}}}}, headers)
		assert.Equal(t, "\"Account ID\",\"abc\"\n\"Balance(ICP)\",\"10\"\n\n\"A\"\n\"1\"", out)
	})
	t.Run("Should separate datasets with two blank lines", func(t *testing.T) {
		first := NewMetadata()
		first.Set("k", "1")
		second := NewMetadata()
		second.Set("k", "2")

		out := CombineDatasetsToCsv([]*Dataset{
			{Metadata: first, Data: []map[string]any{{"a": "x"}}},
			{Metadata: second},
		}, headers)
		assert.Equal(t, "\"k\",\"1\"\n\n\"A\"\n\"x\"\n\n\n\"k\",\"2\"\n\n\"A\"", out)
	})
	t.Run("Should keep metadata insertion order", func(t *testing.T) {
		meta := NewMetadata()
		for _, k := range []string{"z", "a", "m"} {
			meta.Set(k, k)
		}
		out := CombineDatasetsToCsv([]*Dataset{{Metadata: meta}}, headers)
		assert.True(t, strings.HasPrefix(out, "\"z\",\"z\"\n\"a\",\"a\"\n\"m\",\"m\""))
	})
	t.Run("Should omit metadata when there is none", func(t *testing.T) {
		out := CombineDatasetsToCsv([]*Dataset{{Data: []map[string]any{{"a": "1"}}}}, headers)
		assert.Equal(t, "\"A\"\n\"1\"", out)
	})
}

func Test_Exports(t *testing.T) {
	exportedAt := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("Should build one transactions dataset per account", func(t *testing.T) {
		accounts := []*AccountTransactions{
			{
				AccountId:   "acc-1",
				AccountName: "Main",
				Project:     "nns",
				Symbol:      "ICP",
				Balance:     decimal.RequireFromString("12.5"),
				Controller:  "principal-1",
				Transactions: []*TransactionEntry{
					{
						Id:        7,
						Type:      "Transfer",
						From:      "acc-1",
						To:        "acc-2",
						Amount:    decimal.RequireFromString("1"),
						Fee:       decimal.RequireFromString("0.0001"),
						Direction: TransactionDirection_Sent,
						Timestamp: exportedAt.Add(-time.Hour),
					},
					{
						Id:        8,
						Type:      "Transfer",
						From:      "acc-3",
						To:        "acc-1",
						Amount:    decimal.RequireFromString("2"),
						Direction: TransactionDirection_Received,
						Timestamp: exportedAt,
					},
				},
			},
			{AccountId: "acc-9", Symbol: "ICP", Balance: decimal.Zero},
		}

		headers, datasets, err := BuildTransactionsDatasets(accounts, exportedAt)
		assert.Nil(t, err)
		assert.Len(t, datasets, 2)
		assert.Equal(t, "Transaction ID", headers[0].Label)
		assert.Len(t, datasets[0].Data, 2)
		assert.Equal(t, "-1.0001", datasets[0].Data[0]["Amount"])
		assert.Equal(t, "2", datasets[0].Data[1]["Amount"])
		assert.Equal(t, "2025-05-10 11:00:00", datasets[0].Data[0]["Date"])

		balance, ok := datasets[0].Metadata.Get("Balance(ICP)")
		assert.True(t, ok)
		assert.Equal(t, "12.5", balance)
		count, _ := datasets[1].Metadata.Get("Transactions")
		assert.Equal(t, "0", count)

		out := CombineDatasetsToCsv(datasets, headers)
		assert.Contains(t, out, "\n\n\n\"Account ID\",\"acc-9\"")
	})

	t.Run("Should build the neurons dataset and parse it back with gocsv", func(t *testing.T) {
		dissolveAt := exportedAt.Add(180 * 24 * time.Hour)
		neurons := []*NeuronEntry{
			{
				Id:                "123",
				Project:           "nns",
				Symbol:            "ICP",
				AccountId:         "n-acc",
				Controller:        "principal-1",
				Stake:             decimal.RequireFromString("50"),
				AvailableMaturity: decimal.RequireFromString("0.5"),
				StakedMaturity:    decimal.Zero,
				DissolveDelay:     (365 + 17) * 24 * time.Hour,
				DissolveDate:      &dissolveAt,
				CreatedAt:         exportedAt.Add(-24 * time.Hour),
				State:             "Dissolving",
			},
			{
				Id:        "=HYPERLINK(\"x\")",
				Project:   "sns",
				Symbol:    "TKN",
				Stake:     decimal.RequireFromString("1"),
				CreatedAt: exportedAt,
				State:     "Locked",
			},
		}

		headers, datasets, err := BuildNeuronsDatasets("principal-1", neurons, exportedAt)
		assert.Nil(t, err)
		assert.Len(t, datasets, 1)

		count, _ := datasets[0].Metadata.Get("Neurons")
		assert.Equal(t, "2", count)

		block := ConvertToCsv(datasets[0].Data, headers)
		var parsed []*NeuronRow
		assert.Nil(t, gocsv.UnmarshalString(block, &parsed))
		assert.Len(t, parsed, 2)
		assert.Equal(t, "123", parsed[0].Id)
		assert.Equal(t, "1 years, 17 days", parsed[0].DissolveDelay)
		assert.Equal(t, "2025-11-06 12:00:00", parsed[0].DissolveDate)
		assert.Equal(t, "", parsed[1].DissolveDate)
		assert.Equal(t, "'=HYPERLINK(\"x\")", parsed[1].Id)
	})

	t.Run("Should name and write export files", func(t *testing.T) {
		assert.Equal(t, "neurons_20250510.csv", FileName("neurons", exportedAt))

		dir := t.TempDir()
		path, err := WriteCsvFile(dir, "out.csv", "\"a\"")
		assert.Nil(t, err)
		content, err := os.ReadFile(path)
		assert.Nil(t, err)
		assert.Equal(t, "\"a\"", string(content))
	})
}
