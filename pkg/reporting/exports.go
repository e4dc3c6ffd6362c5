package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

const (
	DateTimeFormat = "2006-01-02 15:04:05"
	fileDateFormat = "20060102"
)

type TransactionDirection string

const (
	TransactionDirection_Sent     TransactionDirection = "sent"
	TransactionDirection_Received TransactionDirection = "received"
)

// TransactionEntry is one transaction of an account, already converted to tokens.
type TransactionEntry struct {
	Id        uint64
	Type      string
	From      string
	To        string
	Amount    decimal.Decimal
	Fee       decimal.Decimal
	Direction TransactionDirection
	Timestamp time.Time
}

type AccountTransactions struct {
	AccountId    string
	AccountName  string
	Project      string
	Symbol       string
	Balance      decimal.Decimal
	Controller   string
	Transactions []*TransactionEntry
}

type TransactionRow struct {
	Id        string `csv:"Transaction ID"`
	Project   string `csv:"Project"`
	Symbol    string `csv:"Symbol"`
	AccountId string `csv:"Account ID"`
	To        string `csv:"To"`
	From      string `csv:"From"`
	Type      string `csv:"Transaction Type"`
	Amount    string `csv:"Amount"`
	Timestamp string `csv:"Date"`
}

type NeuronEntry struct {
	Id                string
	Project           string
	Symbol            string
	AccountId         string
	Controller        string
	Stake             decimal.Decimal
	AvailableMaturity decimal.Decimal
	StakedMaturity    decimal.Decimal
	DissolveDelay     time.Duration
	DissolveDate      *time.Time
	CreatedAt         time.Time
	State             string
}

type NeuronRow struct {
	Id                string `csv:"Neuron ID"`
	Project           string `csv:"Project"`
	Symbol            string `csv:"Symbol"`
	AccountId         string `csv:"Neuron Account ID"`
	Controller        string `csv:"Controller Principal ID"`
	Stake             string `csv:"Stake"`
	AvailableMaturity string `csv:"Available Maturity"`
	StakedMaturity    string `csv:"Staked Maturity"`
	DissolveDelay     string `csv:"Dissolve Delay"`
	DissolveDate      string `csv:"Dissolve Date"`
	CreatedAt         string `csv:"Creation Date"`
	State             string `csv:"State"`
}

// ToRecords marshals a slice of csv-tagged structs and returns the columns in
// declaration order along with one record per row, keyed by column label.
func ToRecords(rows any) ([]CsvHeader, []map[string]any, error) {
	raw, err := gocsv.MarshalString(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal rows: %w", err)
	}
	lines, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read marshaled rows: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil, nil
	}
	headers := make([]CsvHeader, 0, len(lines[0]))
	for _, label := range lines[0] {
		headers = append(headers, CsvHeader{Id: label, Label: label})
	}
	records := make([]map[string]any, 0, len(lines)-1)
	for _, line := range lines[1:] {
		record := make(map[string]any, len(line))
		for i, value := range line {
			record[headers[i].Id] = value
		}
		records = append(records, record)
	}
	return headers, records, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(DateTimeFormat)
}

func signedAmount(tx *TransactionEntry) decimal.Decimal {
	if tx.Direction == TransactionDirection_Sent {
		return tx.Amount.Add(tx.Fee).Neg()
	}
	return tx.Amount
}

// BuildTransactionsDatasets creates one dataset per account. Each dataset
// carries the account details as metadata.
func BuildTransactionsDatasets(accounts []*AccountTransactions, exportedAt time.Time) ([]CsvHeader, []*Dataset, error) {
	headers, _, err := ToRecords([]*TransactionRow{})
	if err != nil {
		return nil, nil, err
	}
	datasets := make([]*Dataset, 0, len(accounts))
	for _, account := range accounts {
		rows := make([]*TransactionRow, 0, len(account.Transactions))
		for _, tx := range account.Transactions {
			rows = append(rows, &TransactionRow{
				Id:        fmt.Sprintf("%d", tx.Id),
				Project:   account.Project,
				Symbol:    account.Symbol,
				AccountId: account.AccountId,
				To:        tx.To,
				From:      tx.From,
				Type:      tx.Type,
				Amount:    signedAmount(tx).String(),
				Timestamp: formatTime(tx.Timestamp),
			})
		}
		_, records, err := ToRecords(rows)
		if err != nil {
			return nil, nil, err
		}

		meta := NewMetadata()
		meta.Set("Account ID", account.AccountId)
		meta.Set("Account Name", account.AccountName)
		meta.Set(fmt.Sprintf("Balance(%s)", account.Symbol), account.Balance.String())
		meta.Set("Controller Principal ID", account.Controller)
		meta.Set("Transactions", fmt.Sprintf("%d", len(rows)))
		meta.Set("Export Date Time", formatTime(exportedAt))

		datasets = append(datasets, &Dataset{Metadata: meta, Data: records})
	}
	return headers, datasets, nil
}

// BuildNeuronsDatasets puts all neurons of a principal into a single dataset.
func BuildNeuronsDatasets(principal string, neurons []*NeuronEntry, exportedAt time.Time) ([]CsvHeader, []*Dataset, error) {
	rows := make([]*NeuronRow, 0, len(neurons))
	for _, n := range neurons {
		dissolveDate := ""
		if n.DissolveDate != nil {
			dissolveDate = formatTime(*n.DissolveDate)
		}
		rows = append(rows, &NeuronRow{
			Id:                n.Id,
			Project:           n.Project,
			Symbol:            n.Symbol,
			AccountId:         n.AccountId,
			Controller:        n.Controller,
			Stake:             n.Stake.String(),
			AvailableMaturity: n.AvailableMaturity.String(),
			StakedMaturity:    n.StakedMaturity.String(),
			DissolveDelay:     formatDissolveDelay(n.DissolveDelay),
			DissolveDate:      dissolveDate,
			CreatedAt:         formatTime(n.CreatedAt),
			State:             n.State,
		})
	}
	headers, records, err := ToRecords(rows)
	if err != nil {
		return nil, nil, err
	}

	meta := NewMetadata()
	meta.Set("Principal ID", principal)
	meta.Set("Neurons", fmt.Sprintf("%d", len(rows)))
	meta.Set("Export Date Time", formatTime(exportedAt))

	return headers, []*Dataset{{Metadata: meta, Data: records}}, nil
}

func formatDissolveDelay(d time.Duration) string {
	days := int64(d / (24 * time.Hour))
	if days == 0 {
		return "0 days"
	}
	years := days / 365
	days = days % 365
	parts := make([]string, 0, 2)
	if years > 0 {
		parts = append(parts, fmt.Sprintf("%d years", years))
	}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d days", days))
	}
	return strings.Join(parts, ", ")
}

// FileName returns e.g. "neurons_20250510.csv".
func FileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.UTC().Format(fileDateFormat))
}

func WriteCsvFile(dir string, name string, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write csv file: %w", err)
	}
	return path, nil
}
