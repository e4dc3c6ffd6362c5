package exportDataService

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/govwallet/sidecar/pkg/clients/governance"
	"github.com/govwallet/sidecar/pkg/clients/index"
	"github.com/govwallet/sidecar/pkg/clients/ledger"
	"github.com/govwallet/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/govwallet/sidecar/pkg/metrics/metricsTypes"
	"github.com/govwallet/sidecar/pkg/reporting"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/govwallet/sidecar/pkg/storage"
	"github.com/govwallet/sidecar/pkg/types/numbers"
	"go.uber.org/zap"
	ddTracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

type Kind string

const (
	Kind_Neurons      Kind = "neurons"
	Kind_Transactions Kind = "transactions"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Kind_Neurons, Kind_Transactions:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown export kind '%s'", s)
}

// ProgressFunc is called after each project has been exported.
type ProgressFunc func(projectId string)

type ExportResult struct {
	JobId    string
	Kind     Kind
	FilePath string
	Content  string
}

type ExportDataService struct {
	baseDataService.BaseDataService
	jobs storage.ExportJobStore
	now  func() time.Time
}

func NewExportDataService(base baseDataService.BaseDataService, jobs storage.ExportJobStore) *ExportDataService {
	return &ExportDataService{
		BaseDataService: base,
		jobs:            jobs,
		now:             time.Now,
	}
}

// Export builds the CSV report of kind, writes it to the export directory and
// records the job. The report is built from certified data only.
func (s *ExportDataService) Export(ctx context.Context, kind Kind, onProgress ProgressFunc) (*ExportResult, error) {
	span, ctx := ddTracer.StartSpanFromContext(ctx, "export.Export")
	span.SetTag("kind", string(kind))
	defer span.Finish()

	start := time.Now()

	job, err := s.jobs.InsertExportJob(string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to create export job: %w", err)
	}

	res, err := s.export(ctx, kind, onProgress)
	if res != nil {
		res.JobId = job.Id
	}

	filePath := ""
	if res != nil {
		filePath = res.FilePath
	}
	if _, jobErr := s.jobs.CompleteExportJob(job.Id, filePath, err); jobErr != nil {
		s.Logger.Sugar().Errorw("Failed to complete export job", zap.String("jobId", job.Id), zap.Error(jobErr))
	}
	s.recordMetrics(kind, time.Since(start), err)

	if err != nil {
		span.SetTag("error", true)
		s.ToastError(fmt.Sprintf("Failed to export %s", kind), err, true)
		return nil, err
	}

	s.Publish(eventBusTypes.Event_ExportCompleted, &eventBusTypes.ExportCompletedData{
		Kind:     string(kind),
		FilePath: res.FilePath,
	})
	return res, nil
}

func (s *ExportDataService) export(ctx context.Context, kind Kind, onProgress ProgressFunc) (*ExportResult, error) {
	now := s.now()

	var headers []reporting.CsvHeader
	var datasets []*reporting.Dataset
	var err error
	switch kind {
	case Kind_Neurons:
		headers, datasets, err = s.neuronsDatasets(ctx, now, onProgress)
	case Kind_Transactions:
		headers, datasets, err = s.transactionsDatasets(ctx, now, onProgress)
	default:
		err = fmt.Errorf("unknown export kind '%s'", kind)
	}
	if err != nil {
		return nil, err
	}

	content := reporting.CombineDatasetsToCsv(datasets, headers)
	path, err := reporting.WriteCsvFile(s.GlobalConfig.ExportConfig.Directory, reporting.FileName(string(kind), now), content)
	if err != nil {
		return nil, err
	}
	return &ExportResult{Kind: kind, FilePath: path, Content: content}, nil
}

func projectName(p *baseDataService.ProjectClients) string {
	if p.Project.Name != "" {
		return p.Project.Name
	}
	return p.Project.Id
}

func (s *ExportDataService) neuronsDatasets(ctx context.Context, now time.Time, onProgress ProgressFunc) ([]reporting.CsvHeader, []*reporting.Dataset, error) {
	entries := make([]*reporting.NeuronEntry, 0)
	for _, p := range s.Projects {
		neurons, err := p.Governance.ListNeurons(ctx, true)
		if err != nil {
			return nil, nil, err
		}
		for _, n := range neurons {
			entries = append(entries, toNeuronEntry(p, n))
		}
		if onProgress != nil {
			onProgress(p.Project.Id)
		}
	}
	return reporting.BuildNeuronsDatasets(s.GlobalConfig.Principal, entries, now)
}

func toNeuronEntry(p *baseDataService.ProjectClients, n *governance.Neuron) *reporting.NeuronEntry {
	stakeE8s := uint64(0)
	if n.CachedNeuronStakeE8s > n.NeuronFeesE8s {
		stakeE8s = n.CachedNeuronStakeE8s - n.NeuronFeesE8s
	}
	stakedMaturity := uint64(0)
	if n.StakedMaturityE8sEquivalent != nil {
		stakedMaturity = *n.StakedMaturityE8sEquivalent
	}
	entry := &reporting.NeuronEntry{
		Id:                n.Id,
		Project:           projectName(p),
		Symbol:            p.Project.Symbol,
		AccountId:         n.Account,
		Controller:        n.Controller,
		Stake:             numbers.E8sToTokens(stakeE8s),
		AvailableMaturity: numbers.E8sToTokens(n.MaturityE8sEquivalent),
		StakedMaturity:    numbers.E8sToTokens(stakedMaturity),
		DissolveDelay:     time.Duration(n.DissolveDelaySeconds) * time.Second,
		CreatedAt:         time.Unix(int64(n.CreatedTimestampSeconds), 0),
		State:             string(n.State),
	}
	if n.State == governance.NeuronState_Dissolving && n.WhenDissolvedTimestampSeconds != nil {
		dissolveDate := time.Unix(int64(*n.WhenDissolvedTimestampSeconds), 0)
		entry.DissolveDate = &dissolveDate
	}
	return entry
}

func (s *ExportDataService) transactionsDatasets(ctx context.Context, now time.Time, onProgress ProgressFunc) ([]reporting.CsvHeader, []*reporting.Dataset, error) {
	account := s.Account()
	accounts := make([]*reporting.AccountTransactions, 0)
	for _, p := range s.Projects {
		if p.Index == nil {
			s.Logger.Sugar().Debugw("Project has no index canister", zap.String("projectId", p.Project.Id))
			continue
		}
		balance, err := p.Ledger.BalanceOf(ctx, account, true)
		if err != nil {
			return nil, nil, err
		}
		txs, err := p.Index.ListAllTransactions(ctx, account, true)
		if err != nil {
			return nil, nil, err
		}

		entries := make([]*reporting.TransactionEntry, 0, len(txs))
		for _, tx := range txs {
			if entry := toTransactionEntry(account, tx); entry != nil {
				entries = append(entries, entry)
			}
		}
		accounts = append(accounts, &reporting.AccountTransactions{
			AccountId:    AccountIdentifier(account),
			AccountName:  fmt.Sprintf("%s Main", p.Project.Symbol),
			Project:      projectName(p),
			Symbol:       p.Project.Symbol,
			Balance:      numbers.E8sToTokens(balance),
			Controller:   account.Owner,
			Transactions: entries,
		})
		if onProgress != nil {
			onProgress(p.Project.Id)
		}
	}
	return reporting.BuildTransactionsDatasets(accounts, now)
}

// AccountIdentifier renders an account as owner or owner.subaccount.
func AccountIdentifier(a *ledger.Account) string {
	if a.Subaccount == nil || *a.Subaccount == "" {
		return a.Owner
	}
	return fmt.Sprintf("%s.%s", a.Owner, *a.Subaccount)
}

func sameAccount(a, b *ledger.Account) bool {
	return AccountIdentifier(a) == AccountIdentifier(b)
}

func toTransactionEntry(account *ledger.Account, tx *index.Transaction) *reporting.TransactionEntry {
	entry := &reporting.TransactionEntry{
		Id:        tx.Id,
		Type:      tx.Kind,
		Timestamp: time.Unix(0, int64(tx.TimestampNanos)),
	}
	switch {
	case tx.Transfer != nil:
		entry.From = AccountIdentifier(&tx.Transfer.From)
		entry.To = AccountIdentifier(&tx.Transfer.To)
		entry.Amount = numbers.E8sToTokens(tx.Transfer.AmountE8s)
		entry.Direction = reporting.TransactionDirection_Received
		if sameAccount(&tx.Transfer.From, account) {
			entry.Direction = reporting.TransactionDirection_Sent
			if tx.Transfer.FeeE8s != nil {
				entry.Fee = numbers.E8sToTokens(*tx.Transfer.FeeE8s)
			}
		}
	case tx.MintAmountE8s != nil:
		entry.To = AccountIdentifier(account)
		entry.Amount = numbers.E8sToTokens(*tx.MintAmountE8s)
		entry.Direction = reporting.TransactionDirection_Received
	case tx.BurnAmountE8s != nil:
		entry.From = AccountIdentifier(account)
		entry.Amount = numbers.E8sToTokens(*tx.BurnAmountE8s)
		entry.Direction = reporting.TransactionDirection_Sent
	default:
		return nil
	}
	return entry
}

func (s *ExportDataService) recordMetrics(kind Kind, elapsed time.Duration, err error) {
	if s.MetricsSink == nil {
		return
	}
	labels := []metricsTypes.MetricsLabel{
		{Name: "kind", Value: string(kind)},
		{Name: "hasError", Value: strconv.FormatBool(err != nil)},
	}
	_ = s.MetricsSink.Incr(metricsTypes.Metric_Incr_ExportCompleted, labels, 1)
	_ = s.MetricsSink.Timing(metricsTypes.Metric_Timing_ExportDuration, elapsed, labels)
}
