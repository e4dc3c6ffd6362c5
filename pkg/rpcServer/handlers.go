package rpcServer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/govwallet/sidecar/internal/version"
	"github.com/govwallet/sidecar/pkg/exportQueue"
	"github.com/govwallet/sidecar/pkg/service/exportDataService"
	"github.com/govwallet/sidecar/pkg/stakingRewards"
	"github.com/govwallet/sidecar/pkg/storage"
	"github.com/govwallet/sidecar/pkg/types/numbers"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

type errorResponse struct {
	Error string `json:"error"`
}

type AboutResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Chain   string `json:"chain"`
}

type StakingRewardsResponse struct {
	Loading bool                              `json:"loading"`
	Error   string                            `json:"error,omitempty"`
	Data    *stakingRewards.StakingRewardData `json:"data,omitempty"`
}

type ProjectApyResponse struct {
	ProjectId string          `json:"projectId"`
	Current   decimal.Decimal `json:"current"`
	Max       decimal.Decimal `json:"max"`
}

type EstimateResponse struct {
	Id                    uint64                `json:"id"`
	ReferenceTimestamp    uint64                `json:"referenceTimestamp"`
	StakingPower          decimal.Decimal       `json:"stakingPower"`
	StakingPowerUSD       decimal.Decimal       `json:"stakingPowerUSD"`
	RewardEstimateWeekUSD decimal.Decimal       `json:"rewardEstimateWeekUSD"`
	UnpricedProjects      string                `json:"unpricedProjects,omitempty"`
	Apys                  []*ProjectApyResponse `json:"apys"`
}

type BalanceResponse struct {
	ProjectId string          `json:"projectId"`
	Balance   decimal.Decimal `json:"balance"`
	Certified bool            `json:"certified"`
}

func (rpc *RpcServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rpc.Logger.Sugar().Errorw("Failed to write response", zap.Error(err))
	}
}

func (rpc *RpcServer) writeError(w http.ResponseWriter, status int, err error) {
	rpc.writeJSON(w, status, &errorResponse{Error: err.Error()})
}

func (rpc *RpcServer) Health(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rpc *RpcServer) About(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, &AboutResponse{
		Version: version.GetVersion(),
		Commit:  version.GetCommit(),
		Chain:   rpc.globalConfig.Chain.String(),
	})
}

func (rpc *RpcServer) GetStakingRewards(w http.ResponseWriter, r *http.Request) {
	res := rpc.stakingRewardsService.Current()
	if res == nil {
		res = &stakingRewards.Result{Loading: true}
	}
	body := &StakingRewardsResponse{Loading: res.Loading, Data: res.Data}
	if res.Err != nil {
		body.Error = res.Err.Error()
	}
	rpc.writeJSON(w, http.StatusOK, body)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit '%s'", raw)
	}
	return min(limit, maxHistoryLimit), nil
}

func toEstimateResponse(e *storage.StakingRewardEstimate) *EstimateResponse {
	apys := make([]*ProjectApyResponse, 0, len(e.Apys))
	for _, apy := range e.Apys {
		apys = append(apys, &ProjectApyResponse{ProjectId: apy.ProjectId, Current: apy.Current, Max: apy.Max})
	}
	return &EstimateResponse{
		Id:                    e.Id,
		ReferenceTimestamp:    e.ReferenceTimestamp,
		StakingPower:          e.StakingPower,
		StakingPowerUSD:       e.StakingPowerUSD,
		RewardEstimateWeekUSD: e.RewardEstimateWeekUSD,
		UnpricedProjects:      e.UnpricedProjects,
		Apys:                  apys,
	}
}

func (rpc *RpcServer) GetStakingRewardsHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		rpc.writeError(w, http.StatusBadRequest, err)
		return
	}
	estimates, err := rpc.stakingRewardsService.History(rpc.globalConfig.Principal, limit)
	if err != nil {
		rpc.writeError(w, http.StatusInternalServerError, err)
		return
	}
	res := make([]*EstimateResponse, 0, len(estimates))
	for _, e := range estimates {
		res = append(res, toEstimateResponse(e))
	}
	rpc.writeJSON(w, http.StatusOK, res)
}

func (rpc *RpcServer) ExportNeurons(w http.ResponseWriter, r *http.Request) {
	rpc.export(w, r, exportDataService.Kind_Neurons)
}

func (rpc *RpcServer) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	rpc.export(w, r, exportDataService.Kind_Transactions)
}

func (rpc *RpcServer) export(w http.ResponseWriter, r *http.Request, kind exportDataService.Kind) {
	res, err := rpc.exportService.EnqueueAndWait(r.Context(), exportQueue.ExportRequest{Kind: kind})
	if err != nil {
		rpc.writeError(w, http.StatusBadGateway, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(res.Data.FilePath)))
	w.Header().Set("X-Export-Job-Id", res.Data.JobId)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(res.Data.Content)); err != nil {
		rpc.Logger.Sugar().Errorw("Failed to write export", zap.Error(err))
	}
}

func (rpc *RpcServer) GetSwapStatus(w http.ResponseWriter, r *http.Request) {
	canisterId := chi.URLParam(r, "canisterId")
	if status, ok := rpc.swapService.GetStatus(canisterId); ok {
		rpc.writeJSON(w, http.StatusOK, status)
		return
	}
	status, err := rpc.swapService.LoadStatus(r.Context(), canisterId)
	if err != nil {
		rpc.writeError(w, http.StatusNotFound, err)
		return
	}
	rpc.writeJSON(w, http.StatusOK, status)
}

func (rpc *RpcServer) GetBalance(w http.ResponseWriter, r *http.Request) {
	projectId := chi.URLParam(r, "projectId")
	balance, ok := rpc.accountsService.GetBalance(projectId)
	if !ok {
		rpc.writeError(w, http.StatusNotFound, errors.New("balance not loaded"))
		return
	}
	rpc.writeJSON(w, http.StatusOK, &BalanceResponse{ProjectId: projectId, Balance: balance.Data, Certified: balance.Certified})
}

// SyncBalance reloads a balance. With ?previous=<tokens> it waits until the
// certified balance differs from previous, e.g. right after a transfer.
func (rpc *RpcServer) SyncBalance(w http.ResponseWriter, r *http.Request) {
	projectId := chi.URLParam(r, "projectId")
	if rpc.globalConfig.GetProject(projectId) == nil {
		rpc.writeError(w, http.StatusNotFound, fmt.Errorf("unknown project '%s'", projectId))
		return
	}
	previous := r.URL.Query().Get("previous")
	if previous == "" {
		rpc.accountsService.LoadBalance(r.Context(), projectId)
		rpc.GetBalance(w, r)
		return
	}
	amount, err := numbers.ParseTokens(previous)
	if err != nil {
		rpc.writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := rpc.accountsService.SyncBalanceAfterTransfer(r.Context(), projectId, amount); err != nil {
		rpc.writeError(w, http.StatusBadGateway, err)
		return
	}
	rpc.GetBalance(w, r)
}
