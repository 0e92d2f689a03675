package handler

import (
	"github.com/RSAC2025/rsac/internal/core/domain"
	"github.com/RSAC2025/rsac/internal/core/ports"
	"github.com/RSAC2025/rsac/pkg/apperror"
	"github.com/RSAC2025/rsac/pkg/response"

	"github.com/gin-gonic/gin"
)

// RewardHandler exposes the pipeline trigger and payable query endpoints.
type RewardHandler struct {
	commission  ports.CommissionCalculator
	center      ports.CenterCalculator
	aggregator  ports.TransferAggregator
	disburser   ports.DisbursementEngine
	payableRepo ports.PayableRepository
}

// NewRewardHandler creates a new RewardHandler.
func NewRewardHandler(
	commission ports.CommissionCalculator,
	center ports.CenterCalculator,
	aggregator ports.TransferAggregator,
	disburser ports.DisbursementEngine,
	payableRepo ports.PayableRepository,
) *RewardHandler {
	return &RewardHandler{
		commission:  commission,
		center:      center,
		aggregator:  aggregator,
		disburser:   disburser,
		payableRepo: payableRepo,
	}
}

// calcRequest optionally scopes a run to one reward date. An absent body or
// an empty reward_date means the full ledger.
type calcRequest struct {
	RewardDate string `json:"reward_date"`
}

// bindDateScope reads the optional date scope from the ?date= query
// parameter or the JSON body. The query parameter takes precedence.
func bindDateScope(c *gin.Context) (*string, bool) {
	if q := c.Query("date"); q != "" {
		return &q, true
	}
	var req calcRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperror.Validation("invalid request body"))
			return nil, false
		}
	}
	if req.RewardDate == "" {
		return nil, true
	}
	return &req.RewardDate, true
}

// CalculateCommission handles POST /api/v1/rewards/calculate-commission.
func (h *RewardHandler) CalculateCommission(c *gin.Context) {
	date, ok := bindDateScope(c)
	if !ok {
		return
	}

	result, err := h.commission.Calculate(c.Request.Context(), ports.CalcRequest{RewardDate: date})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// CalculateCenter handles POST /api/v1/rewards/calculate-center.
func (h *RewardHandler) CalculateCenter(c *gin.Context) {
	date, ok := bindDateScope(c)
	if !ok {
		return
	}

	result, err := h.center.Calculate(c.Request.Context(), ports.CalcRequest{RewardDate: date})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Aggregate handles POST /api/v1/rewards/aggregate.
func (h *RewardHandler) Aggregate(c *gin.Context) {
	date, ok := bindDateScope(c)
	if !ok {
		return
	}

	result, err := h.aggregator.Aggregate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Disburse handles POST /api/v1/rewards/disburse. The date defaults to the
// current day in the reporting timezone.
func (h *RewardHandler) Disburse(c *gin.Context) {
	date, ok := bindDateScope(c)
	if !ok {
		return
	}
	rewardDate := domain.TodayKST()
	if date != nil {
		rewardDate = *date
	}

	result, err := h.disburser.Disburse(c.Request.Context(), rewardDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ListPayables handles GET /api/v1/rewards/payables?date=YYYY-MM-DD&status=.
func (h *RewardHandler) ListPayables(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = domain.TodayKST()
	}
	if !domain.ValidRewardDate(date) {
		response.Error(c, apperror.ErrInvalidRewardDate(date))
		return
	}

	var status *domain.PayableStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.PayableStatus(raw)
		switch s {
		case domain.PayableStatusPending, domain.PayableStatusProcessing,
			domain.PayableStatusSuccess, domain.PayableStatusFailed:
			status = &s
		default:
			response.Error(c, apperror.Validation("unknown payable status"))
			return
		}
	}

	records, err := h.payableRepo.ListByDate(c.Request.Context(), date, status)
	if err != nil {
		response.Error(c, apperror.ErrPayableLoad(err))
		return
	}
	response.OK(c, gin.H{
		"reward_date": date,
		"count":       len(records),
		"payables":    records,
	})
}
