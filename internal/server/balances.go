package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/saldoapp/saldo/internal/ledger/domain"
)

type balanceResponse struct {
	ID               string          `json:"id"`
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	OpeningBalance   decimal.Decimal `json:"openingBalance"`
	ManualAdjustment decimal.Decimal `json:"manualAdjustment"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	CreatedBy        string          `json:"createdBy,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func newBalanceResponse(p *ledgerdomain.BalancePeriod, createdBy string) balanceResponse {
	return balanceResponse{
		ID:               p.ID.String(),
		Year:             p.Year,
		Month:            p.Month,
		OpeningBalance:   p.OpeningBalance,
		ManualAdjustment: p.ManualAdjustment,
		CurrentBalance:   p.CurrentBalance,
		CreatedBy:        createdBy,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

type transactionResponse struct {
	ID          string          `json:"id"`
	BalanceID   string          `json:"balanceId"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Kind        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
	UserID      string          `json:"userId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func newTransactionResponse(e *ledgerdomain.TransactionEntry) transactionResponse {
	return transactionResponse{
		ID:          e.ID.String(),
		BalanceID:   e.BalanceID.String(),
		Year:        e.Year,
		Month:       e.Month,
		Kind:        string(e.Kind),
		Amount:      e.Amount,
		Description: e.Description,
		Source:      string(e.Source),
		UserID:      e.UserID.String(),
		CreatedAt:   e.CreatedAt,
	}
}

func newTransactionResponses(entries []*ledgerdomain.TransactionEntry) []transactionResponse {
	out := make([]transactionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, newTransactionResponse(e))
	}
	return out
}

func (s *Server) ListBalances(c *gin.Context) {
	yearStr := c.Query("year")
	if yearStr == "" {
		AbortWithError(c, newValidationError("year", "required", "year query parameter is required"))
		return
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		AbortWithError(c, newValidationError("year", "invalid_year", "year must be a number"))
		return
	}

	views, err := s.ledgerSvc.ListPeriods(c.Request.Context(), year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]balanceResponse, 0, len(views))
	for i := range views {
		out = append(out, newBalanceResponse(&views[i].BalancePeriod, views[i].CreatedBy))
	}
	c.JSON(http.StatusOK, gin.H{"balances": out})
}

type upsertBalanceRequest struct {
	Year           *int             `json:"year"`
	Month          *int             `json:"month"`
	OpeningBalance *decimal.Decimal `json:"openingBalance"`
	Description    string           `json:"description"`
}

// UpsertBalance opens a period or revises its opening balance; a revision
// leaves a correction entry in the log.
func (s *Server) UpsertBalance(c *gin.Context) {
	var req upsertBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Year == nil || req.Month == nil || req.OpeningBalance == nil {
		AbortWithError(c, newValidationError("request", "missing_fields", "year, month and openingBalance are required"))
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	period, err := s.ledgerSvc.OpenOrRevise(c.Request.Context(), ledgerdomain.OpenOrReviseRequest{
		Year:        *req.Year,
		Month:       *req.Month,
		Opening:     *req.OpeningBalance,
		Description: req.Description,
		ActorID:     actorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": newBalanceResponse(period, "")})
}

type adjustBalanceRequest struct {
	Delta       *decimal.Decimal `json:"delta"`
	Description string           `json:"description"`
}

func (s *Server) AdjustBalance(c *gin.Context) {
	periodID, err := parsePeriodID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req adjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Delta == nil {
		AbortWithError(c, newValidationError("delta", "required", "delta is required"))
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	period, err := s.ledgerSvc.ApplyAdjustment(c.Request.Context(), ledgerdomain.AdjustRequest{
		PeriodID:    periodID,
		Delta:       *req.Delta,
		Description: req.Description,
		ActorID:     actorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": newBalanceResponse(period, "")})
}

type recordTransactionRequest struct {
	Year        *int             `json:"year"`
	Month       *int             `json:"month"`
	Kind        string           `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
}

// RecordTransaction appends a manual credit or debit, creating the target
// period with a zero opening balance when it does not exist yet.
func (s *Server) RecordTransaction(c *gin.Context) {
	var req recordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Year == nil || req.Month == nil || req.Amount == nil {
		AbortWithError(c, newValidationError("request", "missing_fields", "year, month and amount are required"))
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	period, entry, err := s.ledgerSvc.RecordTransaction(c.Request.Context(), ledgerdomain.RecordTransactionRequest{
		Year:        *req.Year,
		Month:       *req.Month,
		Kind:        ledgerdomain.TransactionKind(req.Kind),
		Amount:      *req.Amount,
		Description: req.Description,
		ActorID:     actorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"balance":     newBalanceResponse(period, ""),
		"transaction": newTransactionResponse(entry),
	})
}

func (s *Server) ListMyTransactions(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	limit, err := parseLimit(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entries, err := s.ledgerSvc.ListEntriesByActor(c.Request.Context(), actorID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": newTransactionResponses(entries)})
}

func (s *Server) ListPeriodTransactions(c *gin.Context) {
	periodID, err := parsePeriodID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	limit, err := parseLimit(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entries, err := s.ledgerSvc.ListEntries(c.Request.Context(), periodID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": newTransactionResponses(entries)})
}

// ReconcileBalance recomputes the cached balance from the transaction log
// and repairs it when the two disagree.
func (s *Server) ReconcileBalance(c *gin.Context) {
	periodID, err := parsePeriodID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	period, err := s.ledgerSvc.Reconcile(c.Request.Context(), periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": newBalanceResponse(period, "")})
}

func parsePeriodID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		return 0, newValidationError("id", "invalid_id", "invalid balance id")
	}
	return id, nil
}

func parseLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, newValidationError("limit", "invalid_limit", "limit must be a non-negative number")
	}
	return limit, nil
}
