package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	yeardomain "github.com/saldoapp/saldo/internal/year/domain"
)

type yearResponse struct {
	ID        string    `json:"id"`
	Year      int       `json:"year"`
	Months    []int     `json:"months"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newYearResponse(y yeardomain.Year, createdBy string) yearResponse {
	months := y.Months()
	if months == nil {
		months = []int{}
	}
	return yearResponse{
		ID:        y.ID.String(),
		Year:      y.Year,
		Months:    months,
		CreatedBy: createdBy,
		CreatedAt: y.CreatedAt,
	}
}

func (s *Server) ListYears(c *gin.Context) {
	views, err := s.yearSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]yearResponse, 0, len(views))
	for _, v := range views {
		out = append(out, newYearResponse(v.Year, v.CreatedBy))
	}
	c.JSON(http.StatusOK, gin.H{"years": out})
}

type createYearRequest struct {
	Year *int `json:"year"`
	// Months is either the string "all" or an array of month numbers.
	Months json.RawMessage `json:"months"`
}

func (s *Server) CreateYear(c *gin.Context) {
	var req createYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Year == nil {
		AbortWithError(c, newValidationError("year", "required", "year is required"))
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	createReq := yeardomain.CreateRequest{
		Year:    *req.Year,
		ActorID: actorID,
	}
	if len(req.Months) > 0 {
		var all string
		if err := json.Unmarshal(req.Months, &all); err == nil {
			if all != "all" {
				AbortWithError(c, newValidationError("months", "invalid_months", "months must be \"all\" or a list of month numbers"))
				return
			}
			createReq.AllMonths = true
		} else if err := json.Unmarshal(req.Months, &createReq.Months); err != nil {
			AbortWithError(c, newValidationError("months", "invalid_months", "months must be \"all\" or a list of month numbers"))
			return
		}
	} else {
		createReq.AllMonths = true
	}

	year, err := s.yearSvc.Create(c.Request.Context(), createReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"year": newYearResponse(*year, "")})
}
