package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"persacc/internal/kpi"
	"persacc/internal/services"
)

// --- mock kpi service ---

type mockKPIService struct {
	monthKPIsFn func(month string) (*kpi.MonthSummary, error)
	yearKPIsFn  func(year int) (*kpi.YearSummary, error)
}

func (m *mockKPIService) MonthKPIs(month string) (*kpi.MonthSummary, error) {
	if m.monthKPIsFn != nil {
		return m.monthKPIsFn(month)
	}
	return &kpi.MonthSummary{FiscalMonth: month}, nil
}

func (m *mockKPIService) YearKPIs(year int) (*kpi.YearSummary, error) {
	if m.yearKPIsFn != nil {
		return m.yearKPIsFn(year)
	}
	return &kpi.YearSummary{Year: year}, nil
}

var _ services.KPIServicer = (*mockKPIService)(nil)

func setupKPIRouter(handler *KPIHandler) *gin.Engine {
	r := gin.New()
	r.GET("/kpis/months/:month", handler.MonthKPIs)
	r.GET("/kpis/years/:year", handler.YearKPIs)
	return r
}

func TestKPIHandler_MonthKPIs(t *testing.T) {
	t.Run("returns the summary", func(t *testing.T) {
		svc := &mockKPIService{
			monthKPIsFn: func(month string) (*kpi.MonthSummary, error) {
				s := &kpi.MonthSummary{FiscalMonth: month, Balance: decimal.RequireFromString("120.5")}
				s.Income = decimal.NewFromInt(2000)
				return s, nil
			},
		}
		r := setupKPIRouter(NewKPIHandler(svc))

		rec := doRequest(r, "GET", "/kpis/months/2024-03", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["fiscal_month"] != "2024-03" || result["balance"] != "120.5" || result["total_income"] != "2000" {
			t.Errorf("unexpected summary %v", result)
		}
	})

	t.Run("returns 400 on malformed month", func(t *testing.T) {
		r := setupKPIRouter(NewKPIHandler(&mockKPIService{}))

		rec := doRequest(r, "GET", "/kpis/months/2024-13", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_FISCAL_MONTH")
	})
}

func TestKPIHandler_YearKPIs(t *testing.T) {
	t.Run("returns the summary", func(t *testing.T) {
		r := setupKPIRouter(NewKPIHandler(&mockKPIService{}))

		rec := doRequest(r, "GET", "/kpis/years/2024", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["year"].(float64) != 2024 {
			t.Error("expected year 2024")
		}
	})

	t.Run("returns 400 on malformed year", func(t *testing.T) {
		r := setupKPIRouter(NewKPIHandler(&mockKPIService{}))

		rec := doRequest(r, "GET", "/kpis/years/twenty", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
