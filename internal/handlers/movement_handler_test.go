package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "persacc/internal/errors"
	"persacc/internal/models"
	"persacc/internal/pagination"
	"persacc/internal/services"
)

// --- mock movement service ---

type mockMovementService struct {
	insertMovementFn  func(in services.MovementInput) (*models.Movement, error)
	updateMovementFn  func(id string, upd services.MovementUpdate) (*models.Movement, error)
	deleteMovementFn  func(id string) error
	getMovementByIDFn func(id string) (*models.Movement, error)
	listMovementsFn   func(period services.Period) ([]models.Movement, error)
	searchMovementsFn func(filter services.MovementFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Movement], error)
	availableYearsFn  func() ([]int, error)
}

func (m *mockMovementService) InsertMovement(in services.MovementInput) (*models.Movement, error) {
	if m.insertMovementFn != nil {
		return m.insertMovementFn(in)
	}
	return &models.Movement{}, nil
}

func (m *mockMovementService) UpdateMovement(id string, upd services.MovementUpdate) (*models.Movement, error) {
	if m.updateMovementFn != nil {
		return m.updateMovementFn(id, upd)
	}
	return &models.Movement{}, nil
}

func (m *mockMovementService) DeleteMovement(id string) error {
	if m.deleteMovementFn != nil {
		return m.deleteMovementFn(id)
	}
	return nil
}

func (m *mockMovementService) GetMovementByID(id string) (*models.Movement, error) {
	if m.getMovementByIDFn != nil {
		return m.getMovementByIDFn(id)
	}
	return &models.Movement{}, nil
}

func (m *mockMovementService) ListMovements(period services.Period) ([]models.Movement, error) {
	if m.listMovementsFn != nil {
		return m.listMovementsFn(period)
	}
	return []models.Movement{}, nil
}

func (m *mockMovementService) SearchMovements(filter services.MovementFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Movement], error) {
	if m.searchMovementsFn != nil {
		return m.searchMovementsFn(filter, page)
	}
	resp := pagination.NewPageResponse([]models.Movement{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockMovementService) AvailableYears() ([]int, error) {
	if m.availableYearsFn != nil {
		return m.availableYearsFn()
	}
	return nil, nil
}

func (m *mockMovementService) CreateAutoMovement(_ *gorm.DB, _ *models.Movement) error {
	return nil
}

var _ services.MovementServicer = (*mockMovementService)(nil)

func setupMovementRouter(handler *MovementHandler) *gin.Engine {
	r := gin.New()
	r.POST("/movements", handler.CreateMovement)
	r.GET("/movements", handler.ListMovements)
	r.GET("/movements/search", handler.SearchMovements)
	r.GET("/movements/years", handler.AvailableYears)
	r.GET("/movements/:id", handler.GetMovementByID)
	r.PUT("/movements/:id", handler.UpdateMovement)
	r.DELETE("/movements/:id", handler.DeleteMovement)
	return r
}

func TestMovementHandler_CreateMovement(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockMovementService{
			insertMovementFn: func(in services.MovementInput) (*models.Movement, error) {
				if in.RealDate.Format("2006-01-02") != "2024-03-05" {
					t.Errorf("expected real date 2024-03-05, got %s", in.RealDate)
				}
				if in.RelevanceCode == nil || *in.RelevanceCode != models.RelevanceEnjoyed {
					t.Errorf("expected ENJOYED relevance, got %v", in.RelevanceCode)
				}
				return &models.Movement{
					Base:         models.Base{ID: "m1"},
					MovementType: in.MovementType,
					Amount:       in.Amount,
					FiscalMonth:  "2024-03",
				}, nil
			},
		}
		r := setupMovementRouter(NewMovementHandler(svc))

		rec := doRequest(r, "POST", "/movements",
			`{"real_date":"2024-03-05","movement_type":"EXPENSE","category_id":"c1","relevance_code":"ENJOYED","concept":"Dinner","amount":"42.50"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		mv := parseJSON(t, rec)["movement"].(map[string]interface{})
		if mv["amount"] != "42.5" {
			t.Errorf("expected amount 42.5, got %v", mv["amount"])
		}
		if mv["fiscal_month"] != "2024-03" {
			t.Errorf("expected fiscal month 2024-03, got %v", mv["fiscal_month"])
		}
	})

	t.Run("returns 400 on invalid movement type", func(t *testing.T) {
		r := setupMovementRouter(NewMovementHandler(&mockMovementService{}))

		rec := doRequest(r, "POST", "/movements",
			`{"movement_type":"GIFT","category_id":"c1","amount":"10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on malformed amount", func(t *testing.T) {
		r := setupMovementRouter(NewMovementHandler(&mockMovementService{}))

		rec := doRequest(r, "POST", "/movements",
			`{"movement_type":"INCOME","category_id":"c1","amount":"ten"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 when month closed", func(t *testing.T) {
		svc := &mockMovementService{
			insertMovementFn: func(services.MovementInput) (*models.Movement, error) {
				return nil, apperrors.ErrMonthClosed
			},
		}
		r := setupMovementRouter(NewMovementHandler(svc))

		rec := doRequest(r, "POST", "/movements",
			`{"movement_type":"INCOME","category_id":"c1","amount":"10"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "MONTH_CLOSED")
	})
}

func TestMovementHandler_UpdateMovement(t *testing.T) {
	t.Run("passes only provided fields", func(t *testing.T) {
		svc := &mockMovementService{
			updateMovementFn: func(id string, upd services.MovementUpdate) (*models.Movement, error) {
				if id != "m1" {
					t.Errorf("expected id m1, got %s", id)
				}
				if upd.Amount == nil || upd.Amount.String() != "15" {
					t.Errorf("expected amount 15, got %v", upd.Amount)
				}
				if upd.RealDate != nil || upd.MovementType != nil {
					t.Error("expected untouched fields to stay nil")
				}
				return &models.Movement{Base: models.Base{ID: id}}, nil
			},
		}
		r := setupMovementRouter(NewMovementHandler(svc))

		rec := doRequest(r, "PUT", "/movements/m1", `{"amount":"15"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockMovementService{
			updateMovementFn: func(string, services.MovementUpdate) (*models.Movement, error) {
				return nil, apperrors.ErrMovementNotFound
			},
		}
		r := setupMovementRouter(NewMovementHandler(svc))

		rec := doRequest(r, "PUT", "/movements/missing", `{"concept":"x"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "MOVEMENT_NOT_FOUND")
	})
}

func TestMovementHandler_DeleteMovement(t *testing.T) {
	var deleted string
	svc := &mockMovementService{
		deleteMovementFn: func(id string) error {
			deleted = id
			return nil
		},
	}
	r := setupMovementRouter(NewMovementHandler(svc))

	rec := doRequest(r, "DELETE", "/movements/m9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deleted != "m9" {
		t.Errorf("expected m9 to be deleted, got %q", deleted)
	}
}

func TestMovementHandler_ListMovements(t *testing.T) {
	t.Run("by month", func(t *testing.T) {
		svc := &mockMovementService{
			listMovementsFn: func(p services.Period) ([]models.Movement, error) {
				if p.FiscalMonth != "2024-03" || p.Year != 0 {
					t.Errorf("unexpected period %+v", p)
				}
				return []models.Movement{{Base: models.Base{ID: "a"}}, {Base: models.Base{ID: "b"}}}, nil
			},
		}
		r := setupMovementRouter(NewMovementHandler(svc))

		rec := doRequest(r, "GET", "/movements?month=2024-03", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if n := len(parseJSON(t, rec)["movements"].([]interface{})); n != 2 {
			t.Errorf("expected 2 movements, got %d", n)
		}
	})

	t.Run("by year", func(t *testing.T) {
		svc := &mockMovementService{
			listMovementsFn: func(p services.Period) ([]models.Movement, error) {
				if p.Year != 2024 || p.FiscalMonth != "" {
					t.Errorf("unexpected period %+v", p)
				}
				return nil, nil
			},
		}
		r := setupMovementRouter(NewMovementHandler(svc))

		rec := doRequest(r, "GET", "/movements?year=2024", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("rejects month and year together", func(t *testing.T) {
		r := setupMovementRouter(NewMovementHandler(&mockMovementService{}))

		rec := doRequest(r, "GET", "/movements?month=2024-03&year=2024", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestMovementHandler_SearchMovements(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		svc := &mockMovementService{
			searchMovementsFn: func(f services.MovementFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Movement], error) {
				if f.MovementType == nil || *f.MovementType != models.MovementTypeExpense {
					t.Errorf("expected EXPENSE filter, got %v", f.MovementType)
				}
				if f.Source == nil || *f.Source != models.SourceAutoClose {
					t.Errorf("expected AUTO_CLOSE filter, got %v", f.Source)
				}
				if f.MinAmount == nil || f.MinAmount.String() != "5" {
					t.Errorf("expected min amount 5, got %v", f.MinAmount)
				}
				if f.Query != "rent" || f.Period.Year != 2024 {
					t.Errorf("unexpected filter %+v", f)
				}
				if page.Page != 2 {
					t.Errorf("expected page 2, got %d", page.Page)
				}
				resp := pagination.NewPageResponse([]models.Movement{}, 2, 20, 0)
				return &resp, nil
			},
		}
		r := setupMovementRouter(NewMovementHandler(svc))

		rec := doRequest(r, "GET", "/movements/search?year=2024&type=expense&source=auto_close&q=rent&min_amount=5&page=2", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		r := setupMovementRouter(NewMovementHandler(&mockMovementService{}))

		rec := doRequest(r, "GET", "/movements/search?type=gift", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_MOVEMENT_TYPE")
	})
}

func TestMovementHandler_AvailableYears(t *testing.T) {
	svc := &mockMovementService{
		availableYearsFn: func() ([]int, error) { return []int{2024, 2023}, nil },
	}
	r := setupMovementRouter(NewMovementHandler(svc))

	rec := doRequest(r, "GET", "/movements/years", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	years := parseJSON(t, rec)["years"].([]interface{})
	if len(years) != 2 || years[0].(float64) != 2024 {
		t.Errorf("expected [2024 2023], got %v", years)
	}
}
