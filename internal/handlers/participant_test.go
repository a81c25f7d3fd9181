package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/uniqdata/backend/internal/core"
	"github.com/uniqdata/backend/internal/models"
	"github.com/uniqdata/backend/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubGateway struct {
	failCreate bool
	failCancel bool
}

func (g *stubGateway) CreateEscrow(ctx context.Context, projectID, participantAddress string, amountXRP int64) (*core.EscrowCreateResponse, error) {
	if g.failCreate {
		return nil, &core.ClientError{Op: "createEscrow", Err: errors.New("connection refused")}
	}
	return &core.EscrowCreateResponse{
		TxHash:        "TX1",
		EscrowID:      "E1",
		OwnerAddress:  "rOWNER",
		OfferSequence: 7,
	}, nil
}

func (g *stubGateway) CancelEscrow(ctx context.Context, ownerAddress string, offerSequence int64) (*core.EscrowCancelResponse, error) {
	if g.failCancel {
		return nil, &core.ClientError{Op: "cancelEscrow", Err: errors.New("connection refused")}
	}
	return &core.EscrowCancelResponse{TxHash: "TX2"}, nil
}

func newParticipantRouter(t *testing.T, gateway *stubGateway) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Project{}, &models.Participant{}, &models.SystemLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	svc := services.NewParticipantService(db, gateway, 10, nil)
	handler := NewParticipantHandler(svc)

	r := gin.New()
	r.POST("/api/projects/:id/participants/enroll", handler.Enroll)
	r.POST("/api/projects/:id/participants/withdraw", handler.Withdraw)
	r.GET("/api/projects/:id/participants", handler.List)
	r.GET("/api/projects/:id/participants/by-address", handler.GetByAddress)
	return r, db
}

func seedProject(t *testing.T, db *gorm.DB) *models.Project {
	t.Helper()
	project := &models.Project{Title: "Study", Status: models.ProjectStatusRecruiting}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return project
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestEnrollEndpoint_Success(t *testing.T) {
	r, db := newParticipantRouter(t, &stubGateway{})
	seedProject(t, db)

	w := postJSON(r, "/api/projects/1/participants/enroll", `{"participant_address":"rPART1"}`)
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, expected 201, body = %s", w.Code, w.Body.String())
	}
}

func TestEnrollEndpoint_MissingAddress(t *testing.T) {
	r, db := newParticipantRouter(t, &stubGateway{})
	seedProject(t, db)

	w := postJSON(r, "/api/projects/1/participants/enroll", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", w.Code)
	}
}

func TestEnrollEndpoint_InvalidProjectID(t *testing.T) {
	r, _ := newParticipantRouter(t, &stubGateway{})

	w := postJSON(r, "/api/projects/abc/participants/enroll", `{"participant_address":"rPART1"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", w.Code)
	}
}

func TestEnrollEndpoint_ProjectNotFound(t *testing.T) {
	r, _ := newParticipantRouter(t, &stubGateway{})

	w := postJSON(r, "/api/projects/99/participants/enroll", `{"participant_address":"rPART1"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", w.Code)
	}
}

func TestEnrollEndpoint_Duplicate(t *testing.T) {
	r, db := newParticipantRouter(t, &stubGateway{})
	seedProject(t, db)

	postJSON(r, "/api/projects/1/participants/enroll", `{"participant_address":"rPART1"}`)
	w := postJSON(r, "/api/projects/1/participants/enroll", `{"participant_address":"rPART1"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, expected 409", w.Code)
	}
}

func TestEnrollEndpoint_CoreDown(t *testing.T) {
	r, db := newParticipantRouter(t, &stubGateway{failCreate: true})
	seedProject(t, db)

	w := postJSON(r, "/api/projects/1/participants/enroll", `{"participant_address":"rPART1"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, expected 502", w.Code)
	}

	var count int64
	db.Model(&models.Participant{}).Count(&count)
	if count != 0 {
		t.Errorf("participant rows = %d, expected 0 when core is down", count)
	}
}

func TestWithdrawEndpoint_Success(t *testing.T) {
	r, db := newParticipantRouter(t, &stubGateway{})
	seedProject(t, db)

	postJSON(r, "/api/projects/1/participants/enroll", `{"participant_address":"rPART1"}`)
	w := postJSON(r, "/api/projects/1/participants/withdraw", `{"participant_address":"rPART1"}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, expected 200, body = %s", w.Code, w.Body.String())
	}
}

func TestWithdrawEndpoint_NotFound(t *testing.T) {
	r, db := newParticipantRouter(t, &stubGateway{})
	seedProject(t, db)

	w := postJSON(r, "/api/projects/1/participants/withdraw", `{"participant_address":"rUNKNOWN"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", w.Code)
	}
}

func TestWithdrawEndpoint_AlreadyWithdrawn(t *testing.T) {
	r, db := newParticipantRouter(t, &stubGateway{})
	seedProject(t, db)

	postJSON(r, "/api/projects/1/participants/enroll", `{"participant_address":"rPART1"}`)
	postJSON(r, "/api/projects/1/participants/withdraw", `{"participant_address":"rPART1"}`)
	w := postJSON(r, "/api/projects/1/participants/withdraw", `{"participant_address":"rPART1"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, expected 409", w.Code)
	}
}

func TestListEndpoint_ActiveFilter(t *testing.T) {
	r, db := newParticipantRouter(t, &stubGateway{})
	seedProject(t, db)

	postJSON(r, "/api/projects/1/participants/enroll", `{"participant_address":"rA"}`)
	postJSON(r, "/api/projects/1/participants/enroll", `{"participant_address":"rB"}`)
	postJSON(r, "/api/projects/1/participants/withdraw", `{"participant_address":"rB"}`)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/projects/1/participants?active=true", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}
	body := w.Body.String()
	if !bytes.Contains([]byte(body), []byte(`"total":1`)) {
		t.Errorf("expected 1 active participant, body = %s", body)
	}
}

func TestGetByAddressEndpoint(t *testing.T) {
	r, db := newParticipantRouter(t, &stubGateway{})
	seedProject(t, db)

	postJSON(r, "/api/projects/1/participants/enroll", `{"participant_address":"rPART1"}`)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/projects/1/participants/by-address?address=rPART1", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, expected 200", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/projects/1/participants/by-address", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400 without address", w.Code)
	}
}
