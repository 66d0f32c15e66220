package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/crumley/taskdeck/internal/repo"
)

func newAuthHandler(db *sql.DB) *AuthHandler {
	return &AuthHandler{
		UserRepo: repo.NewUserRepo(db),
		Secret:   []byte("test-secret"),
		TokenTTL: time.Hour,
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestAuthHandler_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(name, email, password_hash\)`).
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
			AddRow(1, "alice", "alice@example.com", time.Now()))

	h := newAuthHandler(db)
	rr := postJSON(t, h.Register, "/register", map[string]string{
		"name": "alice", "email": "alice@example.com", "password": "s3cret-pw",
	})

	if rr.Code != http.StatusCreated {
		t.Errorf("Register status: got %d, want 201", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(name, email, password_hash\)`).
		WithArgs("bob", "alice@example.com", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	h := newAuthHandler(db)
	rr := postJSON(t, h.Register, "/register", map[string]string{
		"name": "bob", "email": "alice@example.com", "password": "s3cret-pw",
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("Register status: got %d, want 409", rr.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["error"] != "email already registered" {
		t.Errorf("unexpected error: %v", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newAuthHandler(db)
	rr := postJSON(t, h.Register, "/register", map[string]string{"email": "alice@example.com"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Register status: got %d, want 400", rr.Code)
	}
	// No INSERT must have been attempted.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret-pw"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, name, email, password_hash, created_at`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
			AddRow(1, "alice", "alice@example.com", string(hash), time.Now()))

	h := newAuthHandler(db)
	rr := postJSON(t, h.Login, "/login", map[string]string{
		"email": "alice@example.com", "password": "s3cret-pw",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("Login status: got %d, want 200", rr.Code)
	}
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Token == "" || out.User.ID != 1 || out.User.Name != "alice" {
		t.Errorf("unexpected response: token=%q user=%+v", out.Token, out.User)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Unknown email and wrong password must be indistinguishable to the caller.
func TestAuthHandler_Login_FailuresLookAlike(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("right-pw"), bcrypt.MinCost)

	// Wrong password for an existing user
	mock.ExpectQuery(`SELECT id, name, email, password_hash, created_at`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
			AddRow(1, "alice", "alice@example.com", string(hash), time.Now()))

	// Unknown email
	mock.ExpectQuery(`SELECT id, name, email, password_hash, created_at`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	h := newAuthHandler(db)

	wrongPW := postJSON(t, h.Login, "/login", map[string]string{
		"email": "alice@example.com", "password": "wrong-pw",
	})
	unknown := postJSON(t, h.Login, "/login", map[string]string{
		"email": "nobody@example.com", "password": "whatever",
	})

	if wrongPW.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Errorf("statuses: wrongPW=%d unknown=%d, want 401 for both", wrongPW.Code, unknown.Code)
	}
	if wrongPW.Body.String() != unknown.Body.String() {
		t.Errorf("failure bodies differ: %q vs %q", wrongPW.Body.String(), unknown.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newAuthHandler(db)
	req := httptest.NewRequest("POST", "/login", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Login status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
