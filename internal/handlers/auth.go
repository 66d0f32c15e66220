package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/crumley/taskdeck/internal/repo"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo *repo.UserRepo
	Secret   []byte
	TokenTTL time.Duration
}

var validate = validator.New()

// ==========================
// Register
// ==========================
//
// Creates the user and returns 201 without a token; the client logs in
// separately. A duplicate email returns 409.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(input); err != nil {
		JSONError(w, "name, email and password are required", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Register: hash password: %v", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	_, err = h.UserRepo.Create(r.Context(), input.Name, input.Email, string(hash))
	if err != nil {
		// Unique constraint on email: the address is already registered.
		if e, ok := err.(*pq.Error); ok && e.Code == "23505" {
			JSONError(w, "email already registered", http.StatusConflict)
			return
		}
		log.Printf("Register: create user failed: %v", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]string{"message": "user registered"}, http.StatusCreated)
}

// ==========================
// Login
// ==========================
//
// Unknown email and wrong password both return the same 401 body so callers
// cannot probe which addresses are registered.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(input); err != nil {
		JSONError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByEmail(r.Context(), input.Email)
	if err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	signed, err := h.issueToken(user.ID, user.Name)
	if err != nil {
		log.Printf("Login: sign token: %v", err)
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]any{
		"token": signed,
		"user": map[string]any{
			"id":   user.ID,
			"name": user.Name,
		},
	}, http.StatusOK)
}

func (h *AuthHandler) issueToken(userID int, name string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"name":    name,
		"iat":     now.Unix(),
		"exp":     now.Add(h.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.Secret)
}
