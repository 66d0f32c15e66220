package main

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates
var templatesFS embed.FS

const (
	cookieName  = "taskdeck_token"
	defaultPort = "3000"
	defaultAPI  = "http://localhost:8080"
	envWebPort  = "TASKDECK_WEB_PORT"
	envAPIURL   = "TASKDECK_API_URL"
)

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

func main() {
	port := getEnv(envWebPort, defaultPort)
	apiBase := getEnv(envAPIURL, defaultAPI)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health (no auth, no templates)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Public
	r.Get("/login", loginForm)
	r.Post("/login", loginSubmit(apiBase))
	r.Get("/signup", signupForm)
	r.Post("/signup", signupSubmit(apiBase))
	r.Get("/logout", logout)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(requireAuth(apiBase))
		r.Get("/", redirectTasks)
		r.Get("/tasks", tasksPage(apiBase))
		r.Post("/tasks", taskCreate(apiBase))
		r.Post("/tasks/{id}/toggle", taskToggle(apiBase))
		r.Post("/tasks/{id}/delete", taskDelete(apiBase))
	})

	log.Printf("taskdeck web listening on :%s (API at %s)", port, apiBase)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func renderTemplate(w http.ResponseWriter, name string, data any) {
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// task mirrors the API's task JSON.
type task struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	IsCompleted bool    `json:"is_completed"`
	Image       *string `json:"image"`
}

// ==========================
// Auth pages
// ==========================

// requireAuth redirects to /login if the cookie is missing or if the API
// returns 401 (expired/invalid token). A 401 mid-session most likely means
// the token expired, so the stale cookie is cleared before redirecting.
func requireAuth(apiBase string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := r.Cookie(cookieName)
			if err != nil || token.Value == "" {
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func redirectTasks(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/tasks", http.StatusFound)
}

func loginForm(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		http.Redirect(w, r, "/tasks", http.StatusFound)
		return
	}
	data := map[string]string{}
	if r.URL.Query().Get("registered") == "1" {
		data["Notice"] = "Account created. Sign in to continue."
	}
	renderTemplate(w, "login.html", data)
}

func loginSubmit(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		if email == "" || password == "" {
			renderTemplate(w, "login.html", map[string]string{"Error": "Email and password are required"})
			return
		}

		body, _ := json.Marshal(map[string]string{"email": email, "password": password})
		resp, err := http.Post(apiBase+"/login", "application/json", bytes.NewReader(body))
		if err != nil {
			renderTemplate(w, "login.html", map[string]string{"Error": "Cannot reach API: " + err.Error()})
			return
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			renderTemplate(w, "login.html", map[string]string{"Error": apiErrorMessage(data)})
			return
		}

		var out struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(data, &out); err != nil || out.Token == "" {
			renderTemplate(w, "login.html", map[string]string{"Error": "Invalid login response"})
			return
		}

		next := r.URL.Query().Get("next")
		if next == "" || !strings.HasPrefix(next, "/") {
			next = "/tasks"
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    out.Token,
			Path:     "/",
			MaxAge:   3600, // matches the token's one-hour lifetime
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, next, http.StatusFound)
	}
}

func signupForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, "signup.html", nil)
}

func signupSubmit(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(r.FormValue("name"))
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		if name == "" || email == "" || password == "" {
			renderTemplate(w, "signup.html", map[string]string{"Error": "All fields are required"})
			return
		}

		body, _ := json.Marshal(map[string]string{"name": name, "email": email, "password": password})
		resp, err := http.Post(apiBase+"/register", "application/json", bytes.NewReader(body))
		if err != nil {
			renderTemplate(w, "signup.html", map[string]string{"Error": "Cannot reach API: " + err.Error()})
			return
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusCreated {
			renderTemplate(w, "signup.html", map[string]string{"Error": apiErrorMessage(data)})
			return
		}

		http.Redirect(w, r, "/login?registered=1", http.StatusFound)
	}
}

func logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
}

// clearAuthAndRedirectToLogin clears the token cookie and sends the user back
// to login. Call when the API returns 401 (expired or invalid token).
func clearAuthAndRedirectToLogin(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w)
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
}

// ==========================
// Task pages
// ==========================

func tasksPage(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := cookieValue(r)
		data, status, err := apiGet(apiBase, "/tasks", token)
		if err != nil {
			http.Error(w, "cannot reach API: "+err.Error(), http.StatusBadGateway)
			return
		}
		if status == http.StatusUnauthorized {
			clearAuthAndRedirectToLogin(w, r)
			return
		}
		if status != http.StatusOK {
			http.Error(w, "API error", http.StatusBadGateway)
			return
		}

		var tasks []task
		if err := json.Unmarshal(data, &tasks); err != nil {
			http.Error(w, "invalid API response", http.StatusBadGateway)
			return
		}

		renderTemplate(w, "tasks.html", map[string]any{
			"Tasks":   tasks,
			"APIBase": apiBase,
			"Error":   r.URL.Query().Get("error"),
		})
	}
}

func taskCreate(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := cookieValue(r)
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Redirect(w, r, "/tasks?error="+url.QueryEscape("invalid form"), http.StatusFound)
			return
		}

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("title", r.FormValue("title"))

		if file, header, err := r.FormFile("image"); err == nil {
			part, err := mw.CreateFormFile("image", header.Filename)
			if err == nil {
				io.Copy(part, file)
			}
			file.Close()
		}
		mw.Close()

		req, _ := http.NewRequest("POST", apiBase+"/tasks", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			http.Redirect(w, r, "/tasks?error="+url.QueryEscape("cannot reach API"), http.StatusFound)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			clearAuthAndRedirectToLogin(w, r)
			return
		}
		if resp.StatusCode != http.StatusCreated {
			body, _ := io.ReadAll(resp.Body)
			http.Redirect(w, r, "/tasks?error="+url.QueryEscape(apiErrorMessage(body)), http.StatusFound)
			return
		}

		http.Redirect(w, r, "/tasks", http.StatusFound)
	}
}

func taskToggle(apiBase string) http.HandlerFunc {
	return taskAction(apiBase, "PUT")
}

func taskDelete(apiBase string) http.HandlerFunc {
	return taskAction(apiBase, "DELETE")
}

// taskAction forwards a toggle or delete to the API and returns to the list.
func taskAction(apiBase, method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := cookieValue(r)
		id := chi.URLParam(r, "id")

		req, _ := http.NewRequest(method, apiBase+"/tasks/"+url.PathEscape(id), nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			http.Redirect(w, r, "/tasks?error="+url.QueryEscape("cannot reach API"), http.StatusFound)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			clearAuthAndRedirectToLogin(w, r)
			return
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			http.Redirect(w, r, "/tasks?error="+url.QueryEscape(apiErrorMessage(body)), http.StatusFound)
			return
		}

		http.Redirect(w, r, "/tasks", http.StatusFound)
	}
}

// ==========================
// API helpers
// ==========================

func cookieValue(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func apiGet(apiBase, path, token string) ([]byte, int, error) {
	req, err := http.NewRequest("GET", apiBase+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return data, resp.StatusCode, err
}

func apiErrorMessage(body []byte) string {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	if len(body) > 0 {
		return fmt.Sprintf("API error: %s", strings.TrimSpace(string(body)))
	}
	return "API error"
}
