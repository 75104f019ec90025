package handlers

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/upb/tenant-access-gate/middleware"
	"github.com/upb/tenant-access-gate/models"
	"go.uber.org/zap"
)

var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "layout-start"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: system-ui; max-width: 720px; margin: 40px auto; padding: 16px">
{{end}}
{{define "layout-end"}}</body>
</html>
{{end}}

{{define "no-access"}}{{template "layout-start" .}}
<h1>Access Pending</h1>
<p>Your account is signed in, but you don't have access yet.</p>
<p>If you're a student, you'll get access after you're explicitly enrolled.
If you're staff, an administrator needs to grant staff access.</p>
{{template "layout-end" .}}{{end}}

{{define "assign-role"}}{{template "layout-start" .}}
<h1>Assign Role (Admin)</h1>
<p>Assigns a role inside the default tenant. Only a SuperAdmin can submit this form.</p>
<form action="/api/admin/assign-role" method="post">
  <label for="email">User email</label>
  <input id="email" name="email" type="email" required placeholder="name@company.com">
  <label for="role">Role</label>
  <select id="role" name="role" required>
  {{range .Roles}}<option value="{{.}}"{{if eq . $.DefaultRole}} selected{{end}}>{{.}}</option>
  {{end}}</select>
  <button type="submit">Assign Role</button>
</form>
<p><a href="/">Back</a></p>
{{template "layout-end" .}}{{end}}

{{define "area"}}{{template "layout-start" .}}
<h1>{{.Title}}</h1>
<p>Signed in as {{.UserID}}.</p>
{{template "layout-end" .}}{{end}}

{{define "sign-in"}}{{template "layout-start" .}}
<h1>Sign in</h1>
<p>Sign in with your identity provider account to continue.</p>
{{if .RedirectURL}}<p>You will be returned to <code>{{.RedirectURL}}</code>.</p>{{end}}
{{template "layout-end" .}}{{end}}
`))

type pageData struct {
	Title       string
	UserID      string
	RedirectURL string
	Roles       []models.Role
	DefaultRole models.Role
}

// PageHandler serves the small HTML pages the gate redirects to
type PageHandler struct {
	signInURL string
	logger    *zap.Logger
}

// NewPageHandler creates a new PageHandler. When signInURL is set, /sign-in
// forwards to the hosted sign-in page instead of rendering a placeholder.
func NewPageHandler(signInURL string, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		signInURL: signInURL,
		logger:    logger,
	}
}

// NoAccess handles GET /no-access
func (h *PageHandler) NoAccess(w http.ResponseWriter, r *http.Request) {
	h.render(w, "no-access", pageData{Title: "Access Pending"})
}

// AssignRole handles GET /admin/assign-role
func (h *PageHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	h.render(w, "assign-role", pageData{
		Title:       "Assign Role",
		Roles:       models.AllRoles,
		DefaultRole: models.RoleInstructor,
	})
}

// StaffHome handles GET /staff
func (h *PageHandler) StaffHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, "area", pageData{Title: "Staff", UserID: sessionUserID(r)})
}

// StudentHome handles GET /student
func (h *PageHandler) StudentHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, "area", pageData{Title: "Student", UserID: sessionUserID(r)})
}

// SignIn handles GET /sign-in, preserving the redirect_url return target
func (h *PageHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	redirectURL := r.URL.Query().Get("redirect_url")

	if h.signInURL != "" {
		target, err := url.Parse(h.signInURL)
		if err != nil {
			h.logger.Error("invalid hosted sign-in url", zap.Error(err))
			http.Error(w, "Server error", http.StatusInternalServerError)
			return
		}
		if redirectURL != "" {
			q := target.Query()
			q.Set("redirect_url", redirectURL)
			target.RawQuery = q.Encode()
		}
		http.Redirect(w, r, target.String(), http.StatusFound)
		return
	}

	h.render(w, "sign-in", pageData{Title: "Sign in", RedirectURL: redirectURL})
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
	}
}

func sessionUserID(r *http.Request) string {
	if session := middleware.GetSessionFromContext(r.Context()); session != nil {
		return session.UserID
	}
	return ""
}
