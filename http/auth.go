package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"wtfBlog/auth"
	"wtfBlog/domain"
	"wtfBlog/errs"
	"wtfBlog/views"
)

// authForm carries submitted signup / login values and a validation message
// back into a re-rendered form.
type authForm struct {
	Username string
	Email    string
	Error    string
}

// registerAuthRoutes is a helper for registering all signup, login and
// logout routes.
func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/signup", s.handleSignupForm).Methods("GET")
	r.HandleFunc("/signup", s.limitWrites(s.handleSignup)).Methods("POST")
	r.HandleFunc("/login", s.handleLoginForm).Methods("GET")
	r.HandleFunc("/login", s.limitWrites(s.handleLogin)).Methods("POST")
	r.HandleFunc("/logout", s.requireAuth(s.handleLogout)).Methods("POST")
}

// handleSignupForm handles the route "GET /signup".
func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "signup.html", views.Context{
		"form": &authForm{},
	})
}

// handleSignup handles the route "POST /signup".
// It registers a new account and signs it in right away.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	form := &authForm{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
	}
	user := domain.User{
		Username: form.Username,
		Email:    form.Email,
		Password: r.PostFormValue("password"),
	}
	if err := s.us.Create(r.Context(), &user); err != nil {
		form.Error = errs.ErrorMessage(err)
		s.render(w, r, "signup.html", views.Context{"form": form})
		return
	}
	if err := s.signIn(w, r, &user); err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLoginForm handles the route "GET /login".
// A next parameter, set when an auth gate bounced the request here, is
// carried through the form so the login can land back where it started.
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", views.Context{
		"form": &authForm{},
		"next": safeNext(r.FormValue("next")),
	})
}

// handleLogin handles the route "POST /login".
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	next := safeNext(r.FormValue("next"))
	form := &authForm{
		Email: r.PostFormValue("email"),
	}
	user, err := s.us.Authenticate(form.Email, r.PostFormValue("password"))
	if err != nil {
		form.Error = errs.ErrorMessage(err)
		s.render(w, r, "login.html", views.Context{"form": form, "next": next})
		return
	}
	if err := s.signIn(w, r, user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// handleLogout handles the route "POST /logout".
// It rotates the remember token so the stored cookie value stops working.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie := http.Cookie{
		Name:     "remember_token",
		Value:    "",
		Expires:  time.Now(),
		HttpOnly: true,
		Path:     "/",
	}
	http.SetCookie(w, &cookie)
	user := *auth.GetUser(r.Context())
	token, _ := s.us.MakeRememberToken()
	user.Remember = token
	if err := s.us.Update(r.Context(), &user); err != nil {
		errs.LogError(r, err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// signIn issues a fresh remember token for the user and sets the session
// cookie identifying them.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	if user.Remember == "" {
		token, err := s.us.MakeRememberToken()
		if err != nil {
			return err
		}
		user.Remember = token
		if err = s.us.Update(r.Context(), user); err != nil {
			return err
		}
	}
	cookie := http.Cookie{
		Name:     "remember_token",
		Value:    user.Remember,
		HttpOnly: true,
		Path:     "/",
	}
	http.SetCookie(w, &cookie)
	return nil
}

// safeNext keeps post-login redirects on this site. Anything that is not a
// plain local path is discarded.
func safeNext(next string) string {
	if next == "" {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || next[0] != '/' {
		return ""
	}
	return next
}
