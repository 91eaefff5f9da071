package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"wtfBlog/auth"
	"wtfBlog/domain"
	"wtfBlog/errs"
	"wtfBlog/views"
)

// registerFollowRoutes is a helper for registering the follow feed and the
// follow / unfollow actions.
func (s *Server) registerFollowRoutes(r *mux.Router) {
	r.HandleFunc("/follow/", s.requireAuth(s.handleFollowFeed)).Methods("GET")
	r.HandleFunc("/profile/{username}/follow/", s.requireAuth(s.limitWrites(s.handleFollow))).Methods("POST")
	r.HandleFunc("/profile/{username}/unfollow/", s.requireAuth(s.limitWrites(s.handleUnfollow))).Methods("POST")
}

// handleFollowFeed handles the route "GET /follow/".
// It renders the posts of all authors the current identity follows.
func (s *Server) handleFollowFeed(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	feed, err := s.ps.Followed(user.ID, pageParam(r))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.render(w, r, "follow.html", views.Context{
		"page_obj": feed,
	})
}

// handleFollow handles the route "POST /profile/{username}/follow/".
// Following an already-followed author, or yourself, changes nothing.
// Either way the client lands back on the profile.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	author, ok := s.authorFromVars(w, r)
	if !ok {
		return
	}
	user := auth.GetUser(r.Context())
	follow := domain.Follow{
		FollowerID: user.ID,
		FollowedID: author.ID,
	}
	if err := s.fs.Create(&follow); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.collector.RecordFollowCreated()
	http.Redirect(w, r, "/profile/"+author.Username+"/", http.StatusFound)
}

// handleUnfollow handles the route "POST /profile/{username}/unfollow/".
// Unfollowing someone never followed is a no-op, not an error.
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	author, ok := s.authorFromVars(w, r)
	if !ok {
		return
	}
	user := auth.GetUser(r.Context())
	follow := domain.Follow{
		FollowerID: user.ID,
		FollowedID: author.ID,
	}
	if err := s.fs.Delete(&follow); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile/"+author.Username+"/", http.StatusFound)
}

// authorFromVars loads the user addressed by the route, or writes a 404.
func (s *Server) authorFromVars(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	author, err := s.us.ByUsername(mux.Vars(r)["username"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return nil, false
	}
	return author, true
}
