package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"wtfBlog/auth"
	"wtfBlog/domain"
	"wtfBlog/errs"
)

// registerCommentRoutes is a helper for registering all comment routes.
func (s *Server) registerCommentRoutes(r *mux.Router) {
	r.HandleFunc("/posts/{id:[0-9]+}/comment/", s.requireAuth(s.limitWrites(s.handleCreateComment))).Methods("POST")
}

// handleCreateComment handles the route "POST /posts/{id}/comment/".
// A comment on a missing post is a 404, before any form handling. An
// invalid submission re-renders the detail page with the message, nothing
// persisted.
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	post, ok := s.postFromVars(w, r)
	if !ok {
		return
	}
	user := auth.GetUser(r.Context())
	r.ParseForm()
	comment := domain.Comment{
		PostID: post.ID,
		UserID: user.ID,
		Text:   r.PostFormValue("text"),
	}
	if err := s.cs.Create(&comment); err != nil {
		s.renderPostDetail(w, r, post, &postForm{
			Text:  comment.Text,
			Error: errs.ErrorMessage(err),
		})
		return
	}
	s.collector.RecordCommentCreated()
	http.Redirect(w, r, postDetailPath(post.ID), http.StatusFound)
}
