package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"wtfBlog/auth"
	"wtfBlog/domain"
	"wtfBlog/errs"
	"wtfBlog/views"
)

// postForm carries submitted values and a validation message back into a
// re-rendered submission form.
type postForm struct {
	Text    string
	GroupID int
	Error   string
}

// registerPostRoutes is a helper for registering all feed and post routes.
func (s *Server) registerPostRoutes(r *mux.Router) {
	// The index feed is served through the page cache.
	r.HandleFunc("/", s.cachePage(s.handleIndex)).Methods("GET")

	// Public feeds.
	r.HandleFunc("/group/{slug}/", s.handleGroup).Methods("GET")
	r.HandleFunc("/profile/{username}/", s.handleProfile).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/", s.handlePostDetail).Methods("GET")

	// Authoring.
	r.HandleFunc("/create/", s.requireAuth(s.handleCreatePostForm)).Methods("GET")
	r.HandleFunc("/create/", s.requireAuth(s.limitWrites(s.handleCreatePost))).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/edit/", s.requireAuth(s.handleEditPostForm)).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/edit/", s.requireAuth(s.limitWrites(s.handleEditPost))).Methods("POST")
}

// handleIndex handles the route "GET /".
// It renders the global feed: all posts, newest first, paginated.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	feed, err := s.ps.Index(pageParam(r))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.render(w, r, "index.html", views.Context{
		"page_obj": feed,
	})
}

// handleGroup handles the route "GET /group/{slug}/".
// It renders the feed of a single group.
func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.gs.BySlug(mux.Vars(r)["slug"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	feed, err := s.ps.ByGroup(group.ID, pageParam(r))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.render(w, r, "group_list.html", views.Context{
		"group":    group,
		"page_obj": feed,
	})
}

// handleProfile handles the route "GET /profile/{username}/".
// It renders an author's feed, their total post count, and whether the
// current identity follows them.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	author, err := s.us.ByUsername(mux.Vars(r)["username"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	feed, err := s.ps.ByAuthor(author.ID, pageParam(r))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	count, err := s.ps.CountByAuthor(author.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	following := false
	if viewer := auth.GetUser(r.Context()); viewer != nil {
		following, err = s.fs.Following(viewer.ID, author.ID)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
	}
	s.render(w, r, "profile.html", views.Context{
		"author":      author,
		"posts_count": count,
		"following":   following,
		"page_obj":    feed,
	})
}

// handlePostDetail handles the route "GET /posts/{id}/".
// It renders a single post with its comments and the comment form.
func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	post, ok := s.postFromVars(w, r)
	if !ok {
		return
	}
	s.renderPostDetail(w, r, post, &postForm{})
}

// renderPostDetail gathers the detail view's context. The form parameter
// carries validation state when a comment submission re-renders the page.
func (s *Server) renderPostDetail(w http.ResponseWriter, r *http.Request, post *domain.Post, form *postForm) {
	images, err := s.is.ByOwner(domain.OwnerTypePost, post.ID)
	if err == nil {
		post.Images = images
	}
	count, err := s.ps.CountByAuthor(post.UserID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	comments, err := s.cs.ByPostID(post.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.render(w, r, "post_detail.html", views.Context{
		"post":        post,
		"posts_count": count,
		"form":        form,
		"comments":    comments,
	})
}

// handleCreatePostForm handles the route "GET /create/".
func (s *Server) handleCreatePostForm(w http.ResponseWriter, r *http.Request) {
	s.renderPostForm(w, r, nil, &postForm{})
}

// handleCreatePost handles the route "POST /create/".
// It persists a new post owned by the current identity and redirects to
// their profile. Invalid submissions re-render the form, nothing persisted.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	form := s.parsePostForm(r)
	post := domain.Post{
		UserID:  user.ID,
		Text:    form.Text,
		GroupID: form.GroupID,
	}
	if err := s.ps.Create(&post); err != nil {
		form.Error = errs.ErrorMessage(err)
		s.renderPostForm(w, r, nil, form)
		return
	}
	s.saveUploadedImage(r, post.ID)
	s.collector.RecordPostCreated()
	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusFound)
}

// handleEditPostForm handles the route "GET /posts/{id}/edit/".
// Only the author may edit; everyone else is silently sent to the detail view.
func (s *Server) handleEditPostForm(w http.ResponseWriter, r *http.Request) {
	post, ok := s.postFromVars(w, r)
	if !ok {
		return
	}
	user := auth.GetUser(r.Context())
	if post.UserID != user.ID {
		http.Redirect(w, r, postDetailPath(post.ID), http.StatusFound)
		return
	}
	s.renderPostForm(w, r, post, &postForm{Text: post.Text, GroupID: post.GroupID})
}

// handleEditPost handles the route "POST /posts/{id}/edit/".
// It saves the submitted fields and nothing else; author and publication
// date never change. Non-authors are silently redirected to the detail view.
func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.postFromVars(w, r)
	if !ok {
		return
	}
	user := auth.GetUser(r.Context())
	if post.UserID != user.ID {
		http.Redirect(w, r, postDetailPath(post.ID), http.StatusFound)
		return
	}
	form := s.parsePostForm(r)
	post.Text = form.Text
	post.GroupID = form.GroupID
	if err := s.ps.Update(post); err != nil {
		form.Error = errs.ErrorMessage(err)
		s.renderPostForm(w, r, post, form)
		return
	}
	s.replaceUploadedImage(r, post.ID)
	http.Redirect(w, r, postDetailPath(post.ID), http.StatusFound)
}

// postFromVars loads the post addressed by the route, or writes a 404.
func (s *Server) postFromVars(w http.ResponseWriter, r *http.Request) (*domain.Post, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid post id."))
		return nil, false
	}
	post, err := s.ps.ByID(id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return nil, false
	}
	return post, true
}

// parsePostForm reads the submission form. It accepts both multipart
// (with image) and plain form encodings.
func (s *Server) parsePostForm(r *http.Request) *postForm {
	if err := r.ParseMultipartForm(domain.MaxUploadSize); err != nil && err != http.ErrNotMultipart {
		r.ParseForm()
	}
	form := &postForm{
		Text: r.FormValue("text"),
	}
	if groupID, err := strconv.Atoi(r.FormValue("group")); err == nil {
		form.GroupID = groupID
	}
	return form
}

// renderPostForm renders the shared create/edit template.
func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, post *domain.Post, form *postForm) {
	groups, err := s.gs.All()
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	data := views.Context{
		"form":   form,
		"groups": groups,
	}
	if post != nil {
		data["post"] = post
	}
	s.render(w, r, "create_post.html", data)
}

// saveUploadedImage stores the optional image of a post submission. A failed
// upload never fails the post itself.
func (s *Server) saveUploadedImage(r *http.Request, postID int) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return
	}
	defer file.Close()
	img := domain.Image{
		OwnerType: domain.OwnerTypePost,
		OwnerID:   postID,
		File:      file,
		Filename:  header.Filename,
	}
	if err := s.is.Create(&img); err != nil {
		errs.LogError(r, err)
	}
}

// replaceUploadedImage swaps a post's stored images for the newly uploaded
// one. Without a new upload the existing images stay untouched.
func (s *Server) replaceUploadedImage(r *http.Request, postID int) {
	upload, _, err := r.FormFile("image")
	if err != nil {
		return
	}
	upload.Close()
	existing, err := s.is.ByOwner(domain.OwnerTypePost, postID)
	if err != nil {
		errs.LogError(r, err)
		return
	}
	for i := range existing {
		if err := s.is.Delete(&existing[i]); err != nil {
			errs.LogError(r, err)
		}
	}
	s.saveUploadedImage(r, postID)
}

// postDetailPath builds the canonical detail route of a post.
func postDetailPath(id int) string {
	return "/posts/" + strconv.Itoa(id) + "/"
}
