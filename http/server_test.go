package http

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wtfBlog/cache"
	"wtfBlog/crud"
	"wtfBlog/domain"
	"wtfBlog/metrics"
	"wtfBlog/views"
)

// recordingRenderer is a views.Renderer for tests. It remembers what it was
// asked to render and writes a small deterministic body, so cached responses
// can be told apart by content.
type recordingRenderer struct {
	lastView string
	lastData views.Context
}

func (rr *recordingRenderer) Render(w http.ResponseWriter, r *http.Request, name string, data views.Context) {
	rr.lastView = name
	rr.lastData = data
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	body := name
	if feed, ok := data["page_obj"].(*domain.PostFeed); ok {
		body = fmt.Sprintf("%s posts=%d page=%d", name, len(feed.Posts), feed.Page.Number)
	}
	w.Write([]byte(body))
}

// newTestServer builds a full server on a throwaway sqlite database, with the
// in-memory page cache and the recording renderer.
func newTestServer(t *testing.T) (*Server, *crud.Services, *recordingRenderer) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "http_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		domain.User{},
		domain.Group{},
		domain.Post{},
		domain.Comment{},
		domain.Follow{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	services, err := crud.NewServices(
		db,
		crud.WithUser("test-pepper", "test-hmac-key"),
		crud.WithPost(crud.PostsPerPage),
		crud.WithGroup(),
		crud.WithComment(),
		crud.WithFollow(),
		crud.WithImage(),
	)
	if err != nil {
		t.Fatalf("create services: %v", err)
	}
	renderer := &recordingRenderer{}
	server := NewServer(
		false,
		"test-csrf-key",
		DefaultCacheTTL,
		services,
		renderer,
		cache.NewMemory(),
		metrics.NewCollector(nil),
		zap.NewNop(),
	)
	return server, services, renderer
}

// signup registers a user straight through the service layer and returns it
// with its remember token populated.
func signup(t *testing.T, s *crud.Services, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse42",
	}
	if err := s.User.Create(context.Background(), user); err != nil {
		t.Fatalf("signup %q: %v", username, err)
	}
	return user
}

// get performs a GET request, optionally authenticated as the given user.
func get(server *Server, target string, as *domain.User) *httptest.ResponseRecorder {
	r := httptest.NewRequest("GET", target, nil)
	if as != nil {
		r.AddCookie(&http.Cookie{Name: "remember_token", Value: as.Remember})
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)
	return w
}

// doPostForm performs a form POST, optionally authenticated as the given user.
func doPostForm(server *Server, target string, form url.Values, as *domain.User) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if as != nil {
		r.AddCookie(&http.Cookie{Name: "remember_token", Value: as.Remember})
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)
	return w
}

func TestRequireAuthRedirectsToLogin(t *testing.T) {
	server, _, _ := newTestServer(t)

	tests := []struct {
		method string
		target string
	}{
		{"GET", "/create/"},
		{"GET", "/follow/"},
		{"POST", "/posts/1/comment/"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.method == "GET" {
				w = get(server, tt.target, nil)
			} else {
				w = doPostForm(server, tt.target, url.Values{}, nil)
			}
			if w.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d", w.Code)
			}
			loc := w.Header().Get("Location")
			want := "/login?next=" + url.QueryEscape(tt.target)
			if loc != want {
				t.Errorf("expected redirect to %q, got %q", want, loc)
			}
		})
	}
}

func TestCreatePost(t *testing.T) {
	server, services, _ := newTestServer(t)
	alice := signup(t, services, "alice")

	w := doPostForm(server, "/create/", url.Values{"text": {"hello world"}}, alice)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/profile/alice/" {
		t.Errorf("expected redirect to profile, got %q", loc)
	}

	count, err := services.Post.CountByAuthor(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 post, got %d", count)
	}
}

func TestCreatePostEmptyTextRerendersForm(t *testing.T) {
	server, services, renderer := newTestServer(t)
	alice := signup(t, services, "alice")

	w := doPostForm(server, "/create/", url.Values{"text": {"  "}}, alice)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if renderer.lastView != "create_post.html" {
		t.Fatalf("expected form re-render, got %q", renderer.lastView)
	}
	form, ok := renderer.lastData["form"].(*postForm)
	if !ok || form.Error == "" {
		t.Errorf("expected form with error message, got %+v", renderer.lastData["form"])
	}

	count, err := services.Post.CountByAuthor(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected nothing persisted, got %d posts", count)
	}
}

func TestEditPostNonAuthorSilentlyRedirected(t *testing.T) {
	server, services, _ := newTestServer(t)
	alice := signup(t, services, "alice")
	bob := signup(t, services, "bob")

	post := &domain.Post{UserID: alice.ID, Text: "alice's words"}
	if err := services.Post.Create(post); err != nil {
		t.Fatal(err)
	}
	target := fmt.Sprintf("/posts/%d/edit/", post.ID)

	for _, run := range []struct {
		name string
		do   func() *httptest.ResponseRecorder
	}{
		{"GET", func() *httptest.ResponseRecorder { return get(server, target, bob) }},
		{"POST", func() *httptest.ResponseRecorder {
			return doPostForm(server, target, url.Values{"text": {"bob's takeover"}}, bob)
		}},
	} {
		t.Run(run.name, func(t *testing.T) {
			w := run.do()
			if w.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d", w.Code)
			}
			want := fmt.Sprintf("/posts/%d/", post.ID)
			if loc := w.Header().Get("Location"); loc != want {
				t.Errorf("expected redirect to %q, got %q", want, loc)
			}
		})
	}

	got, err := services.Post.ByID(post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "alice's words" {
		t.Errorf("expected text unchanged, got %q", got.Text)
	}
}

func TestEditPostByAuthor(t *testing.T) {
	server, services, _ := newTestServer(t)
	alice := signup(t, services, "alice")

	post := &domain.Post{UserID: alice.ID, Text: "first draft"}
	if err := services.Post.Create(post); err != nil {
		t.Fatal(err)
	}

	target := fmt.Sprintf("/posts/%d/edit/", post.ID)
	w := doPostForm(server, target, url.Values{"text": {"final version"}}, alice)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}

	got, err := services.Post.ByID(post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "final version" {
		t.Errorf("expected edited text, got %q", got.Text)
	}
	if got.UserID != alice.ID {
		t.Errorf("expected author unchanged, got %d", got.UserID)
	}
}

// pngHeader is the magic byte sequence content sniffing recognizes as a png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n")

func TestEditPostReplacesImage(t *testing.T) {
	// Images are stored relative to the working directory; keep the test
	// inside its own temp dir.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	server, services, _ := newTestServer(t)
	alice := signup(t, services, "alice")
	post := &domain.Post{UserID: alice.ID, Text: "with a picture"}
	if err := services.Post.Create(post); err != nil {
		t.Fatal(err)
	}

	// Seed an existing image for the post.
	oldPath := filepath.Join(t.TempDir(), "old.png")
	if err := os.WriteFile(oldPath, pngHeader, 0644); err != nil {
		t.Fatal(err)
	}
	oldFile, err := os.Open(oldPath)
	if err != nil {
		t.Fatal(err)
	}
	defer oldFile.Close()
	oldImage := domain.Image{
		OwnerType: domain.OwnerTypePost,
		OwnerID:   post.ID,
		File:      oldFile,
		Filename:  "old.png",
	}
	if err := services.Image.Create(&oldImage); err != nil {
		t.Fatal(err)
	}

	// Edit the post with a fresh upload.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("text", "with a new picture"); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("image", "new.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(pngHeader)
	mw.Close()

	target := fmt.Sprintf("/posts/%d/edit/", post.ID)
	r := httptest.NewRequest("POST", target, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.AddCookie(&http.Cookie{Name: "remember_token", Value: alice.Remember})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}

	// The old image is gone, exactly one new one remains.
	images, err := services.Image.ByOwner(domain.OwnerTypePost, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 {
		t.Fatalf("expected the upload to replace the old image, got %d images", len(images))
	}
	if images[0].Filename == oldImage.Filename {
		t.Error("expected a fresh stored file, got the old one")
	}
}

func TestCommentOnMissingPostIs404(t *testing.T) {
	server, services, _ := newTestServer(t)
	alice := signup(t, services, "alice")

	w := doPostForm(server, "/posts/999/comment/", url.Values{"text": {"hello?"}}, alice)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCommentFlow(t *testing.T) {
	server, services, renderer := newTestServer(t)
	alice := signup(t, services, "alice")
	bob := signup(t, services, "bob")

	post := &domain.Post{UserID: alice.ID, Text: "discuss"}
	if err := services.Post.Create(post); err != nil {
		t.Fatal(err)
	}
	target := fmt.Sprintf("/posts/%d/comment/", post.ID)

	w := doPostForm(server, target, url.Values{"text": {"well said"}}, bob)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	comments, err := services.Comment.ByPostID(post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 || comments[0].Text != "well said" {
		t.Fatalf("unexpected comments: %+v", comments)
	}

	// An empty comment re-renders the detail page, nothing persisted.
	w = doPostForm(server, target, url.Values{"text": {" "}}, bob)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if renderer.lastView != "post_detail.html" {
		t.Errorf("expected detail re-render, got %q", renderer.lastView)
	}
	comments, err = services.Comment.ByPostID(post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 {
		t.Errorf("expected still 1 comment, got %d", len(comments))
	}
}

func TestFollowUnfollow(t *testing.T) {
	server, services, _ := newTestServer(t)
	alice := signup(t, services, "alice")
	signup(t, services, "bob")

	w := doPostForm(server, "/profile/bob/follow/", url.Values{}, alice)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/profile/bob/" {
		t.Errorf("expected redirect to bob's profile, got %q", loc)
	}

	bob, err := services.User.ByUsername("bob")
	if err != nil {
		t.Fatal(err)
	}
	following, err := services.Follow.Following(alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !following {
		t.Fatal("expected alice to follow bob")
	}

	w = doPostForm(server, "/profile/bob/unfollow/", url.Values{}, alice)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	following, err = services.Follow.Following(alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if following {
		t.Error("expected follow to be gone")
	}
}

func TestSelfFollowSkipped(t *testing.T) {
	server, services, _ := newTestServer(t)
	alice := signup(t, services, "alice")

	w := doPostForm(server, "/profile/alice/follow/", url.Values{}, alice)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	following, err := services.Follow.Following(alice.ID, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if following {
		t.Error("expected no self-follow record")
	}
}

func TestFollowUnknownUserIs404(t *testing.T) {
	server, services, _ := newTestServer(t)
	alice := signup(t, services, "alice")

	w := doPostForm(server, "/profile/ghost/follow/", url.Values{}, alice)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestUnknownProfileIs404(t *testing.T) {
	server, _, _ := newTestServer(t)

	w := get(server, "/profile/ghost/", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestIndexCacheServesStalePage(t *testing.T) {
	server, services, _ := newTestServer(t)
	alice := signup(t, services, "alice")

	if err := services.Post.Create(&domain.Post{UserID: alice.ID, Text: "first"}); err != nil {
		t.Fatal(err)
	}

	first := get(server, "/", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}

	// A new post does not invalidate the cached index.
	if err := services.Post.Create(&domain.Post{UserID: alice.ID, Text: "second"}); err != nil {
		t.Fatal(err)
	}
	cached := get(server, "/", nil)
	if cached.Body.String() != first.Body.String() {
		t.Errorf("expected byte-identical cached page, got %q vs %q",
			cached.Body.String(), first.Body.String())
	}

	// Clearing the cache makes the next request see the new post.
	if err := server.pageCache.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}
	fresh := get(server, "/", nil)
	if fresh.Body.String() == first.Body.String() {
		t.Error("expected fresh page after cache clear")
	}
	if !strings.Contains(fresh.Body.String(), "posts=2") {
		t.Errorf("expected 2 posts on fresh page, got %q", fresh.Body.String())
	}
}

func TestIndexPagesCachedSeparately(t *testing.T) {
	server, services, _ := newTestServer(t)
	alice := signup(t, services, "alice")
	for i := 0; i < 13; i++ {
		err := services.Post.Create(&domain.Post{UserID: alice.ID, Text: fmt.Sprintf("post %d", i)})
		if err != nil {
			t.Fatal(err)
		}
	}

	pageOne := get(server, "/", nil)
	pageTwo := get(server, "/?page=2", nil)
	if pageOne.Body.String() == pageTwo.Body.String() {
		t.Error("expected pages to cache under separate keys")
	}
	if !strings.Contains(pageTwo.Body.String(), "posts=3") {
		t.Errorf("expected 3 posts on page 2, got %q", pageTwo.Body.String())
	}
}

func TestLoginWithNextParam(t *testing.T) {
	server, services, _ := newTestServer(t)
	signup(t, services, "alice")

	form := url.Values{
		"email":    {"alice@example.com"},
		"password": {"correct-horse42"},
		"next":     {"/create/"},
	}
	w := doPostForm(server, "/login", form, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/create/" {
		t.Errorf("expected redirect to /create/, got %q", loc)
	}

	var rememberCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "remember_token" {
			rememberCookie = c
		}
	}
	if rememberCookie == nil || rememberCookie.Value == "" {
		t.Fatal("expected a remember_token cookie")
	}
}

func TestLoginRejectsOffsiteNext(t *testing.T) {
	server, services, _ := newTestServer(t)
	signup(t, services, "alice")

	form := url.Values{
		"email":    {"alice@example.com"},
		"password": {"correct-horse42"},
		"next":     {"https://evil.example.com/"},
	}
	w := doPostForm(server, "/login", form, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect home, got %q", loc)
	}
}

func TestLoginWrongPasswordRerendersForm(t *testing.T) {
	server, services, renderer := newTestServer(t)
	signup(t, services, "alice")

	form := url.Values{
		"email":    {"alice@example.com"},
		"password": {"nope-nope-nope"},
	}
	w := doPostForm(server, "/login", form, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if renderer.lastView != "login.html" {
		t.Errorf("expected login re-render, got %q", renderer.lastView)
	}
	af, ok := renderer.lastData["form"].(*authForm)
	if !ok || af.Error == "" {
		t.Errorf("expected form with error message, got %+v", renderer.lastData["form"])
	}
}

func TestSignupSignsIn(t *testing.T) {
	server, services, _ := newTestServer(t)

	form := url.Values{
		"username": {"carol"},
		"email":    {"carol@example.com"},
		"password": {"long-enough-pw"},
	}
	w := doPostForm(server, "/signup", form, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect home, got %q", loc)
	}
	if _, err := services.User.ByUsername("carol"); err != nil {
		t.Fatalf("expected carol to exist: %v", err)
	}

	var rememberCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "remember_token" {
			rememberCookie = c
		}
	}
	if rememberCookie == nil || rememberCookie.Value == "" {
		t.Fatal("expected a remember_token cookie")
	}
}

func TestProfileShowsFollowState(t *testing.T) {
	server, services, renderer := newTestServer(t)
	alice := signup(t, services, "alice")
	bob := signup(t, services, "bob")

	err := services.Follow.Create(&domain.Follow{FollowerID: alice.ID, FollowedID: bob.ID})
	if err != nil {
		t.Fatal(err)
	}

	w := get(server, "/profile/bob/", alice)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if renderer.lastView != "profile.html" {
		t.Fatalf("expected profile view, got %q", renderer.lastView)
	}
	if following, _ := renderer.lastData["following"].(bool); !following {
		t.Error("expected following to be true")
	}

	// Anonymous viewers never count as following.
	w = get(server, "/profile/bob/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if following, _ := renderer.lastData["following"].(bool); following {
		t.Error("expected following to be false for anonymous viewer")
	}
}

func TestFollowFeedScopedToViewer(t *testing.T) {
	server, services, renderer := newTestServer(t)
	alice := signup(t, services, "alice")
	bob := signup(t, services, "bob")
	carol := signup(t, services, "carol")

	if err := services.Post.Create(&domain.Post{UserID: bob.ID, Text: "from bob"}); err != nil {
		t.Fatal(err)
	}
	if err := services.Post.Create(&domain.Post{UserID: carol.ID, Text: "from carol"}); err != nil {
		t.Fatal(err)
	}
	err := services.Follow.Create(&domain.Follow{FollowerID: alice.ID, FollowedID: bob.ID})
	if err != nil {
		t.Fatal(err)
	}

	w := get(server, "/follow/", alice)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	feed, ok := renderer.lastData["page_obj"].(*domain.PostFeed)
	if !ok {
		t.Fatalf("expected a feed, got %T", renderer.lastData["page_obj"])
	}
	if len(feed.Posts) != 1 || feed.Posts[0].Text != "from bob" {
		t.Errorf("unexpected feed: %+v", feed.Posts)
	}
}

// Guard against the TTL constant drifting from the documented window.
func TestDefaultCacheTTL(t *testing.T) {
	if DefaultCacheTTL != 20*time.Second {
		t.Errorf("expected 20s default cache TTL, got %v", DefaultCacheTTL)
	}
}
