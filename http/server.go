package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"wtfBlog/auth"
	"wtfBlog/cache"
	"wtfBlog/crud"
	"wtfBlog/domain"
	"wtfBlog/metrics"
	"wtfBlog/views"
)

// DefaultCacheTTL is how long the index page may be served stale.
const DefaultCacheTTL = 20 * time.Second

// Server provides the http functionality of the app: routing, request
// handling and middleware. It performs authentication and authorization
// before handing things over to one of the crud services, and hands render
// contexts over to the rendering collaborator.
type Server struct {
	router    *mux.Router
	us        domain.UserService
	ps        domain.PostService
	gs        domain.GroupService
	cs        domain.CommentService
	fs        domain.FollowService
	is        domain.ImageService
	renderer  views.Renderer
	pageCache cache.Cache
	cacheTTL  time.Duration
	collector *metrics.Collector
	logger    *zap.Logger
	limiter   *ipRateLimiter
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the app services passed in.
func NewServer(
	isProd bool,
	csrfKey string,
	cacheTTL time.Duration,
	services *crud.Services,
	renderer views.Renderer,
	pageCache cache.Cache,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Server {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	s := &Server{
		router:    mux.NewRouter(),
		us:        services.User,
		ps:        services.Post,
		gs:        services.Group,
		cs:        services.Comment,
		fs:        services.Follow,
		is:        services.Image,
		renderer:  renderer,
		pageCache: pageCache,
		cacheTTL:  cacheTTL,
		collector: collector,
		logger:    logger,
		limiter:   newIPRateLimiter(2, 30),
	}

	// Register routes of the auth system.
	s.registerAuthRoutes(s.router)

	// Register routes of the content and social system.
	s.registerPostRoutes(s.router)
	s.registerCommentRoutes(s.router)
	s.registerFollowRoutes(s.router)

	// Uploaded images are served straight from the filesystem.
	s.router.PathPrefix("/" + domain.ImagesBaseDir + "/").Handler(
		http.StripPrefix("/"+domain.ImagesBaseDir+"/",
			http.FileServer(http.Dir(domain.ImagesBaseDir))))

	// Prometheus scrape endpoint.
	s.router.Handle("/metrics", collector.Handler()).Methods("GET")

	// Middleware that runs on every request.
	s.router.Use(s.logRequest, s.checkUser)
	if isProd {
		// CSRF tokens are only checked in production.
		csrfMw := csrf.Protect([]byte(csrfKey), csrf.Secure(true), csrf.Path("/"))
		s.router.Use(csrfMw)
	}
	return s
}

// ServeHTTP makes the Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts to listen and serve on the specified port.
func (s *Server) Run(port int) {
	addr := ":" + strconv.Itoa(port)
	s.logger.Info("listening", zap.String("addr", addr))
	s.logger.Fatal("server stopped", zap.Error(http.ListenAndServe(addr, s.router)))
}

// render injects the keys every view needs and hands the context mapping to
// the rendering collaborator.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data views.Context) {
	if data == nil {
		data = views.Context{}
	}
	data["csrf_field"] = csrf.TemplateField(r)
	if user := auth.GetUser(r.Context()); user != nil {
		data["user"] = user
	}
	s.renderer.Render(w, r, name, data)
}

// pageParam reads the 1-based page number from the query string.
// Anything unparsable counts as page 1; the paginator clamps the rest.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return page
}
