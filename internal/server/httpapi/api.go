// Package httpapi exposes the REST API under /api/v1 with go-chi.
package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options tunes the router.
type Options struct {
	CORSOrigins     []string
	RateLimitAuth   int
	RateLimitWindow time.Duration
}

type API struct {
	identity IdentityService
	users    UserService
	catalog  CatalogService
	reviews  ReviewService
	logger   logging.Logger
	opts     Options
}

func NewAPI(identity IdentityService, users UserService, catalog CatalogService, reviews ReviewService, l logging.Logger, opts Options) *API {
	return &API{
		identity: identity,
		users:    users,
		catalog:  catalog,
		reviews:  reviews,
		logger:   l.With("module", "http_api"),
		opts:     opts,
	}
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(a.observe)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if a.opts.RateLimitAuth > 0 {
				r.Use(httprate.LimitByIP(a.opts.RateLimitAuth, a.opts.RateLimitWindow))
			}
			r.Post("/signup/", a.signup)
			r.Post("/token/", a.token)
		})

		r.Group(func(r chi.Router) {
			r.Use(a.authenticate)
			r.Use(a.denyAnonymousUnsafe)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", a.listUsers)
				r.Post("/", a.createUser)
				r.Get("/me/", a.getMe)
				r.Patch("/me/", a.updateMe)
				r.Get("/{username}/", a.getUser)
				r.Patch("/{username}/", a.updateUser)
				r.Delete("/{username}/", a.deleteUser)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", a.listCategories)
				r.Post("/", a.createCategory)
				r.Delete("/{slug}/", a.deleteCategory)
			})

			r.Route("/genres", func(r chi.Router) {
				r.Get("/", a.listGenres)
				r.Post("/", a.createGenre)
				r.Delete("/{slug}/", a.deleteGenre)
			})

			r.Route("/titles", func(r chi.Router) {
				r.Get("/", a.listTitles)
				r.Post("/", a.createTitle)
				r.Get("/{titleID}/", a.getTitle)
				r.Patch("/{titleID}/", a.updateTitle)
				r.Delete("/{titleID}/", a.deleteTitle)

				r.Route("/{titleID}/reviews", func(r chi.Router) {
					r.Get("/", a.listReviews)
					r.Post("/", a.createReview)
					r.Get("/{reviewID}/", a.getReview)
					r.Patch("/{reviewID}/", a.updateReview)
					r.Delete("/{reviewID}/", a.deleteReview)

					r.Route("/{reviewID}/comments", func(r chi.Router) {
						r.Get("/", a.listComments)
						r.Post("/", a.createComment)
						r.Get("/{commentID}/", a.getComment)
						r.Patch("/{commentID}/", a.updateComment)
						r.Delete("/{commentID}/", a.deleteComment)
					})
				})
			})
		})
	})

	return r
}
