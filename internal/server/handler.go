package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"bookshelf/internal/catalog"
	"bookshelf/internal/response"
	"bookshelf/internal/storage/analytics"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report field errors under their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return v
}

type signInRequest struct {
	Username string `json:"username" validate:"required"`
}

type importRequest struct {
	ExternalId string   `json:"external_id"`
	Title      string   `json:"title" validate:"required"`
	Year       int      `json:"year" validate:"gte=0,lte=2100"`
	Authors    []string `json:"authors"`
	Subjects   []string `json:"subjects"`
	CoverUrl   string   `json:"cover_url" validate:"omitempty,url"`
	Language   string   `json:"language"`
}

type createBookRequest struct {
	Title       string   `json:"title" validate:"required"`
	Year        int      `json:"year" validate:"gte=0,lte=2100"`
	Description string   `json:"description"`
	CoverUrl    string   `json:"cover_url" validate:"omitempty,url"`
	Language    string   `json:"language"`
	Authors     []string `json:"authors"`
	Subjects    []string `json:"subjects"`
	HeightCm    int      `json:"height_cm" validate:"gte=0"`
	WidthCm     int      `json:"width_cm" validate:"gte=0"`
	ThicknessCm int      `json:"thickness_cm" validate:"gte=0"`
	Pages       int      `json:"pages" validate:"gte=0"`
	Format      string   `json:"format" validate:"omitempty,oneof=paperback hardcover ebook other"`
}

type dimensionsRequest struct {
	HeightCm    *int    `json:"height_cm" validate:"omitempty,gte=0"`
	WidthCm     *int    `json:"width_cm" validate:"omitempty,gte=0"`
	ThicknessCm *int    `json:"thickness_cm" validate:"omitempty,gte=0"`
	Pages       *int    `json:"pages" validate:"omitempty,gte=0"`
	Format      *string `json:"format" validate:"omitempty,oneof=paperback hardcover ebook other"`
}

type reviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text"`
}

func Handler(svc *catalog.Service, ar analytics.Repository, rr *response.Responder) http.Handler {
	r := chi.NewRouter()

	r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		hits, err := svc.Search(r.Context(), q.Get("q"), getIntOrDefault("limit", q, 0))
		if err != nil {
			rr.RespondAndLogCustom(w, r.Context(), err, slog.LevelWarn, http.StatusBadGateway)
			return
		}

		rr.SendJson(w, r.Context(), struct {
			Hits []types.SearchHit `json:"hits"`
		}{Hits: hits})
	})

	r.Post("/users", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decode[signInRequest](rr, w, r)
		if !ok {
			return
		}

		user, err := svc.SignIn(r.Context(), req.Username)
		if err != nil {
			respondServiceError(rr, w, r, err)
			return
		}

		rr.SendJson(w, r.Context(), user)
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()

			page, err := svc.ListBooks(r.Context(), q.Get("search"),
				getMulti("subject", q),
				getIntOrDefault("page", q, 1))
			if err != nil {
				rr.RespondAndLogError(w, r.Context(), err)
				return
			}

			rr.SendJson(w, r.Context(), page)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			req, ok := decode[createBookRequest](rr, w, r)
			if !ok {
				return
			}

			book, err := svc.CreateManual(r.Context(), catalog.ManualEntry{
				Title:       req.Title,
				Year:        req.Year,
				Description: req.Description,
				CoverUrl:    req.CoverUrl,
				Language:    req.Language,
				Authors:     req.Authors,
				Subjects:    req.Subjects,
				HeightCm:    req.HeightCm,
				WidthCm:     req.WidthCm,
				ThicknessCm: req.ThicknessCm,
				Pages:       req.Pages,
				Format:      req.Format,
			})
			if err != nil {
				respondServiceError(rr, w, r, err)
				return
			}

			rr.SendJsonStatus(w, r.Context(), http.StatusCreated, book)
		})

		r.Post("/import", func(w http.ResponseWriter, r *http.Request) {
			req, ok := decode[importRequest](rr, w, r)
			if !ok {
				return
			}

			book, created, err := svc.ImportFromHit(r.Context(), types.SearchHit{
				ExternalId: req.ExternalId,
				Title:      req.Title,
				Year:       req.Year,
				Authors:    req.Authors,
				Subjects:   req.Subjects,
				CoverUrl:   req.CoverUrl,
				Language:   req.Language,
			})
			if err != nil {
				respondServiceError(rr, w, r, err)
				return
			}

			status := http.StatusOK
			if created {
				status = http.StatusCreated
			}

			rr.SendJsonStatus(w, r.Context(), status, struct {
				Book    *types.Book `json:"book"`
				Created bool        `json:"created"`
			}{Book: book, Created: created})
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathId(rr, w, r, "id")
			if !ok {
				return
			}

			book, err := svc.GetBook(r.Context(), id)
			if err != nil {
				rr.RespondAndLogError(w, r.Context(), err)
				return
			}

			if book == nil {
				respondNotFound(rr, w, r)
				return
			}

			rr.SendJson(w, r.Context(), book)
		})

		r.Patch("/{id}/dimensions", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathId(rr, w, r, "id")
			if !ok {
				return
			}

			req, ok := decode[dimensionsRequest](rr, w, r)
			if !ok {
				return
			}

			book, err := svc.UpdateDimensions(r.Context(), id, books.DimensionsPatch{
				HeightCm:    req.HeightCm,
				WidthCm:     req.WidthCm,
				ThicknessCm: req.ThicknessCm,
				Pages:       req.Pages,
				Format:      req.Format,
			})
			if err != nil {
				respondServiceError(rr, w, r, err)
				return
			}

			if book == nil {
				respondNotFound(rr, w, r)
				return
			}

			rr.SendJson(w, r.Context(), book)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathId(rr, w, r, "id")
			if !ok {
				return
			}

			deleted, err := svc.DeleteBook(r.Context(), id)
			if err != nil {
				rr.RespondAndLogError(w, r.Context(), err)
				return
			}

			rr.SendJson(w, r.Context(), struct {
				Deleted int64 `json:"deleted"`
			}{Deleted: deleted})
		})
	})

	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathId(rr, w, r, "id")
		if !ok {
			return
		}

		user, err := svc.GetUser(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if user == nil {
			respondNotFound(rr, w, r)
			return
		}

		rr.SendJson(w, r.Context(), user)
	})

	r.Route("/users/{id}/reviews", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			userId, ok := pathId(rr, w, r, "id")
			if !ok {
				return
			}

			page, err := svc.UserReviews(r.Context(), userId)
			if err != nil {
				rr.RespondAndLogError(w, r.Context(), err)
				return
			}

			rr.SendJson(w, r.Context(), page)
		})

		r.Put("/{bookId}", func(w http.ResponseWriter, r *http.Request) {
			userId, ok := pathId(rr, w, r, "id")
			if !ok {
				return
			}
			bookId, ok := pathId(rr, w, r, "bookId")
			if !ok {
				return
			}

			req, ok := decode[reviewRequest](rr, w, r)
			if !ok {
				return
			}

			review, err := svc.SaveReview(r.Context(), userId, bookId, req.Rating, req.Text)
			if err != nil {
				respondServiceError(rr, w, r, err)
				return
			}

			rr.SendJson(w, r.Context(), review)
		})

		r.Delete("/{bookId}", func(w http.ResponseWriter, r *http.Request) {
			userId, ok := pathId(rr, w, r, "id")
			if !ok {
				return
			}
			bookId, ok := pathId(rr, w, r, "bookId")
			if !ok {
				return
			}

			deleted, err := svc.DeleteReview(r.Context(), userId, bookId)
			if err != nil {
				rr.RespondAndLogError(w, r.Context(), err)
				return
			}

			rr.SendJson(w, r.Context(), struct {
				Deleted int64 `json:"deleted"`
			}{Deleted: deleted})
		})
	})

	r.Get("/reviews/recent", func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.RecentReviews(r.Context(), getIntOrDefault("limit", r.URL.Query(), 10))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), page)
	})

	r.Get("/subjects", func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.Subjects(r.Context())
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), struct {
			Subjects []types.Subject `json:"subjects"`
		}{Subjects: rows})
	})

	r.Get("/analytics/volumes", func(w http.ResponseWriter, r *http.Request) {
		rows, err := ar.LargestVolumes(r.Context(), getIntOrDefault("limit", r.URL.Query(), 20))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]analytics.VolumeRow, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Volumes []analytics.VolumeRow `json:"volumes"`
		}{Volumes: rows})
	})

	r.Get("/analytics/shelf-space", func(w http.ResponseWriter, r *http.Request) {
		rows, err := ar.ShelfSpaceByUser(r.Context())
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]analytics.ShelfSpaceRow, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Rows []analytics.ShelfSpaceRow `json:"rows"`
		}{Rows: rows})
	})

	return r
}

func decode[T any](rr *response.Responder, w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rr.RespondAndLogCustom(w, r.Context(), err, slog.LevelInfo, http.StatusBadRequest)
		return nil, false
	}

	if err := validate.Struct(&req); err != nil {
		rr.RespondAndLogCustom(w, r.Context(), err, slog.LevelInfo, http.StatusBadRequest)
		return nil, false
	}

	return &req, true
}

func respondServiceError(rr *response.Responder, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		rr.RespondAndLogCustom(w, r.Context(), err, slog.LevelInfo, http.StatusBadRequest)
	case errors.Is(err, catalog.ErrConflict):
		rr.RespondAndLogCustom(w, r.Context(), err, slog.LevelWarn, http.StatusConflict)
	default:
		rr.RespondAndLogError(w, r.Context(), err)
	}
}

func respondNotFound(rr *response.Responder, w http.ResponseWriter, r *http.Request) {
	rr.RespondAndLogCustom(w, r.Context(), errors.New("not found"), slog.LevelInfo, http.StatusNotFound)
}

func pathId(rr *response.Responder, w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		respondNotFound(rr, w, r)
		return 0, false
	}

	return id, true
}

func getIntOrDefault(key string, q url.Values, default_ int) int {
	if ls := q.Get(key); ls != "" {
		limit, err := strconv.Atoi(ls)
		if err == nil {
			return limit
		}
	}

	return default_
}

func getMulti(key string, q url.Values) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}

	vals := make([]string, 0, len(raw))
	for _, val := range raw {
		val = strings.TrimSpace(val)
		if val != "" {
			vals = append(vals, val)
		}
	}

	return vals
}
