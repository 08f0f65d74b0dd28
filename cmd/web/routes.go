package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/mverbeck/vodlog/internal/game"
	"github.com/mverbeck/vodlog/internal/httputil"
	"github.com/mverbeck/vodlog/internal/middleware"
	"github.com/mverbeck/vodlog/internal/schema"
	"github.com/mverbeck/vodlog/internal/service"
	"github.com/mverbeck/vodlog/internal/store"
)

func newRouter(database *sqlx.DB, adminToken string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	matchService := service.NewMatchService(database, store.NewMatchStore(database))
	validate := schema.New()

	// Enum lists for form rendering; the only public endpoint.
	r.Get("/api/meta", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]any{
			"characters": game.Characters,
			"fuses":      game.Fuses,
			"contexts":   game.MatchContexts,
		})
	})

	r.Route("/api/match", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(adminToken))

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			input, ok := decodeMatchInput(w, r, validate)
			if !ok {
				return
			}

			id, err := matchService.CreateMatch(r.Context(), *input)
			if err != nil {
				var dup *game.DuplicateMatchError
				if errors.As(err, &dup) {
					httputil.Conflict(w, dup.Error(), err)
					return
				}
				httputil.InternalServerError(w, "Failed to create match", err)
				return
			}

			httputil.JSON(w, http.StatusCreated, map[string]int64{"id": id})
		})

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			filter, err := schema.ParseMatchFilter(r.URL.Query())
			if err != nil {
				httputil.BadRequest(w, err.Error(), err)
				return
			}

			page, err := matchService.GetMatches(r.Context(), filter)
			if err != nil {
				httputil.InternalServerError(w, "Failed to query matches", err)
				return
			}

			httputil.JSON(w, http.StatusOK, page)
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}

			match, err := matchService.GetMatch(r.Context(), id)
			if err != nil {
				httputil.InternalServerError(w, "Failed to get match", err)
				return
			}
			if match == nil {
				httputil.NotFound(w, "Match not found", nil)
				return
			}

			httputil.JSON(w, http.StatusOK, match)
		})

		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}

			input, ok := decodeMatchInput(w, r, validate)
			if !ok {
				return
			}

			if _, err := matchService.UpdateMatch(r.Context(), id, *input); err != nil {
				var dup *game.DuplicateMatchError
				switch {
				case errors.Is(err, game.ErrMatchNotFound):
					httputil.NotFound(w, "Match not found", err)
				case errors.As(err, &dup):
					httputil.Conflict(w, dup.Error(), err)
				default:
					httputil.InternalServerError(w, "Failed to update match", err)
				}
				return
			}

			httputil.JSON(w, http.StatusOK, map[string]int64{"id": id})
		})
	})

	return r
}

func decodeMatchInput(w http.ResponseWriter, r *http.Request, validate *schema.Validator) (*game.MatchInput, bool) {
	var input game.MatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return nil, false
	}
	if err := validate.ValidateMatchInput(&input); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return nil, false
	}
	return &input, true
}
