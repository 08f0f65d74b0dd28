// Package schema validates match submissions and normalizes query filters
// before they reach the core. The core assumes inputs that passed here are
// well formed.
package schema

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mverbeck/vodlog/internal/game"
	"github.com/mverbeck/vodlog/internal/video"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Enum membership checks; the closed sets live in the game package.
	v.RegisterValidation("character", func(fl validator.FieldLevel) bool {
		return game.ValidCharacter(game.Character(fl.Field().String()))
	})
	v.RegisterValidation("fuse", func(fl validator.FieldLevel) bool {
		return game.ValidFuse(game.Fuse(fl.Field().String()))
	})
	v.RegisterValidation("youtubeurl", func(fl validator.FieldLevel) bool {
		_, ok := video.ExtractYouTubeInfo(fl.Field().String())
		return ok
	})

	return &Validator{validate: v}
}

// ValidateMatchInput rejects submissions the core must never see: unknown
// characters or fuses, a team fielding the same character twice, a missing
// point player, or a video URL without a recognizable id.
func (v *Validator) ValidateMatchInput(input *game.MatchInput) error {
	if err := v.validate.Struct(input); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			return fmt.Errorf("invalid match submission: %s", describe(errs))
		}
		return err
	}
	return nil
}

func describe(errs validator.ValidationErrors) string {
	var parts []string
	for _, e := range errs {
		switch e.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", e.Field()))
		case "character":
			parts = append(parts, fmt.Sprintf("%s is not a playable character", e.Value()))
		case "fuse":
			parts = append(parts, fmt.Sprintf("%s is not a valid fuse", e.Value()))
		case "nefield":
			parts = append(parts, "pointChar and assistChar must be different")
		case "youtubeurl":
			parts = append(parts, "video url did not contain a youtube video id")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", e.Field(), e.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// ParseMatchFilter normalizes request query parameters into a MatchFilter.
// Repeatable keys accept both single and multiple values; unknown characters
// or fuses are rejected rather than silently dropped.
func ParseMatchFilter(params url.Values) (game.MatchFilter, error) {
	var filter game.MatchFilter

	filter.Player = params.Get("player")
	filter.Patch = params.Get("patch")

	for _, c := range params["character"] {
		ch := game.Character(c)
		if !game.ValidCharacter(ch) {
			return game.MatchFilter{}, fmt.Errorf("unknown character %q", c)
		}
		filter.Character = append(filter.Character, ch)
	}

	for _, f := range params["fuse"] {
		fu := game.Fuse(f)
		if !game.ValidFuse(fu) {
			return game.MatchFilter{}, fmt.Errorf("unknown fuse %q", f)
		}
		filter.Fuse = append(filter.Fuse, fu)
	}

	var err error
	if filter.Limit, err = positiveInt(params.Get("limit"), "limit"); err != nil {
		return game.MatchFilter{}, err
	}
	if filter.Page, err = positiveInt(params.Get("page"), "page"); err != nil {
		return game.MatchFilter{}, err
	}

	return filter, nil
}

func positiveInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}
