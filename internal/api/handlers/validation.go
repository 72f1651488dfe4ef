package handlers

import (
	"my-race-engineer/internal/matching"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// The "transponder" rule accepts values the matcher can actually use:
// digit strings, optionally whitespace-padded. Profile edits bind with
// it so a typo'd transponder is rejected up front. Ingest payloads
// deliberately skip the rule; a malformed transponder on a result sheet
// degrades to name matching instead of failing the whole sheet.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transponder", func(fl validator.FieldLevel) bool {
			return matching.NormalizeTransponder(fl.Field().String()) != ""
		})
	}
}
