package services

import (
	"context"
	"strings"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"github.com/bobby-s-dev/agri-copilot/internal/synonyms"
	"go.uber.org/zap"
)

// CategorySearchResolver finds variety records by trying a list of name
// candidates in order against one category.
type CategorySearchResolver struct {
	searcher   VarietySearcher
	translator Translator
	synonyms   *synonyms.Table
	logger     *zap.Logger
}

func NewCategorySearchResolver(searcher VarietySearcher, translator Translator, table *synonyms.Table, logger *zap.Logger) *CategorySearchResolver {
	if table == nil {
		table = synonyms.NewTable(synonyms.DefaultRules())
	}
	return &CategorySearchResolver{
		searcher:   searcher,
		translator: translator,
		synonyms:   table,
		logger:     logger,
	}
}

func (r *CategorySearchResolver) Name() string { return "nongsaro-variety" }

func (r *CategorySearchResolver) Fetch(ctx context.Context, q models.VarietyQuery) models.Result[models.VarietyRecord] {
	return r.Resolve(ctx, q.CropName, q.CategoryCode)
}

// HasHangul reports whether s contains a precomposed Hangul syllable.
func HasHangul(s string) bool {
	for _, ch := range s {
		if ch >= '가' && ch <= '힣' {
			return true
		}
	}
	return false
}

// Resolve stops at the first candidate with a positive result count.
// Zero-count candidates and provider errors move on to the next candidate.
func (r *CategorySearchResolver) Resolve(ctx context.Context, cropName, categoryCode string) models.Result[models.VarietyRecord] {
	if !r.searcher.HasCredential() {
		return models.Fail[models.VarietyRecord](models.MissingCredential("NONGSARO_API_KEY"))
	}

	original := strings.TrimSpace(cropName)
	if original == "" || strings.TrimSpace(categoryCode) == "" {
		return models.Empty[models.VarietyRecord]()
	}

	searchName := original
	if !HasHangul(original) && r.translator != nil {
		translated, err := r.translator.ToKorean(ctx, original)
		if err != nil {
			r.logger.Debug("Translation failed, searching with original name",
				zap.String("crop", original), zap.Error(err))
		} else if translated = strings.TrimSpace(translated); translated != "" {
			searchName = translated
		}
	}

	candidates := r.synonyms.Candidates(searchName, original)
	var lastFailure *models.Failure
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		res := r.searcher.SearchVarieties(ctx, candidate, categoryCode)
		switch res.Outcome {
		case models.OutcomeSuccess:
			r.logger.Debug("Variety candidate matched",
				zap.String("candidate", candidate),
				zap.String("category", categoryCode))
			return models.Success(models.NewVarietyRecord(original, res.Value))
		case models.OutcomeFailure:
			lastFailure = res.Failure
			r.logger.Warn("Variety candidate failed",
				zap.String("provider", "nongsaro"),
				zap.String("candidate", candidate),
				zap.String("category", categoryCode),
				zap.Error(res.Failure))
		}
	}

	if lastFailure != nil {
		r.logger.Debug("All variety candidates exhausted",
			zap.Strings("candidates", candidates),
			zap.String("last_failure", lastFailure.Error()))
	}
	return models.Empty[models.VarietyRecord]()
}
