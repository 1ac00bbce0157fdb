package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"github.com/bobby-s-dev/agri-copilot/internal/synonyms"
)

func TestResolver_StopsAtFirstPositiveCandidate(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]models.Result[string]{
		"옥수수":  models.Empty[string](),
		"찰옥수수": models.Success("[미백찰] 주요특성: 조숙성"),
		"단옥수수": models.Success("[고당옥] 주요특성: 당도 높음"),
	}}
	resolver := NewCategorySearchResolver(searcher, nil, nil, zap.NewNop())

	result := resolver.Resolve(context.Background(), "옥수수", "FC010")

	require.True(t, result.OK(), result.Describe())
	assert.Equal(t, models.VarietyRecord{CropLabel: "옥수수", Text: "[미백찰] 주요특성: 조숙성"}, result.Value)
	assert.Equal(t, []string{"옥수수", "찰옥수수"}, searcher.searched)
}

func TestResolver_ContinuesPastProviderErrors(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]models.Result[string]{
		"고추":   models.Fail[string](models.ProviderFailure("91", "system error")),
		"청양고추": models.Fail[string](models.TransportFailure(errBoom)),
		"꽈리고추": models.Success("[꽈리] 주요특성: 연함"),
	}}
	resolver := NewCategorySearchResolver(searcher, nil, nil, zap.NewNop())

	result := resolver.Resolve(context.Background(), "고추", "VC")
	require.True(t, result.OK())
	assert.Equal(t, []string{"고추", "청양고추", "꽈리고추"}, searcher.searched)
}

func TestResolver_ExhaustedIsEmpty(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]models.Result[string]{
		"감자": models.Fail[string](models.ProviderFailure("13", "bad param")),
	}}
	resolver := NewCategorySearchResolver(searcher, nil, nil, zap.NewNop())

	result := resolver.Resolve(context.Background(), "감자", "VC")
	assert.Equal(t, models.OutcomeEmpty, result.Outcome)
	assert.Equal(t, []string{"감자", "수미감자", "대지감자"}, searcher.searched)
}

func TestResolver_TranslatesNonHangulNames(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]models.Result[string]{
		"단옥수수": models.Success("[고당옥] 주요특성: 당도 높음"),
	}}
	resolver := NewCategorySearchResolver(searcher, fakeTranslator{out: "옥수수"}, nil, zap.NewNop())

	result := resolver.Resolve(context.Background(), "Corn", "FC010")
	require.True(t, result.OK())
	assert.Equal(t, "Corn", result.Value.CropLabel)
	assert.Equal(t, []string{"옥수수", "찰옥수수", "단옥수수"}, searcher.searched)
}

func TestResolver_TranslationFailureKeepsOriginal(t *testing.T) {
	searcher := &fakeSearcher{}
	resolver := NewCategorySearchResolver(searcher, fakeTranslator{err: errBoom}, nil, zap.NewNop())

	result := resolver.Resolve(context.Background(), "corn", "FC010")
	assert.Equal(t, models.OutcomeEmpty, result.Outcome)
	assert.Equal(t, []string{"corn", "옥수수"}, searcher.searched)
}

func TestResolver_HangulNamesAreNotTranslated(t *testing.T) {
	searcher := &fakeSearcher{}
	resolver := NewCategorySearchResolver(searcher, fakeTranslator{out: "should not be used"}, nil, zap.NewNop())

	resolver.Resolve(context.Background(), "벼", "FC")
	assert.Equal(t, []string{"벼"}, searcher.searched)
}

func TestResolver_CustomTable(t *testing.T) {
	searcher := &fakeSearcher{}
	table := synonyms.NewTable([]synonyms.Rule{{Match: "배추", Candidates: []string{"봄배추"}}})
	resolver := NewCategorySearchResolver(searcher, nil, table, zap.NewNop())

	resolver.Resolve(context.Background(), "배추", "VC")
	assert.Equal(t, []string{"배추", "봄배추"}, searcher.searched)
}

func TestResolver_MissingCredential(t *testing.T) {
	searcher := &fakeSearcher{noKey: true}
	resolver := NewCategorySearchResolver(searcher, nil, nil, zap.NewNop())

	result := resolver.Fetch(context.Background(), models.VarietyQuery{CropName: "벼", CategoryCode: "FC"})
	require.Equal(t, models.OutcomeFailure, result.Outcome)
	assert.Equal(t, models.FailureMissingCredential, result.Failure.Kind)
	assert.Empty(t, searcher.searched)
}

func TestResolver_TruncatesText(t *testing.T) {
	long := strings.Repeat("가", models.VarietyTextLimit+10)
	searcher := &fakeSearcher{results: map[string]models.Result[string]{"벼": models.Success(long)}}
	resolver := NewCategorySearchResolver(searcher, nil, nil, zap.NewNop())

	result := resolver.Resolve(context.Background(), "벼", "FC")
	require.True(t, result.OK())
	assert.Equal(t, models.VarietyTextLimit, len([]rune(result.Value.Text)))
}

func TestHasHangul(t *testing.T) {
	assert.True(t, HasHangul("sweet 옥수수"))
	assert.False(t, HasHangul("corn"))
	assert.False(t, HasHangul("ㄱㄴ"))
}
