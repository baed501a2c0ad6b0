package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/engine"
	"finhealth/internal/model"
	"finhealth/internal/observability"
)

type swappableSource struct {
	catalog model.Catalog
	err     error
}

func (s *swappableSource) Load(ctx context.Context) (model.Catalog, error) {
	return s.catalog, s.err
}

func (s *swappableSource) Name() string { return "test" }

func TestStoreStartsEmpty(t *testing.T) {
	t.Parallel()

	store := NewStore(NewStaticSource(engine.DefaultCatalog()), nil, nil)
	_, err := store.Snapshot().Assemble(model.RespondentProfile{}, model.LanguageEnglish, "")
	assert.True(t, errors.Is(err, engine.ErrEmptyQuestionSet))
	assert.True(t, store.LoadedAt().IsZero())
}

func TestStoreReloadPublishesAndSkipsUnchanged(t *testing.T) {
	t.Parallel()

	src := &swappableSource{catalog: engine.DefaultCatalog()}
	store := NewStore(src, nil, observability.MustNewMetrics(prometheus.NewRegistry()))

	var published []string
	store.OnChange(func(s *engine.Snapshot) { published = append(published, s.Version()) })

	changed, err := store.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	first := store.Snapshot()
	assert.False(t, store.LoadedAt().IsZero())

	changed, err = store.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, first, store.Snapshot())

	src.catalog.Questions[0].TextEn = "Reworded"
	changed, err = store.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, first.Version(), store.Snapshot().Version())
	assert.Equal(t, []string{first.Version(), store.Snapshot().Version()}, published)

	q, _ := first.Question(src.catalog.Questions[0].ID)
	assert.NotEqual(t, "Reworded", q.TextEn, "old snapshot is untouched")
}

func TestStoreRejectsInvalidCatalog(t *testing.T) {
	t.Parallel()

	src := &swappableSource{catalog: engine.DefaultCatalog()}
	store := NewStore(src, nil, nil)
	_, err := store.Reload(context.Background())
	require.NoError(t, err)
	good := store.Snapshot()

	src.catalog = engine.DefaultCatalog()
	src.catalog.Questions[0].Weight = 50
	_, err = store.Reload(context.Background())
	assert.True(t, errors.Is(err, engine.ErrInvalidCatalog))
	assert.Same(t, good, store.Snapshot())

	src.err = errors.New("mongo down")
	_, err = store.Reload(context.Background())
	assert.ErrorContains(t, err, "mongo down")
	assert.Same(t, good, store.Snapshot())
}

func TestStoreWithoutSource(t *testing.T) {
	t.Parallel()

	_, err := NewStore(nil, nil, nil).Reload(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
}
