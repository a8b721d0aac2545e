package catalog

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/mealplan/internal/nutrition"
	"example.com/mealplan/internal/persistence/memory"
)

func TestFileSource(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{
			name:     "wrapped catalog",
			filename: "foods.json",
			data:     []byte(`{"foods": [{"name": "Apple", "calories": 95}]}`),
		},
		{
			name:     "bare array",
			filename: "array.json",
			data:     []byte(`[{"name": "Apple", "calories": 95}]`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.filename)
			require.NoError(t, os.WriteFile(path, tt.data, 0o644))

			loaded, err := NewFileSource(path).Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.data, loaded)

			foods, err := Decode(loaded)
			require.NoError(t, err)
			require.Len(t, foods, 1)
			assert.Equal(t, "Apple", foods[0].Name)
		})
	}

	t.Run("load nonexistent file", func(t *testing.T) {
		_, err := NewFileSource(filepath.Join(tmpDir, "missing.json")).Load(context.Background())
		assert.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})
}

type stubObjectGetter struct {
	body  string
	err   error
	input *s3.GetObjectInput
}

func (s *stubObjectGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(s.body))}, nil
}

func TestS3Source(t *testing.T) {
	getter := &stubObjectGetter{body: `{"foods": []}`}
	data, err := NewS3Source(getter, "bucket", "catalog/foods.json").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"foods": []}`, string(data))
	assert.Equal(t, "bucket", aws.ToString(getter.input.Bucket))
	assert.Equal(t, "catalog/foods.json", aws.ToString(getter.input.Key))

	failing := &stubObjectGetter{err: errors.New("access denied")}
	_, err = NewS3Source(failing, "bucket", "key").Load(context.Background())
	require.ErrorContains(t, err, "s3://bucket/key")
}

func TestDecodeRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty document", "  ", "empty"},
		{"missing name", `[{"calories": 10}]`, "name is required"},
		{"negative nutrient", `[{"name": "Odd", "fat": -1}]`, "non-negative"},
		{"not json", `{"foods": [}`, "decode catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestDefaultFoodsCoverRestrictions(t *testing.T) {
	foods := DefaultFoods()
	require.NotEmpty(t, foods)

	filter := nutrition.NewCatalogFilter(nil)
	for _, restriction := range []string{"vegetarian", "vegan", "dairy-free", "gluten-free"} {
		kept, err := filter.Filter(foods, restriction)
		require.NoError(t, err, restriction)
		assert.GreaterOrEqual(t, len(kept), nutrition.MinimumCatalogSize, restriction)
	}
}

func TestSeedUpsertsIntoStore(t *testing.T) {
	store := memory.NewStore()
	n, err := Seed(context.Background(), StaticSource{}, store)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultFoods()), n)

	all, err := store.AllFoods(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, n)

	_, err = Seed(context.Background(), StaticSource{Data: []byte("[]x")}, store)
	require.Error(t, err)
}
