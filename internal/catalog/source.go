// Package catalog loads the food catalog seed and caches catalog reads.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"example.com/mealplan/internal/nutrition"
)

//go:embed foods.json
var defaultCatalog []byte

// Source returns a raw catalog document.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// FileSource reads the catalog from the local filesystem.
type FileSource struct {
	Path string
}

// NewFileSource returns a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(s.Path)
}

// ObjectGetter is the subset of the S3 client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the catalog from an S3 object.
type S3Source struct {
	bucket string
	key    string
	s3     ObjectGetter
}

// NewS3Source returns an S3Source for bucket/key.
func NewS3Source(client ObjectGetter, bucket, key string) *S3Source {
	return &S3Source{bucket: bucket, key: key, s3: client}
}

func (s *S3Source) Load(ctx context.Context) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog object s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// StaticSource serves an in-memory document. The zero value serves the built-in catalog.
type StaticSource struct {
	Data []byte
}

func (s StaticSource) Load(context.Context) ([]byte, error) {
	if s.Data == nil {
		return bytes.Clone(defaultCatalog), nil
	}
	return s.Data, nil
}

// Decode parses a catalog document. Both {"foods": [...]} and a bare array are accepted.
func Decode(data []byte) ([]nutrition.FoodItem, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("catalog document is empty")
	}

	var foods []nutrition.FoodItem
	if data[0] == '[' {
		if err := json.Unmarshal(data, &foods); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	} else {
		var doc struct {
			Foods []nutrition.FoodItem `json:"foods"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		foods = doc.Foods
	}

	for i, f := range foods {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("catalog entry %d: name is required", i)
		}
		if f.Calories < 0 || f.Protein < 0 || f.Carbs < 0 || f.Fat < 0 {
			return nil, fmt.Errorf("catalog entry %q: nutrients must be non-negative", f.Name)
		}
	}
	return foods, nil
}

// DefaultFoods returns the built-in catalog.
func DefaultFoods() []nutrition.FoodItem {
	foods, err := Decode(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog is invalid: %v", err))
	}
	return foods
}

// FoodWriter stores catalog entries.
type FoodWriter interface {
	UpsertFoods(ctx context.Context, foods []nutrition.FoodItem) error
}

// Seed loads src and upserts its foods into dst, returning how many were written.
func Seed(ctx context.Context, src Source, dst FoodWriter) (int, error) {
	data, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}
	foods, err := Decode(data)
	if err != nil {
		return 0, err
	}
	if err := dst.UpsertFoods(ctx, foods); err != nil {
		return 0, fmt.Errorf("store catalog: %w", err)
	}
	return len(foods), nil
}
